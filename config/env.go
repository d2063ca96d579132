package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DotEnvFile is the optional dotenv file read from the working directory.
const DotEnvFile = ".env"

// Environment variables that override file settings.
const (
	EnvServer         = "MESHSEND_MQTT_SERVER"
	EnvPort           = "MESHSEND_MQTT_PORT"
	EnvUsername       = "MESHSEND_MQTT_USERNAME"
	EnvPassword       = "MESHSEND_MQTT_PASSWORD"
	EnvClientID       = "MESHSEND_MQTT_CLIENT_ID"
	EnvConnectTimeout = "MESHSEND_MQTT_CONNECT_TIMEOUT"
	EnvFromID         = "MESHSEND_FROM_ID"
	EnvToID           = "MESHSEND_TO_ID"
	EnvChannel        = "MESHSEND_CHANNEL"
	EnvChannelNumber  = "MESHSEND_CHANNEL_NUMBER"
	EnvRegion         = "MESHSEND_REGION"
	EnvLogLevel       = "MESHSEND_LOG_LEVEL"
)

// Env looks up environment values.
type Env interface {
	Lookup(key string) (string, bool)
}

// MapEnv is an Env backed by a map.
type MapEnv map[string]string

func (m MapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// processEnv consults the process environment first and the dotenv file second.
type processEnv struct {
	file map[string]string
}

func (e processEnv) Lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := e.file[key]
	return v, ok
}

// NewEnv returns the process environment backed by the dotenv file at path.
// A missing file is not an error.
func NewEnv(path string) (Env, error) {
	file, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return processEnv{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return processEnv{file: file}, nil
}

// applyEnvOverrides applies MESHSEND_* overrides. Empty values are ignored.
func applyEnvOverrides(cfg *Config, env Env) error {
	str := func(key string, dst *string) {
		if v, ok := env.Lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := env.Lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrEnv, key, v)
		}
		*dst = n
		return nil
	}

	str(EnvServer, &cfg.MQTT.Server)
	str(EnvUsername, &cfg.MQTT.Username)
	str(EnvPassword, &cfg.MQTT.Password)
	str(EnvClientID, &cfg.MQTT.ClientID)
	str(EnvFromID, &cfg.Meshtastic.FromID)
	str(EnvToID, &cfg.Meshtastic.ToID)
	str(EnvChannel, &cfg.Meshtastic.Channel)
	str(EnvRegion, &cfg.Meshtastic.Region)
	str(EnvLogLevel, &cfg.Logging.Level)

	if err := num(EnvPort, &cfg.MQTT.Port); err != nil {
		return err
	}
	if err := num(EnvChannelNumber, &cfg.Meshtastic.ChannelNumber); err != nil {
		return err
	}
	if v, ok := env.Lookup(EnvConnectTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrEnv, EnvConnectTimeout, v)
		}
		cfg.MQTT.ConnectTimeout = d
	}
	return nil
}
