// Package config loads meshsend settings from a YAML file, the environment
// and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppDirName is the per-user configuration directory name.
const AppDirName = "meshtastic-mqtt-cli"

// FileName is the configuration file name inside AppDirName.
const FileName = "config.yaml"

// HistoryFileName is the default history database name, next to the config file.
const HistoryFileName = "history.db"

// Config is the root configuration structure.
type Config struct {
	MQTT       MQTTConfig        `yaml:"mqtt"`
	Meshtastic MeshtasticConfig  `yaml:"meshtastic"`
	Nodes      map[string]string `yaml:"nodes,omitempty"`
	History    HistoryConfig     `yaml:"history"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Server         string        `yaml:"server"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	ClientID       string        `yaml:"client_id,omitempty"`
	TLS            bool          `yaml:"tls"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// MeshtasticConfig contains addressing settings.
type MeshtasticConfig struct {
	// FromID is the sender node, e.g. "!12345678".
	FromID string `yaml:"from_id"`
	// ToID is the recipient node, "^all" for broadcast.
	ToID string `yaml:"to_id"`
	// Channel is the channel name used in the topic, e.g. "LongFast".
	Channel string `yaml:"channel"`
	// ChannelNumber is the local channel slot (0-7) put in the payload.
	ChannelNumber int `yaml:"channel_number"`
	// Region is the regulatory region used in the topic, e.g. "US".
	Region string `yaml:"region"`
}

// HistoryConfig controls the local record of sent messages.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Port:           1883,
			ConnectTimeout: 10 * time.Second,
			PublishTimeout: 5 * time.Second,
		},
		Meshtastic: MeshtasticConfig{
			ToID:          "^all",
			Channel:       "LongFast",
			ChannelNumber: 0,
			Region:        "US",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultPath returns the per-user config file location:
// %APPDATA%\meshtastic-mqtt-cli\config.yaml on Windows,
// ~/.config/meshtastic-mqtt-cli/config.yaml elsewhere.
func DefaultPath() string {
	var dir string
	if runtime.GOOS == "windows" {
		dir = filepath.Join(os.Getenv("APPDATA"), AppDirName)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".config", AppDirName)
	}
	return filepath.Join(dir, FileName)
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides from the process environment and an optional ".env" file in the
// working directory.
//
// The loading order is:
//  1. Default values
//  2. YAML file values
//  3. .env file / environment variables (MESHSEND_*)
//
// Command-line overrides are applied afterwards with Apply, followed by Validate.
func Load(path string) (*Config, error) {
	env, err := NewEnv(DotEnvFile)
	if err != nil {
		return nil, err
	}
	return LoadWithEnv(path, env)
}

// LoadWithEnv is Load with an explicit environment.
func LoadWithEnv(path string, env Env) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg, env); err != nil {
		return nil, err
	}

	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(filepath.Dir(path), HistoryFileName)
	}

	return cfg, nil
}

// template is written by CreateDefault.
func template() *Config {
	cfg := Default()
	cfg.MQTT.Server = "mqtt.meshtastic.org"
	cfg.MQTT.Username = "meshdev"
	cfg.MQTT.Password = "large4cats"
	cfg.Meshtastic.FromID = "!12345678"
	return cfg
}

// CreateDefault writes a template config file to path. The directory is
// created with mode 0700 and the file with mode 0600 since it holds broker
// credentials. An existing file is never overwritten.
func CreateDefault(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(template())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	// OpenFile's mode is subject to umask.
	if runtime.GOOS != "windows" {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("setting config file permissions: %w", err)
		}
	}
	return nil
}

// Overrides holds command-line values. Nil fields leave the config untouched.
type Overrides struct {
	Server        *string
	Port          *int
	Username      *string
	Password      *string
	FromID        *string
	ToID          *string
	Channel       *string
	ChannelNumber *int
	Region        *string
	Timeout       *time.Duration
}

// Apply merges o into c; command-line values take priority.
func (c *Config) Apply(o Overrides) {
	setString(&c.MQTT.Server, o.Server)
	setString(&c.MQTT.Username, o.Username)
	setString(&c.MQTT.Password, o.Password)
	setString(&c.Meshtastic.FromID, o.FromID)
	setString(&c.Meshtastic.ToID, o.ToID)
	setString(&c.Meshtastic.Channel, o.Channel)
	setString(&c.Meshtastic.Region, o.Region)
	if o.Port != nil {
		c.MQTT.Port = *o.Port
	}
	if o.ChannelNumber != nil {
		c.Meshtastic.ChannelNumber = *o.ChannelNumber
	}
	if o.Timeout != nil {
		c.MQTT.ConnectTimeout = *o.Timeout
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks that everything needed to send a message is present.
//
// Returns an error wrapping ErrValidation that lists every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Server == "" {
		errs = append(errs, "mqtt.server is required")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		errs = append(errs, fmt.Sprintf("mqtt.port must be 1-65535, got %d", c.MQTT.Port))
	}
	if c.MQTT.Username == "" {
		errs = append(errs, "mqtt.username is required")
	}
	if c.MQTT.Password == "" {
		errs = append(errs, "mqtt.password is required")
	}
	if c.MQTT.ConnectTimeout <= 0 {
		errs = append(errs, "mqtt.connect_timeout must be positive")
	}
	if c.MQTT.PublishTimeout <= 0 {
		errs = append(errs, "mqtt.publish_timeout must be positive")
	}
	if c.Meshtastic.FromID == "" {
		errs = append(errs, "meshtastic.from_id (sender node ID) is required")
	}
	if c.Meshtastic.ToID == "" {
		errs = append(errs, "meshtastic.to_id is required")
	}
	if c.Meshtastic.Channel == "" {
		errs = append(errs, "meshtastic.channel is required")
	}
	if c.Meshtastic.Region == "" {
		errs = append(errs, "meshtastic.region is required")
	}
	if c.Meshtastic.ChannelNumber < 0 || c.Meshtastic.ChannelNumber > 7 {
		errs = append(errs, fmt.Sprintf("meshtastic.channel_number must be 0-7, got %d", c.Meshtastic.ChannelNumber))
	}
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}
