package mqtt

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Connection constants.
const (
	// DefaultPort is the plain-TCP MQTT port.
	DefaultPort = 1883

	// DefaultConnectTimeout bounds the wait for CONNACK.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultPublishTimeout bounds the wait for PUBACK.
	DefaultPublishTimeout = 5 * time.Second

	// QoSAtLeastOnce is the delivery guarantee used for mesh messages.
	QoSAtLeastOnce byte = 1

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// disconnectQuiesce is the time (ms) paho waits for in-flight work on Disconnect.
	disconnectQuiesce = 250

	// protocolVersion311 selects MQTT 3.1.1 in paho.
	protocolVersion311 = 4

	// clientIDPrefix is prepended to generated client identifiers.
	clientIDPrefix = "meshsend-"

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Options configures a Session.
type Options struct {
	Server   string
	Port     int
	Username string
	Password string

	// ClientID identifies the session to the broker. A random
	// "meshsend-xxxxxxxxxxxx" ID is generated when empty.
	ClientID string

	// TLS selects ssl:// instead of tcp://.
	TLS bool

	// ConnectTimeout defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// PublishTimeout defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// BrokerURL returns the paho broker URL, e.g. tcp://mqtt.meshtastic.org:1883.
func (o Options) BrokerURL() string {
	scheme := "tcp"
	if o.TLS {
		scheme = "ssl"
	}
	port := o.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(o.Server, strconv.Itoa(port)))
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = DefaultPublishTimeout
	}
	if o.ClientID == "" {
		o.ClientID = newClientID()
	}
	return o
}

// newClientID returns a short random client identifier. MQTT 3.1.1 brokers
// are only required to accept IDs up to 23 bytes.
func newClientID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return clientIDPrefix + id[:12]
}

// buildClientOptions creates paho options for a one-shot session.
//
// Reconnect and connect-retry are disabled: a failed connect must surface to
// the caller instead of looping in the background.
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(o.BrokerURL())
	opts.SetClientID(o.ClientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetProtocolVersion(protocolVersion311)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(o.ConnectTimeout)
	opts.SetWriteTimeout(o.PublishTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if o.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}
