// Package client sends one text message to a Meshtastic mesh over MQTT.
//
// Send resolves the sender and recipient node IDs, encodes the sendtext
// payload, builds the downlink topic and runs a single broker session:
// connect, publish, disconnect. The session is always disconnected, also
// on failure.
package client

import (
	"context"
	"errors"
	"fmt"

	"meshsend/config"
	"meshsend/message"
	"meshsend/mqtt"
	"meshsend/node"
	"meshsend/nodemap"
	"meshsend/storage"
)

// ErrEmptyMessage is returned when the text is empty after trimming.
var ErrEmptyMessage = errors.New("client: message text is empty")

// ErrMissingFromID is returned when no sender node ID is configured.
var ErrMissingFromID = errors.New("client: sender node ID is required")

// Logger is the logging capability the client needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Session is the broker lifecycle Send drives. *mqtt.Session implements it.
type Session interface {
	Connect(ctx context.Context) error
	Publish(topic string, payload []byte, qos byte) error
	Disconnect()
}

// Recorder stores send attempts. *storage.Store implements it.
type Recorder interface {
	Add(r storage.Record) (int64, error)
}

// Result describes a published message.
type Result struct {
	Topic   string
	Payload []byte
	From    node.Address
	To      node.Address
	// ToID is the recipient as given, after alias resolution.
	ToID    string
	Channel string
}

// Client sends messages with a fixed configuration.
type Client struct {
	cfg        *config.Config
	log        Logger
	nodes      *nodemap.Map
	history    Recorder
	newSession func(mqtt.Options, mqtt.Logger) Session
}

// Option configures a Client.
type Option func(*Client)

// WithHistory records every send attempt in r.
func WithHistory(r Recorder) Option {
	return func(c *Client) { c.history = r }
}

// WithSessionFactory replaces the MQTT session constructor.
func WithSessionFactory(f func(mqtt.Options, mqtt.Logger) Session) Option {
	return func(c *Client) { c.newSession = f }
}

// New returns a Client for cfg. Node aliases come from cfg.Nodes.
// A nil logger discards log output.
func New(cfg *config.Config, log Logger, opts ...Option) *Client {
	if log == nil {
		log = nopLogger{}
	}
	c := &Client{
		cfg:   cfg,
		log:   log,
		nodes: nodemap.FromConfig(cfg.Nodes),
		newSession: func(o mqtt.Options, l mqtt.Logger) Session {
			return mqtt.NewSession(o, l)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Nodes returns the alias map.
func (c *Client) Nodes() *nodemap.Map {
	return c.nodes
}

// Prepare resolves addressing and encodes text without touching the network.
func (c *Client) Prepare(text string) (*Result, error) {
	text = message.NormalizeText(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	m := c.cfg.Meshtastic
	fromID := c.nodes.Resolve(m.FromID)
	if fromID == "" {
		return nil, ErrMissingFromID
	}
	from, err := node.ParseAddress(fromID)
	if err != nil {
		return nil, fmt.Errorf("from_id: %w", err)
	}
	toID := c.nodes.Resolve(m.ToID)
	if toID == "" {
		toID = node.BroadcastID
	}
	to, err := node.ParseAddress(toID)
	if err != nil {
		return nil, fmt.Errorf("to_id: %w", err)
	}

	payload, err := message.Encode(text, from, to, m.ChannelNumber)
	if err != nil {
		return nil, err
	}

	return &Result{
		// The topic carries the sender ID as configured, not re-formatted.
		Topic:   mqtt.Topic(m.Region, m.Channel, fromID),
		Payload: payload,
		From:    from,
		To:      to,
		ToID:    toID,
		Channel: m.Channel,
	}, nil
}

// Send publishes text once and disconnects.
//
// Validation errors (ErrEmptyMessage, ErrMissingFromID, node.ErrInvalidAddress,
// node.ErrAddressRange, message.ErrInvalidChannel) are returned before any
// connection is attempted. Broker errors come from the mqtt package.
func (c *Client) Send(ctx context.Context, text string) (*Result, error) {
	res, err := c.Prepare(text)
	if err != nil {
		return nil, err
	}

	sess := c.newSession(sessionOptions(c.cfg.MQTT), c.log)
	defer sess.Disconnect()

	c.log.Debug("sending message",
		"topic", res.Topic,
		"from", res.From.String(),
		"to", res.To.String(),
		"channel_number", c.cfg.Meshtastic.ChannelNumber,
	)

	err = sess.Connect(ctx)
	if err == nil {
		err = sess.Publish(res.Topic, res.Payload, mqtt.QoSAtLeastOnce)
	}
	c.record(res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) record(res *Result, sendErr error) {
	if c.history == nil {
		return
	}
	r := storage.Record{
		Topic:   res.Topic,
		FromID:  res.From.String(),
		ToID:    res.ToID,
		Channel: res.Channel,
		Payload: string(res.Payload),
		Status:  storage.StatusSent,
	}
	if sendErr != nil {
		r.Status = storage.StatusFailed
		r.Error = sendErr.Error()
	}
	if _, err := c.history.Add(r); err != nil {
		c.log.Warn("failed to record message history", "error", err)
	}
}

func sessionOptions(m config.MQTTConfig) mqtt.Options {
	return mqtt.Options{
		Server:         m.Server,
		Port:           m.Port,
		Username:       m.Username,
		Password:       m.Password,
		ClientID:       m.ClientID,
		TLS:            m.TLS,
		ConnectTimeout: m.ConnectTimeout,
		PublishTimeout: m.PublishTimeout,
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
