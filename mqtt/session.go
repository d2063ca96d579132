package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// brokerClient is the subset of pahomqtt.Client a Session drives.
type brokerClient interface {
	Connect() pahomqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

func newPahoClient(opts *pahomqtt.ClientOptions) brokerClient {
	return pahomqtt.NewClient(opts)
}

// Session is one connect -> publish -> disconnect lifecycle against a broker.
//
// Thread Safety:
//   - State, Connected and Err may be called from any goroutine.
//   - Connect and Publish are meant to be called sequentially by one caller.
type Session struct {
	opts      Options
	log       Logger
	newClient func(*pahomqtt.ClientOptions) brokerClient

	mu      sync.Mutex
	client  brokerClient
	state   State
	lastErr error
}

// NewSession returns an idle Session. A nil logger discards log output.
func NewSession(opts Options, log Logger) *Session {
	if log == nil {
		log = nopLogger{}
	}
	return &Session{
		opts:      opts.withDefaults(),
		log:       log,
		newClient: newPahoClient,
	}
}

// Options returns the effective options, defaults applied.
func (s *Session) Options() Options {
	return s.opts
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the broker has acknowledged the connection and
// it has not been lost or closed since.
func (s *Session) Connected() bool {
	return s.State() == StateConnected
}

// Err returns the error that moved the session to StateFailed, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// connAck resolves exactly once with the outcome of a connect attempt.
type connAck struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newConnAck() *connAck {
	return &connAck{done: make(chan struct{})}
}

func (a *connAck) resolve(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

// Connect opens the broker connection and blocks until the broker accepts
// it, refuses it, or the connect timeout elapses.
//
// Errors:
//   - ErrConnectionTimeout when no CONNACK arrives in time
//   - *ConnectionRefusedError (matches ErrConnectionRefused) for CONNACK codes 1-5 and unknown codes
//   - ErrTransport wrapping dial/TLS/protocol failures
//   - ctx.Err() when ctx is cancelled while waiting
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateConnected:
		s.mu.Unlock()
		return nil
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	case StateConnecting:
		s.mu.Unlock()
		return fmt.Errorf("mqtt: connect already in progress")
	}
	stale := s.client
	s.client = nil
	s.state = StateConnecting
	s.lastErr = nil
	s.mu.Unlock()

	if stale != nil {
		s.teardown(stale)
	}

	ack := newConnAck()
	opts := buildClientOptions(s.opts)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		ack.resolve(nil)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		s.handleConnectionLost(err)
	})

	client := s.newClient(opts)
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	s.log.Debug("connecting to MQTT broker",
		"broker", s.opts.BrokerURL(),
		"client_id", s.opts.ClientID,
		"timeout", s.opts.ConnectTimeout,
	)

	token := client.Connect()
	go func() {
		<-token.Done()
		ack.resolve(connectError(token))
	}()

	timer := time.NewTimer(s.opts.ConnectTimeout)
	defer timer.Stop()

	var err error
	select {
	case <-ack.done:
		err = ack.err
	case <-timer.C:
		err = fmt.Errorf("%w after %v", ErrConnectionTimeout, s.opts.ConnectTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		// Disconnect ran while we were waiting.
		if err == nil {
			err = ErrSessionClosed
		}
		return err
	}
	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		s.log.Error("failed to connect to MQTT broker", "broker", s.opts.BrokerURL(), "error", err)
		return err
	}
	s.state = StateConnected
	s.log.Info("connected to MQTT broker", "broker", s.opts.BrokerURL())
	return nil
}

// connectError maps a completed connect token to the session error taxonomy.
func connectError(token pahomqtt.Token) error {
	err := token.Error()
	if err == nil {
		return nil
	}
	code := codeNetworkError
	if rc, ok := token.(interface{ ReturnCode() byte }); ok {
		code = rc.ReturnCode()
	}
	switch {
	case code == CodeAccepted, code == codeNetworkError, code == codeProtocolViolation:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	default:
		return &ConnectionRefusedError{Code: code, Reason: RefusedReason(code)}
	}
}

func (s *Session) handleConnectionLost(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return
	}
	s.state = StateFailed
	s.lastErr = fmt.Errorf("%w: connection lost: %w", ErrTransport, err)
	s.log.Warn("MQTT connection lost", "error", err)
}

// Publish sends payload to topic and waits for the broker acknowledgment
// (for QoS 1 and 2) bounded by the publish timeout. Messages are never
// retained.
//
// ErrNotConnected is returned without touching the network unless Connect
// has succeeded.
func (s *Session) Publish(topic string, payload []byte, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}

	s.mu.Lock()
	client := s.client
	connected := s.state == StateConnected
	s.mu.Unlock()
	if !connected || client == nil {
		return ErrNotConnected
	}

	s.log.Debug("publishing message", "topic", topic, "qos", qos, "bytes", len(payload))

	token := client.Publish(topic, qos, false, payload)
	timer := time.NewTimer(s.opts.PublishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		err := &PublishError{Topic: topic, Err: fmt.Errorf("%w after %v", ErrPublishTimeout, s.opts.PublishTimeout)}
		s.log.Error("failed to publish message", "topic", topic, "error", err)
		return err
	}
	if err := token.Error(); err != nil {
		perr := &PublishError{Topic: topic, Err: err}
		s.log.Error("failed to publish message", "topic", topic, "error", err)
		return perr
	}

	s.log.Info("message published", "topic", topic)
	return nil
}

// Disconnect stops the network goroutines, closes the transport and marks
// the session closed. It is idempotent and never returns an error; problems
// during teardown are logged.
func (s *Session) Disconnect() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	wasClosed := s.state == StateClosed
	s.state = StateClosed
	s.mu.Unlock()

	if client == nil {
		if !wasClosed {
			s.log.Debug("MQTT session closed before connecting")
		}
		return
	}
	s.teardown(client)
	s.log.Debug("disconnected from MQTT broker")
}

func (s *Session) teardown(client brokerClient) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("error during MQTT disconnect", "panic", r)
		}
	}()
	client.Disconnect(disconnectQuiesce)
}
