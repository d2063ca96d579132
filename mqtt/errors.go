package mqtt

import (
	"errors"
	"fmt"
)

// Domain-specific errors for broker operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnectionTimeout is returned when the broker does not acknowledge
	// the connection within the connect timeout.
	ErrConnectionTimeout = errors.New("mqtt: connection timeout")

	// ErrConnectionRefused is matched by *ConnectionRefusedError.
	ErrConnectionRefused = errors.New("mqtt: connection refused")

	// ErrTransport wraps low-level network failures while connecting.
	ErrTransport = errors.New("mqtt: transport error")

	// ErrNotConnected is returned when publishing without a successful Connect.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrPublishFailed is matched by *PublishError.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrPublishTimeout is returned (inside a *PublishError) when the broker
	// does not acknowledge a publish within the publish timeout.
	ErrPublishTimeout = errors.New("mqtt: publish acknowledgment timeout")

	// ErrSessionClosed is returned by Connect after Disconnect.
	ErrSessionClosed = errors.New("mqtt: session closed")

	// ErrInvalidQoS is returned for QoS levels above 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)

// CONNACK return codes defined by MQTT 3.1.1.
const (
	CodeAccepted              byte = 0x00
	CodeBadProtocolVersion    byte = 0x01
	CodeIdentifierRejected    byte = 0x02
	CodeServerUnavailable     byte = 0x03
	CodeBadUsernameOrPassword byte = 0x04
	CodeNotAuthorized         byte = 0x05
)

// paho reports these in place of a CONNACK code when no valid CONNACK arrived.
const (
	codeNetworkError      byte = 0xFE
	codeProtocolViolation byte = 0xFF
)

var refusedReasons = map[byte]string{
	CodeBadProtocolVersion:    "bad protocol version",
	CodeIdentifierRejected:    "bad client id",
	CodeServerUnavailable:     "server unavailable",
	CodeBadUsernameOrPassword: "bad username or password",
	CodeNotAuthorized:         "not authorized",
}

// RefusedReason returns the canonical phrase for a CONNACK return code.
func RefusedReason(code byte) string {
	if r, ok := refusedReasons[code]; ok {
		return r
	}
	return fmt.Sprintf("unknown code %d", code)
}

// ConnectionRefusedError reports a broker that answered CONNACK with a
// non-zero return code.
type ConnectionRefusedError struct {
	Code   byte
	Reason string
}

func (e *ConnectionRefusedError) Error() string {
	return fmt.Sprintf("mqtt: connection refused: %s (code %d)", e.Reason, e.Code)
}

// Is makes errors.Is(err, ErrConnectionRefused) true.
func (e *ConnectionRefusedError) Is(target error) bool {
	return target == ErrConnectionRefused
}

// PublishError reports a publish the broker did not acknowledge.
//
// MQTT 3.1.1 PUBACK packets carry no reason code, so Err holds the failure
// reported by the transport (or ErrPublishTimeout).
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("mqtt: publish to %q failed: %v", e.Topic, e.Err)
}

// Is makes errors.Is(err, ErrPublishFailed) true.
func (e *PublishError) Is(target error) bool {
	return target == ErrPublishFailed
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
