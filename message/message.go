// Package message builds the JSON payload Meshtastic gateways accept on the
// "msh/<region>/2/json/<channel>/<node>" downlink topics.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"meshsend/node"
)

// TypeSendText is the only message type this package produces.
const TypeSendText = "sendtext"

// MaxChannelIndex is the highest local channel slot on a Meshtastic device.
const MaxChannelIndex = 7

// Message is an outbound text message.
//
// Field order is the serialized key order. To is nil for broadcast so the
// key is left out entirely.
type Message struct {
	From    node.Address  `json:"from"`
	To      *node.Address `json:"to,omitempty"`
	Channel int           `json:"channel"`
	Type    string        `json:"type"`
	Payload string        `json:"payload"`
}

// New returns a sendtext Message. The destination is omitted when to is the
// broadcast address.
func New(text string, from, to node.Address, channel int) (*Message, error) {
	if channel < 0 || channel > MaxChannelIndex {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	m := &Message{
		From:    from,
		Channel: channel,
		Type:    TypeSendText,
		Payload: validUTF8(text),
	}
	if !to.IsBroadcast() {
		dest := to
		m.To = &dest
	}
	return m, nil
}

// Destination returns the addressed node, or node.Broadcast when To is unset.
func (m *Message) Destination() node.Address {
	if m.To == nil {
		return node.Broadcast
	}
	return *m.To
}

// Marshal renders m as compact JSON without HTML escaping.
func (m *Message) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode builds and marshals a sendtext message in one step.
//
//	{"from":305419896,"to":2271560481,"channel":0,"type":"sendtext","payload":"hi"}
func Encode(text string, from, to node.Address, channel int) ([]byte, error) {
	m, err := New(text, from, to, channel)
	if err != nil {
		return nil, err
	}
	return m.Marshal()
}

// Decode parses a payload produced by Encode.
func Decode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	return &m, nil
}

// NormalizeText prepares user input for sending: invalid UTF-8 sequences are
// replaced with U+FFFD and surrounding whitespace is trimmed.
func NormalizeText(text string) string {
	return strings.TrimSpace(validUTF8(text))
}

func validUTF8(s string) string {
	out, err := unicode.UTF8.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "\uFFFD")
	}
	return out
}
