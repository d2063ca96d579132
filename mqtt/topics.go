package mqtt

import "strings"

// Meshtastic topic segments.
const (
	// TopicRoot is the first segment of every Meshtastic MQTT topic.
	TopicRoot = "msh"

	// TopicProtocolVersion is the literal protocol version segment.
	TopicProtocolVersion = "2"

	// TopicFormatJSON selects the JSON downlink instead of protobuf envelopes.
	TopicFormatJSON = "json"
)

// Topic returns the JSON downlink topic for a sender node.
//
// Example: msh/US/2/json/LongFast/!12345678
//
// region, channel and fromID are used verbatim. fromID is the node-ID as the
// user wrote it, not a re-rendered address.
func Topic(region, channel, fromID string) string {
	return strings.Join([]string{TopicRoot, region, TopicProtocolVersion, TopicFormatJSON, channel, fromID}, "/")
}
