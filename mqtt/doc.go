// Package mqtt publishes Meshtastic downlink messages to an MQTT broker.
//
// It provides:
//   - Topic, which builds "msh/{region}/2/json/{channel}/{node}" topics
//   - Session, a single connect -> publish -> disconnect lifecycle over
//     paho.mqtt.golang with blocking, time-bounded semantics
//
// # Session lifecycle
//
//	idle -> connecting -> connected | failed -> closed
//
// paho acknowledges the connection from its own network goroutine. Session
// turns that acknowledgment into a single-resolution result which Connect
// waits on with a timeout, so callers get a plain blocking API:
//
//	s := mqtt.NewSession(mqtt.Options{Server: "mqtt.meshtastic.org", Port: 1883}, logger)
//	defer s.Disconnect()
//
//	if err := s.Connect(ctx); err != nil {
//	    return err
//	}
//	topic := mqtt.Topic("US", "LongFast", "!12345678")
//	return s.Publish(topic, payload, mqtt.QoSAtLeastOnce)
//
// Disconnect is idempotent and never fails; teardown problems are logged.
package mqtt
