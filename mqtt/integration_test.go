//go:build integration

package mqtt

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Integration tests require a running MQTT broker, 127.0.0.1:1883 by default.
// Override with MESHSEND_TEST_BROKER_HOST / MESHSEND_TEST_BROKER_PORT.
//
// Run with:
//   go test -tags=integration -count=1 -v ./mqtt/...

func integrationOptions(t *testing.T) Options {
	t.Helper()
	host := os.Getenv("MESHSEND_TEST_BROKER_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := DefaultPort
	if v := os.Getenv("MESHSEND_TEST_BROKER_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			t.Fatalf("MESHSEND_TEST_BROKER_PORT: %v", err)
		}
		port = p
	}
	return Options{Server: host, Port: port, ConnectTimeout: 5 * time.Second}
}

func TestIntegration_PublishIsReceived(t *testing.T) {
	opts := integrationOptions(t)
	topic := Topic("ZZ", "IntegrationTest", "!0000beef")

	received := make(chan []byte, 1)
	subOpts := pahomqtt.NewClientOptions().AddBroker(opts.BrokerURL()).SetClientID("meshsend-int-sub")
	sub := pahomqtt.NewClient(subOpts)
	if tok := sub.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(250)
	tok := sub.Subscribe(topic, 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		received <- m.Payload()
	})
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	s := NewSession(opts, nil)
	defer s.Disconnect()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	want := `{"from":48879,"channel":0,"type":"sendtext","payload":"integration"}`
	if err := s.Publish(topic, []byte(want), QoSAtLeastOnce); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if string(got) != want {
			t.Errorf("received %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}
}

func TestIntegration_ConnectClosedPort(t *testing.T) {
	opts := integrationOptions(t)
	opts.Port = 19999

	s := NewSession(opts, nil)
	defer s.Disconnect()

	err := s.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() expected error for closed port")
	}
	if s.Connected() {
		t.Error("Connected() = true after failed connect")
	}
}
