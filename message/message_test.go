package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"meshsend/node"
)

func TestEncodeUnicast(t *testing.T) {
	got, err := Encode("Hello", 0x12345678, 0x87654321, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := `{"from":305419896,"to":2271560481,"channel":0,"type":"sendtext","payload":"Hello"}`
	if string(got) != want {
		t.Errorf("Encode() = %s, want %s", got, want)
	}
}

func TestEncodeBroadcastOmitsTo(t *testing.T) {
	got, err := Encode("Broadcast message", 0x12345678, node.Broadcast, 2)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := `{"from":305419896,"channel":2,"type":"sendtext","payload":"Broadcast message"}`
	if string(got) != want {
		t.Errorf("Encode() = %s, want %s", got, want)
	}

	var raw map[string]any
	if err := json.Unmarshal(got, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := raw["to"]; ok {
		t.Error("broadcast payload contains \"to\"")
	}
}

func TestEncodeToPresentForEveryNonBroadcast(t *testing.T) {
	for _, to := range []node.Address{0, 1, 0x12345678, 0xfffffffe} {
		data, err := Encode("x", 1, to, 0)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		v, ok := raw["to"]
		if !ok {
			t.Errorf("to=%d: key missing in %s", to, data)
			continue
		}
		if uint32(v.(float64)) != uint32(to) {
			t.Errorf("to = %v, want %d", v, to)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, _ := Encode("same", 7, 9, 1)
	b, _ := Encode("same", 7, 9, 1)
	if string(a) != string(b) {
		t.Errorf("Encode() not deterministic: %s vs %s", a, b)
	}
}

func TestEncodeInvalidChannel(t *testing.T) {
	for _, ch := range []int{-1, 8, 100} {
		_, err := Encode("x", 1, 2, ch)
		if !errors.Is(err, ErrInvalidChannel) {
			t.Errorf("Encode(channel=%d) error = %v, want ErrInvalidChannel", ch, err)
		}
	}
}

func TestEncodeNoHTMLEscaping(t *testing.T) {
	got, err := Encode("a<b> & c", 1, node.Broadcast, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(got), `"payload":"a<b> & c"`) {
		t.Errorf("Encode() = %s", got)
	}
}

func TestRoundTrip(t *testing.T) {
	texts := []string{
		"Hello Meshtastic",
		"Hello! @#$% World",
		`quotes " and \ backslash`,
		"emoji 📡 and ümlauts",
		"line1\nline2",
	}
	for _, text := range texts {
		data, err := Encode(text, 0x12345678, 0x87654321, 3)
		if err != nil {
			t.Fatalf("Encode(%q) error = %v", text, err)
		}
		m, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if m.Payload != text {
			t.Errorf("Payload = %q, want %q", m.Payload, text)
		}
		if m.From != 0x12345678 || m.Destination() != 0x87654321 || m.Channel != 3 || m.Type != TypeSendText {
			t.Errorf("decoded message mismatch: %+v", m)
		}
	}
}

func TestDestinationBroadcast(t *testing.T) {
	m, err := New("x", 1, node.Broadcast, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.To != nil {
		t.Errorf("To = %v, want nil", *m.To)
	}
	if m.Destination() != node.Broadcast {
		t.Errorf("Destination() = %v, want broadcast", m.Destination())
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "Hello World"},
		{"  Hello World  ", "Hello World"},
		{"\tHello World\n", "Hello World"},
		{"Hello! @#$% World", "Hello! @#$% World"},
		{"a\xffb", "a�b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeReplacesInvalidUTF8(t *testing.T) {
	data, err := Encode("bad\xfe", 1, 2, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Payload != "bad�" {
		t.Errorf("Payload = %q", m.Payload)
	}
}

func ExampleEncode() {
	data, _ := Encode("Hello, mesh!", node.MustParseAddress("!12345678"), node.Broadcast, 0)
	fmt.Println(string(data))
	// Output: {"from":305419896,"channel":0,"type":"sendtext","payload":"Hello, mesh!"}
}
