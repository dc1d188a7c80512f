// Test packet codec

package packet_test

import (
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/obinexus/gonpl/packet"
	"github.com/obinexus/gonpl/parser"
)

func parseMessage(t *testing.T, src string) *parser.Message {
	t.Helper()
	prog, err := parser.ParseProgram([]byte(src), nil)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(prog.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(prog.Messages))
	}
	return prog.Messages[0]
}

func TestRoundTrip(t *testing.T) {
	m := parseMessage(t, `
message "MSG00001" from transmitter to receiver {
    payload "hello world"
    seq 42
}
`)
	p, err := packet.FromMessage(m)
	if err != nil {
		t.Fatalf("FromMessage error: %v", err)
	}
	data, err := packet.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	got, err := packet.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if string(got.Payload.Content) != "hello world" {
		t.Errorf("content: expected %q, got %q", "hello world", got.Payload.Content)
	}
	if got.Header.Sequence != 42 {
		t.Errorf("sequence: expected 42, got %d", got.Header.Sequence)
	}
	if got.Header.Version != packet.CodecVersion {
		t.Errorf("version: expected %d, got %d", packet.CodecVersion, got.Header.Version)
	}
	if got.Verification.RightsTag != "MSG00001" {
		t.Errorf("rights tag: expected MSG00001, got %q", got.Verification.RightsTag)
	}
	// receiver is channel 1 on the wheel of three.
	if got.Header.Channel != 1 || got.Topology.Next != 2 || got.Topology.Prev != 0 {
		t.Errorf("topology: got channel=%d next=%d prev=%d",
			got.Header.Channel, got.Topology.Next, got.Topology.Prev)
	}
}

func TestFromMessageUnresolved(t *testing.T) {
	_, err := packet.FromMessage(&parser.Message{ID: "m", Payload: "x"})
	if err == nil {
		t.Fatal("expected error for unresolved message")
	}
}

func TestFromMessageTooLarge(t *testing.T) {
	m := parseMessage(t, `message "m" from transmitter to receiver {}`)
	m.Payload = strings.Repeat("x", packet.MaxContentSize+1)
	_, err := packet.FromMessage(m)
	if err == nil {
		t.Fatal("expected error for oversized payload")
	}
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not msgpack at all")},
		{"truncated", []byte{0x84, 0xa3}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := packet.Unmarshal(test.data)
			if err == nil {
				t.Fatal("expected error, got none")
			}
		})
	}
}

func TestUnmarshalValidates(t *testing.T) {
	m := parseMessage(t, `message "m" from transmitter to receiver {
    payload "x"
}`)
	p, err := packet.FromMessage(m)
	if err != nil {
		t.Fatalf("FromMessage error: %v", err)
	}

	tests := []struct {
		name    string
		corrupt func(*packet.Packet)
		errText string
	}{
		{"version", func(q *packet.Packet) { q.Header.Version = 3 }, "unsupported codec version 3"},
		{"hash", func(q *packet.Packet) { q.Payload.Content = []byte("y") }, "content hash mismatch"},
		{"hash size", func(q *packet.Packet) { q.Payload.Hash = nil }, "hash is 0 bytes, want 32"},
		{"tag", func(q *packet.Packet) { q.Verification.RightsTag = strings.Repeat("t", 65) },
			"rights tag 65 bytes exceeds max 64"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			q := *p
			test.corrupt(&q)
			// Marshal validates the same bounds...
			_, err := packet.Marshal(&q)
			if err == nil || err.Error() != test.errText {
				t.Errorf("Marshal: expected %q, got %v", test.errText, err)
			}
			// ...and Unmarshal re-checks them on raw wire bytes.
			data, err := msgpack.Marshal(&q)
			if err != nil {
				t.Fatalf("msgpack error: %v", err)
			}
			_, err = packet.Unmarshal(data)
			if err == nil || err.Error() != test.errText {
				t.Errorf("Unmarshal: expected %q, got %v", test.errText, err)
			}
		})
	}
}
