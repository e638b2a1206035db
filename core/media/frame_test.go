package media

import (
	"bytes"
	"testing"
	"time"
)

func TestOutboundFrameSurvivesWireRoundTrip(t *testing.T) {
	frame := OutboundFrame{
		TurnID:    "turn-1",
		Kind:      FrameKindVideo,
		Seq:       42,
		Timestamp: time.Unix(0, 1719000000000000000),
		Payload:   []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}

	wire, err := frame.MarshalBinary()
	if err != nil {
		t.Fatalf("expected marshal to succeed, got %v", err)
	}

	decoded := OutboundFrame{}
	if err := decoded.UnmarshalBinary(wire); err != nil {
		t.Fatalf("expected unmarshal to succeed, got %v", err)
	}

	if decoded.TurnID != frame.TurnID {
		t.Fatalf("expected turn id %q, got %q", frame.TurnID, decoded.TurnID)
	}
	if decoded.Kind != frame.Kind || decoded.Seq != frame.Seq {
		t.Fatalf("expected kind/seq %v/%d, got %v/%d", frame.Kind, frame.Seq, decoded.Kind, decoded.Seq)
	}
	if !decoded.Timestamp.Equal(frame.Timestamp) {
		t.Fatalf("expected timestamp %v, got %v", frame.Timestamp, decoded.Timestamp)
	}
	if !bytes.Equal(decoded.Payload, frame.Payload) {
		t.Fatalf("expected payload %v, got %v", frame.Payload, decoded.Payload)
	}
}

func TestUnmarshalRejectsTruncatedFrame(t *testing.T) {
	frame := OutboundFrame{TurnID: "turn-1", Kind: FrameKindAudio, Payload: []byte{1, 2, 3}}
	wire, err := frame.MarshalBinary()
	if err != nil {
		t.Fatalf("expected marshal to succeed, got %v", err)
	}

	decoded := OutboundFrame{}
	if err := decoded.UnmarshalBinary(wire[:len(wire)-2]); err == nil {
		t.Fatalf("expected truncated frame to fail unmarshal")
	}
}

func TestEncodingInfoByteRate(t *testing.T) {
	info := GetDefaultEncodingInfo()
	if info.IsZero() {
		t.Fatalf("expected default encoding info to be usable")
	}
	if got := info.BytesPerSecond(); got != 32000 {
		t.Fatalf("expected 32000 bytes per second for default encoding, got %d", got)
	}
}
