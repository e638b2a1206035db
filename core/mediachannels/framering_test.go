package mediachannels

import (
	"bytes"
	"testing"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
)

func testFrame(seq uint64, payload []byte) media.OutboundFrame {
	return media.OutboundFrame{
		TurnID:    "turn-1",
		Kind:      media.FrameKindAudio,
		Seq:       seq,
		Timestamp: time.Unix(0, 1724668800000000000),
		Payload:   payload,
	}
}

func TestFrameRingRoundtrip(t *testing.T) {
	ring := NewFrameRing(1024, OverflowDropOldest)

	if !ring.IsEmpty() {
		t.Fatalf("expected a fresh ring to be empty")
	}

	original := testFrame(7, []byte{1, 2, 3, 4, 5})
	if err := ring.Enqueue(original); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if ring.IsEmpty() {
		t.Fatalf("ring empty after enqueue")
	}

	frame, ok := ring.Dequeue()
	if !ok {
		t.Fatalf("dequeue failed")
	}
	if frame.Seq != original.Seq || frame.TurnID != original.TurnID || frame.Kind != original.Kind {
		t.Fatalf("dequeued frame header mismatch: %+v", frame)
	}
	if !bytes.Equal(frame.Payload, original.Payload) {
		t.Fatalf("dequeued payload mismatch: %v", frame.Payload)
	}

	if _, ok := ring.Dequeue(); ok {
		t.Fatalf("expected empty ring after dequeue")
	}
}

func TestFrameRingKeepsOrder(t *testing.T) {
	ring := NewFrameRing(1024, OverflowDropOldest)

	for seq := uint64(0); seq < 3; seq++ {
		if err := ring.Enqueue(testFrame(seq, []byte{byte(seq)})); err != nil {
			t.Fatalf("enqueue %d failed: %v", seq, err)
		}
	}

	for seq := uint64(0); seq < 3; seq++ {
		frame, ok := ring.Dequeue()
		if !ok {
			t.Fatalf("dequeue %d failed", seq)
		}
		if frame.Seq != seq {
			t.Fatalf("expected seq %d, got %d", seq, frame.Seq)
		}
	}
}

func TestFrameRingDropsOldestWhenFull(t *testing.T) {
	payload := make([]byte, 32)
	// size prefix + frame header + turn id + payload
	frameSize := 4 + 23 + len("turn-1") + len(payload)
	ring := NewFrameRing(frameSize*2, OverflowDropOldest)

	for seq := uint64(0); seq < 4; seq++ {
		if err := ring.Enqueue(testFrame(seq, payload)); err != nil {
			t.Fatalf("enqueue %d failed: %v", seq, err)
		}
	}

	frame, ok := ring.Dequeue()
	if !ok {
		t.Fatalf("dequeue failed")
	}
	if frame.Seq <= 1 {
		t.Fatalf("expected oldest frames dropped, got seq %d", frame.Seq)
	}
}

func TestFrameRingRejectsWhenConfigured(t *testing.T) {
	payload := make([]byte, 32)
	frameSize := 4 + 23 + len("turn-1") + len(payload)
	ring := NewFrameRing(frameSize, OverflowReject)

	if err := ring.Enqueue(testFrame(0, payload)); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if err := ring.Enqueue(testFrame(1, payload)); err != ErrBackpressure {
		t.Fatalf("expected ErrBackpressure, got %v", err)
	}

	// the buffered frame must survive the rejected write
	frame, ok := ring.Dequeue()
	if !ok || frame.Seq != 0 {
		t.Fatalf("buffered frame lost after rejected write")
	}
}

func TestFrameRingClear(t *testing.T) {
	ring := NewFrameRing(1024, OverflowDropOldest)

	for seq := uint64(0); seq < 3; seq++ {
		if err := ring.Enqueue(testFrame(seq, []byte{byte(seq)})); err != nil {
			t.Fatalf("enqueue %d failed: %v", seq, err)
		}
	}

	ring.Clear()

	if !ring.IsEmpty() {
		t.Fatalf("expected ring to be empty after clear")
	}
	if _, ok := ring.Dequeue(); ok {
		t.Fatalf("dequeue succeeded on cleared ring")
	}
}

func TestFrameRingSignalsUpdates(t *testing.T) {
	ring := NewFrameRing(1024, OverflowDropOldest)

	if err := ring.Enqueue(testFrame(0, []byte{1})); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case <-ring.Updates():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for update signal")
	}
}
