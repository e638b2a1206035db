package orchestration

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestSegmentBufferDeliversInOrder(t *testing.T) {
	b := newSegmentBuffer(4, time.Second)

	for seq := uint64(1); seq <= 3; seq++ {
		segment := AudioSegment{Seq: seq, Audio: []byte{byte(seq)}}
		if err := b.Add(context.Background(), segment); err != nil {
			t.Fatalf("expected add to succeed, got error: %v", err)
		}
	}
	b.Complete()

	var got []AudioSegment
	b.Segments(func(segment AudioSegment) bool {
		got = append(got, segment)
		return true
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}
	for i, segment := range got {
		if segment.Seq != uint64(i+1) || !bytes.Equal(segment.Audio, []byte{byte(i + 1)}) {
			t.Fatalf("expected segment %d in order, got seq %d", i+1, segment.Seq)
		}
	}
}

func TestSegmentBufferStallFailsTheProducer(t *testing.T) {
	b := newSegmentBuffer(1, 50*time.Millisecond)

	if err := b.Add(context.Background(), AudioSegment{Seq: 1}); err != nil {
		t.Fatalf("expected first add to succeed, got error: %v", err)
	}

	err := b.Add(context.Background(), AudioSegment{Seq: 2})
	if !errors.Is(err, ErrTurnStalled) {
		t.Fatalf("expected stalled turn error, got: %v", err)
	}
}

func TestSegmentBufferClearDropsBufferedSegments(t *testing.T) {
	b := newSegmentBuffer(4, time.Second)

	b.Add(context.Background(), AudioSegment{Seq: 1})
	b.Add(context.Background(), AudioSegment{Seq: 2})
	b.Clear()

	delivered := 0
	b.Segments(func(AudioSegment) bool {
		delivered++
		return true
	})

	if delivered != 0 {
		t.Fatalf("expected no segments after clear, got %d", delivered)
	}

	if err := b.Add(context.Background(), AudioSegment{Seq: 3}); !errors.Is(err, ErrTurnCancelled) {
		t.Fatalf("expected cancelled add after clear, got: %v", err)
	}
}
