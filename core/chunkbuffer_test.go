package orchestration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
)

func TestChunkBufferDeliversInOrder(t *testing.T) {
	b := newChunkBuffer(4, time.Second)

	for _, text := range []string{"one", "two", "three"} {
		if err := b.Add(context.Background(), dialogue.ReplyChunk{Text: text}); err != nil {
			t.Fatalf("expected add to succeed, got error: %v", err)
		}
	}
	b.Complete()

	var got []string
	b.Chunks(func(chunk dialogue.ReplyChunk) bool {
		got = append(got, chunk.Text)
		return true
	})

	if len(got) != 3 || got[0] != "one" || got[1] != "two" || got[2] != "three" {
		t.Fatalf("expected chunks in order, got %v", got)
	}
}

func TestChunkBufferSuspendsProducerWhenFull(t *testing.T) {
	b := newChunkBuffer(1, time.Second)

	if err := b.Add(context.Background(), dialogue.ReplyChunk{Text: "one"}); err != nil {
		t.Fatalf("expected first add to succeed, got error: %v", err)
	}

	added := make(chan error, 1)
	go func() { added <- b.Add(context.Background(), dialogue.ReplyChunk{Text: "two"}) }()

	select {
	case err := <-added:
		t.Fatalf("expected add to suspend on a full buffer, returned: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Chunks(func(dialogue.ReplyChunk) bool { return true })
	}()

	select {
	case err := <-added:
		if err != nil {
			t.Fatalf("expected suspended add to succeed after a consume, got error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected suspended add to resume after a consume")
	}

	b.Complete()
	<-done
}

func TestChunkBufferStallFailsTheProducer(t *testing.T) {
	b := newChunkBuffer(1, 50*time.Millisecond)

	if err := b.Add(context.Background(), dialogue.ReplyChunk{Text: "one"}); err != nil {
		t.Fatalf("expected first add to succeed, got error: %v", err)
	}

	err := b.Add(context.Background(), dialogue.ReplyChunk{Text: "two"})
	if !errors.Is(err, ErrTurnStalled) {
		t.Fatalf("expected stalled turn error, got: %v", err)
	}
}

func TestChunkBufferClearStopsBothSides(t *testing.T) {
	b := newChunkBuffer(1, time.Second)

	if err := b.Add(context.Background(), dialogue.ReplyChunk{Text: "one"}); err != nil {
		t.Fatalf("expected first add to succeed, got error: %v", err)
	}

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		b.Chunks(func(dialogue.ReplyChunk) bool { return true })
	}()

	added := make(chan error, 1)
	go func() { added <- b.Add(context.Background(), dialogue.ReplyChunk{Text: "two"}) }()

	time.Sleep(20 * time.Millisecond)
	b.Clear()

	select {
	case <-consumed:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected iterator to stop after clear")
	}

	select {
	case err := <-added:
		if err != nil && !errors.Is(err, ErrTurnCancelled) {
			t.Fatalf("expected cancelled or completed add after clear, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected suspended add to unblock after clear")
	}
}

func TestChunkBufferTextAccumulates(t *testing.T) {
	b := newChunkBuffer(4, time.Second)

	b.Add(context.Background(), dialogue.ReplyChunk{Text: "Hello, "})
	b.Add(context.Background(), dialogue.ReplyChunk{Action: &dialogue.Action{Name: "wave"}})
	b.Add(context.Background(), dialogue.ReplyChunk{Text: "there."})
	b.Complete()

	if got := b.Text(); got != "Hello, there." {
		t.Fatalf("expected accumulated text %q, got %q", "Hello, there.", got)
	}
}
