package orchestration

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
)

// chunkBuffer joins the dialogue worker to the synthesis worker. It is
// bounded: Add suspends the producer while the buffer is full and fails
// the turn as stalled when the suspension outlasts the stall timeout.
//
// TODO: Optimize memory at some point, it is not a great idea to just append
// to a slice when we already consumed a part of it.
type chunkBuffer struct {
	mu             sync.Mutex
	chunks         []dialogue.ReplyChunk
	chunksConsumed int
	complete       bool
	cleared        bool

	capacity     int
	stallTimeout time.Duration

	updateSignal chan struct{}
	spaceSignal  chan struct{}
}

func newChunkBuffer(capacity int, stallTimeout time.Duration) *chunkBuffer {
	return &chunkBuffer{
		capacity:     capacity,
		stallTimeout: stallTimeout,
		updateSignal: make(chan struct{}, 1),
		spaceSignal:  make(chan struct{}, 1),
	}
}

// Add appends one reply chunk, blocking while the buffer is full. Returns
// [ErrTurnStalled] when the producer stays suspended past the stall
// timeout and [ErrTurnCancelled] when the buffer was cleared.
func (b *chunkBuffer) Add(ctx context.Context, chunk dialogue.ReplyChunk) error {
	timer := time.NewTimer(b.stallTimeout)
	defer timer.Stop()

	for {
		b.mu.Lock()
		if b.cleared {
			b.mu.Unlock()
			return ErrTurnCancelled
		}
		if len(b.chunks)-b.chunksConsumed < b.capacity {
			b.chunks = append(b.chunks, chunk)
			b.mu.Unlock()
			b.signal(b.updateSignal)
			return nil
		}
		b.mu.Unlock()

		select {
		case <-b.spaceSignal:
		case <-timer.C:
			return ErrTurnStalled
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Complete marks the chunk sequence as finished. The iterator drains what
// is buffered and then stops.
func (b *chunkBuffer) Complete() {
	b.mu.Lock()
	b.complete = true
	b.mu.Unlock()
	b.signal(b.updateSignal)
}

// Chunks yields buffered chunks in order until the buffer completes or is
// cleared.
func (b *chunkBuffer) Chunks(yield func(dialogue.ReplyChunk) bool) {
	for {
		b.mu.Lock()
		if b.cleared {
			b.mu.Unlock()
			return
		}

		if b.chunksConsumed < len(b.chunks) {
			chunk := b.chunks[b.chunksConsumed]
			b.chunksConsumed++
			b.mu.Unlock()
			b.signal(b.spaceSignal)
			if !yield(chunk) {
				return
			}
			continue
		}

		if b.complete {
			b.mu.Unlock()
			return
		}

		b.mu.Unlock()
		<-b.updateSignal
	}
}

// Text returns the concatenated text of every chunk added so far,
// consumed or not.
func (b *chunkBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var text strings.Builder
	for _, chunk := range b.chunks {
		text.WriteString(chunk.Text)
	}
	return text.String()
}

// Clear stops the iterator and unblocks any suspended producer.
func (b *chunkBuffer) Clear() {
	b.mu.Lock()
	b.cleared = true
	b.mu.Unlock()
	b.signal(b.updateSignal)
	b.signal(b.spaceSignal)
}

func (b *chunkBuffer) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
