package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
)

// AudioSegment is the synthesized audio for one reply chunk. Seq is
// monotonic within a turn and orders rendering and delivery. Action
// carries a cue that should fire when the segment reaches the renderer,
// keeping gestures ordered relative to speech.
type AudioSegment struct {
	Seq    uint64
	Text   string
	Audio  []byte
	Action *dialogue.Action
}

// segmentBuffer joins the synthesis worker to the rendering worker. Same
// bounded contract as chunkBuffer, but consumed segments are released
// immediately since audio payloads are large.
type segmentBuffer struct {
	mu       sync.Mutex
	segments []AudioSegment
	complete bool
	cleared  bool

	capacity     int
	stallTimeout time.Duration

	updateSignal chan struct{}
	spaceSignal  chan struct{}
}

func newSegmentBuffer(capacity int, stallTimeout time.Duration) *segmentBuffer {
	return &segmentBuffer{
		capacity:     capacity,
		stallTimeout: stallTimeout,
		updateSignal: make(chan struct{}, 1),
		spaceSignal:  make(chan struct{}, 1),
	}
}

// Add appends one segment, blocking while the buffer is full. Returns
// [ErrTurnStalled] when the producer stays suspended past the stall
// timeout and [ErrTurnCancelled] when the buffer was cleared.
func (b *segmentBuffer) Add(ctx context.Context, segment AudioSegment) error {
	timer := time.NewTimer(b.stallTimeout)
	defer timer.Stop()

	for {
		b.mu.Lock()
		if b.cleared {
			b.mu.Unlock()
			return ErrTurnCancelled
		}
		if len(b.segments) < b.capacity {
			b.segments = append(b.segments, segment)
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

// Complete marks the segment sequence as finished. The iterator drains
// what is buffered and then stops.
func (b *segmentBuffer) Complete() {
	b.mu.Lock()
	b.complete = true
	b.mu.Unlock()
	b.signal(b.updateSignal)
}

// Segments yields buffered segments in order until the buffer completes
// or is cleared.
func (b *segmentBuffer) Segments(yield func(AudioSegment) bool) {
	for {
		b.mu.Lock()
		if b.cleared {
			b.mu.Unlock()
			return
		}

		if len(b.segments) > 0 {
			segment := b.segments[0]
			b.segments = b.segments[1:]
			b.mu.Unlock()
			b.signal(b.spaceSignal)
			if !yield(segment) {
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

// Clear stops the iterator, drops buffered segments and unblocks any
// suspended producer.
func (b *segmentBuffer) Clear() {
	b.mu.Lock()
	b.cleared = true
	b.segments = nil
	b.mu.Unlock()
	b.signal(b.updateSignal)
	b.signal(b.spaceSignal)
}

func (b *segmentBuffer) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
