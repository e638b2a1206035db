package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// activeTurn is the handle of one in-flight dialogue turn. Its ID tags
// every stage product so results arriving after cancellation can be told
// apart from live ones and discarded.
type activeTurn struct {
	ID        string
	Prompt    string
	StartedAt time.Time

	cancelled atomic.Bool
	cancel    context.CancelFunc

	finishOnce sync.Once
	done       chan struct{}
}

func newActiveTurn(prompt string) *activeTurn {
	return &activeTurn{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Cancel requests cooperative cancellation of the turn's workers and
// reports whether this call was the one that cancelled it.
func (t *activeTurn) Cancel() bool {
	if t == nil || !t.cancelled.CompareAndSwap(false, true) {
		return false
	}

	if t.cancel != nil {
		t.cancel()
	}
	return true
}

func (t *activeTurn) IsCancelled() bool {
	if t == nil {
		return false
	}

	return t.cancelled.Load()
}

// awaitDone waits for the turn's workers to finish, up to the grace
// period. Reports false when the grace period elapsed first and the turn
// had to be abandoned.
func (t *activeTurn) awaitDone(grace time.Duration) bool {
	if t == nil {
		return true
	}

	select {
	case <-t.done:
		return true
	case <-time.After(grace):
		return false
	}
}

func (t *activeTurn) finish() {
	t.finishOnce.Do(func() { close(t.done) })
}
