package orchestration

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
)

// DialogueTurn is one appended entry of a session's history.
type DialogueTurn = dialogue.Turn

// conversation is a session's bounded, append-only history plus the handle
// of the turn currently in flight. History entries are appended whole,
// never partially, and never rewritten; cancellation at most stops a turn
// from being appended.
type conversation struct {
	mu sync.RWMutex

	turns    []DialogueTurn
	maxTurns int

	activeTurn *activeTurn
}

func newConversation(maxTurns int) *conversation {
	return &conversation{maxTurns: maxTurns}
}

// History returns a copy of the appended turns, oldest first.
func (c *conversation) History() []DialogueTurn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	history := make([]DialogueTurn, len(c.turns))
	copy(history, c.turns)
	return history
}

func (c *conversation) turnCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.turns)
}

// startTurn registers a new in-flight turn. At most one turn may be in
// flight per session; a second start fails until the first finishes.
func (c *conversation) startTurn(turn *activeTurn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeTurn != nil {
		return fmt.Errorf("active turn already set")
	}

	c.activeTurn = turn
	return nil
}

// finishTurn releases the in-flight turn and appends its exchange to
// history. Both entries are appended together so history never holds a
// partially-formed turn. An exchange with no reply text appends nothing;
// the turn simply never happened as far as history is concerned.
func (c *conversation) finishTurn(turn *activeTurn, userPrompt, replyText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeTurn == turn {
		c.activeTurn = nil
	}

	replyText = strings.TrimSpace(replyText)
	if replyText == "" {
		return
	}

	if userPrompt != "" {
		c.turns = append(c.turns, DialogueTurn{
			Role:      dialogue.RoleUser,
			Text:      userPrompt,
			Timestamp: turn.StartedAt,
		})
	}
	c.turns = append(c.turns, DialogueTurn{
		Role:      dialogue.RoleAgent,
		Text:      replyText,
		Timestamp: time.Now(),
	})

	c.trimLocked()
}

// abandonTurn releases the in-flight turn without touching history. Used
// for failed turns.
func (c *conversation) abandonTurn(turn *activeTurn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeTurn == turn {
		c.activeTurn = nil
	}
}

func (c *conversation) currentTurn() *activeTurn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.activeTurn
}

// trimLocked drops the oldest turns past the configured bound. Zero or
// negative means unbounded.
func (c *conversation) trimLocked() {
	if c.maxTurns <= 0 || len(c.turns) <= c.maxTurns {
		return
	}

	trimmed := make([]DialogueTurn, c.maxTurns)
	copy(trimmed, c.turns[len(c.turns)-c.maxTurns:])
	c.turns = trimmed
}
