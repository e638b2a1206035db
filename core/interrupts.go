package orchestration

import (
	"context"

	"github.com/C32-SoundTech/SoundTech-DH/core/interruptions"
)

// InterruptPolicy selects how user speech that overlaps agent output is
// handled.
type InterruptPolicy string

const (
	// InterruptAlways cancels the active turn as soon as overlapping user
	// speech is detected.
	InterruptAlways InterruptPolicy = "always"
	// InterruptNever lets the active turn finish. Overlapping speech is
	// still recognized and queued as the next prompt.
	InterruptNever InterruptPolicy = "never"
	// InterruptClassify waits for the overlapping utterance's final
	// transcript and asks a classifier whether the user meant to take the
	// floor. Without a configured handler it behaves like
	// [InterruptAlways].
	InterruptClassify InterruptPolicy = "classify"
)

// InterruptionHandler classifies overlapping user speech and resolves it
// against the session. The interruptions/llm package provides the stock
// implementation.
type InterruptionHandler interface {
	Handle(ctx context.Context, interruption interruptions.Interruption, orchestrator interruptions.Orchestrator) (*interruptions.Interruption, error)
}
