package dialogue

import "context"

// Stream is a lazily produced, ordered reply chunk sequence for one turn.
type Stream interface {
	// Chunks yields reply chunks in emission order. The iterator stops on
	// the first chunk with End set, on context cancellation, or on error.
	Chunks(context.Context) func(func(ReplyChunk, error) bool)
}
