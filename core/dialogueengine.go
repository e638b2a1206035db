package orchestration

import (
	"context"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
)

// dialogueEngine is the dialogue facade used to handle optional client
// wiring. Whether replies are retrieval-grounded is the client's business;
// the orchestrator only sees the chunk stream.
type dialogueEngine struct {
	// client stores the configured dialogue implementation.
	client DialogueClient
}

func newDialogueEngine(client DialogueClient) *dialogueEngine {
	return &dialogueEngine{client: client}
}

func (d *dialogueEngine) set(client DialogueClient) {
	if d != nil {
		d.client = client
	}
}

func (d *dialogueEngine) isConfigured() bool {
	return d != nil && d.client != nil
}

// respond opens one reply stream for a finalized utterance. Invoked at
// most once per turn.
func (d *dialogueEngine) respond(ctx context.Context, prompt string, history []DialogueTurn) dialogue.Stream {
	if !d.isConfigured() {
		return nil
	}

	return d.client.RespondWithStream(ctx, prompt, dialogue.WithHistory(history...))
}

func (d *dialogueEngine) close(ctx context.Context) error {
	if !d.isConfigured() {
		return nil
	}

	switch c := d.client.(type) {
	case interface{ Close(context.Context) error }:
		return c.Close(ctx)
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

// staticStream replays a fixed text as a reply stream. Backs direct
// speech injection, which skips the dialogue stage but still flows
// through the turn pipeline.
type staticStream struct {
	text string
}

func (s *staticStream) Chunks(ctx context.Context) func(func(dialogue.ReplyChunk, error) bool) {
	return func(yield func(dialogue.ReplyChunk, error) bool) {
		if ctx.Err() != nil {
			return
		}
		if !yield(dialogue.ReplyChunk{Text: s.text}, nil) {
			return
		}
		yield(dialogue.ReplyChunk{End: true}, nil)
	}
}
