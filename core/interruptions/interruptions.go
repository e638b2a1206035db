// Package interruptions decides what to do when the user speaks over the
// agent. Handlers classify the overlapping speech and resolve it against the
// orchestrator, which keeps the authority to cancel turns and queue prompts.
package interruptions

import "github.com/C32-SoundTech/SoundTech-DH/core/dialogue"

type Kind string

const (
	// KindContinuation extends the prompt the agent is currently answering.
	KindContinuation Kind = "continuation"
	// KindClarification narrows or corrects the prompt being answered.
	KindClarification Kind = "clarification"
	// KindCancellation asks the agent to stop talking.
	KindCancellation Kind = "cancellation"
	// KindNewPrompt is an unrelated prompt that should be answered next.
	KindNewPrompt Kind = "new prompt"
	// KindRepetition repeats what the user already said.
	KindRepetition Kind = "repetition"
	// KindIgnorable is backchannel speech that needs no reaction.
	KindIgnorable Kind = "ignorable"
	// KindNoise is non-speech picked up by recognition.
	KindNoise Kind = "noise"
)

// Interruption is user speech that arrived while the agent was speaking.
type Interruption struct {
	// Source is the transcript of the overlapping speech.
	Source string
	// Kind is filled in by classification.
	Kind Kind
	// Resolved marks that a handler has acted on the interruption.
	Resolved bool
}

// Orchestrator exposes the actions a handler may take while resolving an
// interruption. History is never rewritten, handlers work by cancelling the
// active turn and queueing follow-up prompts.
type Orchestrator interface {
	// CancelTurn stops the in-flight turn and any speech it is producing.
	CancelTurn()
	// QueuePrompt schedules a prompt to be answered once the current turn is
	// out of the way.
	QueuePrompt(prompt string)
	// History returns the conversation so far, oldest turn first.
	History() []dialogue.Turn
}
