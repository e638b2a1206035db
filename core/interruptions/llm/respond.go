package llm

import (
	"fmt"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/C32-SoundTech/SoundTech-DH/core/interruptions"
)

// respond acts on a classified interruption. History stays append-only, a
// continuation re-queues the merged prompt instead of rewriting past turns.
func respond(interruption interruptions.Interruption, o interruptions.Orchestrator) (*interruptions.Interruption, error) {
	switch interruption.Kind {
	case interruptions.KindContinuation:
		o.CancelTurn()

		var lastUserTurn *dialogue.Turn
		history := o.History()
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Role == dialogue.RoleUser {
				lastUserTurn = &history[i]
				break
			}
		}

		if lastUserTurn != nil {
			o.QueuePrompt(lastUserTurn.Text + " " + interruption.Source)
		} else {
			o.QueuePrompt(interruption.Source)
		}
		interruption.Resolved = true
		return &interruption, nil

	case interruptions.KindClarification:
		o.CancelTurn()
		o.QueuePrompt(interruption.Source)
		interruption.Resolved = true
		return &interruption, nil

	case interruptions.KindCancellation:
		o.CancelTurn()
		interruption.Resolved = true
		return &interruption, nil

	case interruptions.KindIgnorable,
		interruptions.KindRepetition,
		interruptions.KindNoise:
		interruption.Resolved = true
		return &interruption, nil

	case interruptions.KindNewPrompt:
		o.QueuePrompt(interruption.Source)
		interruption.Resolved = true
		return &interruption, nil

	default:
		return nil, fmt.Errorf("unknown interruption type: %s", interruption.Kind)
	}
}
