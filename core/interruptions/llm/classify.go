package llm

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/C32-SoundTech/SoundTech-DH/core/interruptions"
)

//go:embed classifierInstructions.tmpl
var interruptionClassifierInstructions string

type Classification struct {
	Type string `json:"type" jsonschema:"title=Type,description=The type of interruption,enum=continuation,enum=clarification,enum=cancellation,enum=ignorable,enum=repetition,enum=noise,enum=new prompt"`
}

func classify(ctx context.Context, interruption interruptions.Interruption, llm LLMWithStructuredPrompt, history []dialogue.Turn) (*interruptions.Interruption, error) {
	resp := Classification{}
	if err := llm.PromptWithStructure(ctx, interruption.Source,
		&resp,
		dialogue.WithInstructions(interruptionClassifierInstructions),
		dialogue.WithHistory(history...),
	); err != nil {
		return &interruption, err
	}

	kind, err := toInterruptionKind(resp.Type)
	if err != nil {
		return nil, err
	}
	interruption.Kind = kind
	return &interruption, nil
}

func toInterruptionKind(classification string) (interruptions.Kind, error) {
	switch classification {
	case "continuation":
		return interruptions.KindContinuation, nil
	case "clarification":
		return interruptions.KindClarification, nil
	case "cancellation":
		return interruptions.KindCancellation, nil
	case "ignorable":
		return interruptions.KindIgnorable, nil
	case "repetition":
		return interruptions.KindRepetition, nil
	case "noise":
		return interruptions.KindNoise, nil
	case "new prompt":
		return interruptions.KindNewPrompt, nil
	default:
		return "", fmt.Errorf("unknown interruption type: %s", classification)
	}
}
