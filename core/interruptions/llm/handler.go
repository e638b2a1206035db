// Package llm classifies interruptions with a structured-output prompt and
// resolves them against the orchestrator.
package llm

import (
	"context"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/C32-SoundTech/SoundTech-DH/core/interruptions"
	"go.opentelemetry.io/otel/attribute"
)

type LLMWithStructuredPrompt interface {
	PromptWithStructure(ctx context.Context, prompt string, outputSchema any, opts ...dialogue.PromptOption) error
}

type InterruptionHandler struct {
	llm LLMWithStructuredPrompt
}

func NewInterruptionHandler(classificationLLM LLMWithStructuredPrompt) *InterruptionHandler {
	return &InterruptionHandler{llm: classificationLLM}
}

// Handle classifies the interruption and resolves it against the
// orchestrator. The returned interruption carries the classification and is
// marked resolved once acted upon.
func (h *InterruptionHandler) Handle(ctx context.Context, interruption interruptions.Interruption, orchestrator interruptions.Orchestrator) (*interruptions.Interruption, error) {
	ctx, span := tracer.Start(ctx, "handling interruption")
	defer span.End()

	classified, err := classify(ctx, interruption, h.llm, orchestrator.History())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("interruption.type", string(classified.Kind)))

	return respond(*classified, orchestrator)
}
