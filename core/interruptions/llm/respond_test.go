package llm

import (
	"testing"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/C32-SoundTech/SoundTech-DH/core/interruptions"
)

type orchestratorStub struct {
	cancelled bool
	queued    []string
	history   []dialogue.Turn
}

func (o *orchestratorStub) CancelTurn()               { o.cancelled = true }
func (o *orchestratorStub) QueuePrompt(prompt string) { o.queued = append(o.queued, prompt) }
func (o *orchestratorStub) History() []dialogue.Turn  { return o.history }

func TestRespondContinuationMergesLastUserPrompt(t *testing.T) {
	orchestrator := &orchestratorStub{history: []dialogue.Turn{
		{Role: dialogue.RoleUser, Text: "tell me about the weather"},
		{Role: dialogue.RoleAgent, Text: "The weather today"},
	}}

	resolved, err := respond(interruptions.Interruption{
		Source: "in london",
		Kind:   interruptions.KindContinuation,
	}, orchestrator)
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	if !orchestrator.cancelled {
		t.Fatalf("expected the active turn to be cancelled")
	}
	if len(orchestrator.queued) != 1 || orchestrator.queued[0] != "tell me about the weather in london" {
		t.Fatalf("unexpected queued prompts: %v", orchestrator.queued)
	}
	if !resolved.Resolved {
		t.Fatalf("expected interruption to be resolved")
	}
}

func TestRespondContinuationWithoutUserHistoryQueuesSource(t *testing.T) {
	orchestrator := &orchestratorStub{}

	if _, err := respond(interruptions.Interruption{
		Source: "what about tomorrow",
		Kind:   interruptions.KindContinuation,
	}, orchestrator); err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	if len(orchestrator.queued) != 1 || orchestrator.queued[0] != "what about tomorrow" {
		t.Fatalf("unexpected queued prompts: %v", orchestrator.queued)
	}
}

func TestRespondByKind(t *testing.T) {
	for _, tc := range []struct {
		kind         interruptions.Kind
		expectCancel bool
		expectQueued int
	}{
		{kind: interruptions.KindClarification, expectCancel: true, expectQueued: 1},
		{kind: interruptions.KindCancellation, expectCancel: true, expectQueued: 0},
		{kind: interruptions.KindNewPrompt, expectCancel: false, expectQueued: 1},
		{kind: interruptions.KindIgnorable, expectCancel: false, expectQueued: 0},
		{kind: interruptions.KindRepetition, expectCancel: false, expectQueued: 0},
		{kind: interruptions.KindNoise, expectCancel: false, expectQueued: 0},
	} {
		t.Run(string(tc.kind), func(t *testing.T) {
			orchestrator := &orchestratorStub{}

			resolved, err := respond(interruptions.Interruption{
				Source: "some speech",
				Kind:   tc.kind,
			}, orchestrator)
			if err != nil {
				t.Fatalf("respond failed: %v", err)
			}

			if orchestrator.cancelled != tc.expectCancel {
				t.Fatalf("cancelled = %v, expected %v", orchestrator.cancelled, tc.expectCancel)
			}
			if len(orchestrator.queued) != tc.expectQueued {
				t.Fatalf("queued %d prompts, expected %d", len(orchestrator.queued), tc.expectQueued)
			}
			if !resolved.Resolved {
				t.Fatalf("expected interruption to be resolved")
			}
		})
	}
}

func TestRespondUnknownKindErrors(t *testing.T) {
	if _, err := respond(interruptions.Interruption{
		Source: "some speech",
		Kind:   interruptions.Kind("mystery"),
	}, &orchestratorStub{}); err == nil {
		t.Fatalf("expected error for unknown interruption kind")
	}
}
