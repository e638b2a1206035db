package orchestration

import (
	"context"
	"testing"
)

func TestStateMachineHappyPath(t *testing.T) {
	machine := newPipelineStateMachine(nil)

	transitions := []string{
		transitionAudioDetected,
		transitionUtteranceBoundary,
		transitionFinalTranscript,
		transitionFirstReplyChunk,
		transitionFirstAudioSegment,
		transitionFramesReady,
		transitionTurnComplete,
	}
	expected := []PipelineState{
		StateListening,
		StateRecognizing,
		StateThinking,
		StateSynthesizing,
		StateRendering,
		StateSpeaking,
		StateIdle,
	}

	for i, transition := range transitions {
		if err := machine.fire(context.Background(), transition); err != nil {
			t.Fatalf("expected %s to apply from %s, got error: %v", transition, machine.state(), err)
		}
		if machine.state() != expected[i] {
			t.Fatalf("expected state %s after %s, got %s", expected[i], transition, machine.state())
		}
	}
}

func TestStateMachineBargeInFromActiveStates(t *testing.T) {
	for _, active := range activeStates {
		machine := newPipelineStateMachine(nil)
		machine.machine.SetState(active)

		if err := machine.fire(context.Background(), transitionBargeIn); err != nil {
			t.Fatalf("expected barge-in to apply from %s, got error: %v", active, err)
		}
		if machine.state() != StateInterrupted {
			t.Fatalf("expected interrupted after barge-in from %s, got %s", active, machine.state())
		}

		if err := machine.fire(context.Background(), transitionCleanupComplete); err != nil {
			t.Fatalf("expected cleanup to apply, got error: %v", err)
		}
		if machine.state() != StateIdle {
			t.Fatalf("expected idle after cleanup, got %s", machine.state())
		}
	}
}

func TestStateMachineBargeInFromIdleRejected(t *testing.T) {
	machine := newPipelineStateMachine(nil)

	if machine.fireIfAble(context.Background(), transitionBargeIn) {
		t.Fatalf("expected barge-in to be rejected from idle")
	}
	if machine.state() != StateIdle {
		t.Fatalf("expected state to stay idle, got %s", machine.state())
	}
}

func TestStateMachineTurnFailureRecovers(t *testing.T) {
	machine := newPipelineStateMachine(nil)
	machine.machine.SetState(string(StateThinking))

	if err := machine.fire(context.Background(), transitionTurnFailed); err != nil {
		t.Fatalf("expected turn failure to apply, got error: %v", err)
	}
	if machine.state() != StateFailed {
		t.Fatalf("expected failed, got %s", machine.state())
	}

	if err := machine.fire(context.Background(), transitionRecovered); err != nil {
		t.Fatalf("expected recovery to apply, got error: %v", err)
	}
	if machine.state() != StateIdle {
		t.Fatalf("expected idle after recovery, got %s", machine.state())
	}
}

func TestStateMachineTeardownClosesForGood(t *testing.T) {
	machine := newPipelineStateMachine(nil)
	machine.machine.SetState(string(StateFailed))

	if err := machine.fire(context.Background(), transitionTeardown); err != nil {
		t.Fatalf("expected teardown to apply, got error: %v", err)
	}
	if machine.state() != StateClosed {
		t.Fatalf("expected closed, got %s", machine.state())
	}

	if machine.fireIfAble(context.Background(), transitionAudioDetected) {
		t.Fatalf("expected no transitions out of closed")
	}
}

func TestStateMachineReportsTransitions(t *testing.T) {
	var from, to PipelineState
	machine := newPipelineStateMachine(func(f, t PipelineState) { from, to = f, t })

	if err := machine.fire(context.Background(), transitionAudioDetected); err != nil {
		t.Fatalf("expected audio-detected to apply, got error: %v", err)
	}

	if from != StateIdle || to != StateListening {
		t.Fatalf("expected transition idle -> listening, got %s -> %s", from, to)
	}
}
