package orchestration

import (
	"context"

	"github.com/looplab/fsm"
)

// PipelineState is the per-session pipeline position. Idle is the initial
// state, Closed the terminal one.
type PipelineState string

const (
	StateIdle         PipelineState = "idle"
	StateListening    PipelineState = "listening"
	StateRecognizing  PipelineState = "recognizing"
	StateThinking     PipelineState = "thinking"
	StateSynthesizing PipelineState = "synthesizing"
	StateRendering    PipelineState = "rendering"
	StateSpeaking     PipelineState = "speaking"
	StateInterrupted  PipelineState = "interrupted"
	StateFailed       PipelineState = "failed"
	StateClosed       PipelineState = "closed"
)

const (
	transitionAudioDetected      = "audio-detected"
	transitionUtteranceBoundary  = "utterance-boundary"
	transitionFinalTranscript    = "final-transcript"
	transitionRecognitionAborted = "recognition-aborted"
	transitionFirstReplyChunk    = "first-reply-chunk"
	transitionFirstAudioSegment  = "first-audio-segment"
	transitionFramesReady        = "frames-ready"
	transitionTurnComplete       = "turn-complete"
	transitionBargeIn            = "barge-in"
	transitionCleanupComplete    = "cleanup-complete"
	transitionTurnFailed         = "turn-failed"
	transitionRecovered          = "recovered"
	transitionTeardown           = "teardown"
)

// activeStates are the states a barge-in can interrupt.
var activeStates = []string{
	string(StateListening),
	string(StateRecognizing),
	string(StateThinking),
	string(StateSynthesizing),
	string(StateRendering),
	string(StateSpeaking),
}

// pipelineStateMachine tracks one session's pipeline position.
//
// Turn-level failures pass through Failed and recover back to Idle;
// teardown moves any state to the terminal Closed.
type pipelineStateMachine struct {
	machine *fsm.FSM
}

func newPipelineStateMachine(onTransition func(from, to PipelineState)) *pipelineStateMachine {
	callbacks := fsm.Callbacks{}
	if onTransition != nil {
		callbacks["enter_state"] = func(_ context.Context, e *fsm.Event) {
			onTransition(PipelineState(e.Src), PipelineState(e.Dst))
		}
	}

	return &pipelineStateMachine{
		machine: fsm.NewFSM(
			string(StateIdle),
			fsm.Events{
				{Name: transitionAudioDetected, Src: []string{string(StateIdle)}, Dst: string(StateListening)},
				{Name: transitionUtteranceBoundary, Src: []string{string(StateListening)}, Dst: string(StateRecognizing)},
				// Idle and Listening are valid sources because text prompts
				// and queued prompts skip the recognition stages entirely.
				{Name: transitionFinalTranscript, Src: []string{string(StateIdle), string(StateListening), string(StateRecognizing)}, Dst: string(StateThinking)},
				{Name: transitionRecognitionAborted, Src: []string{string(StateListening), string(StateRecognizing)}, Dst: string(StateIdle)},
				{Name: transitionFirstReplyChunk, Src: []string{string(StateThinking)}, Dst: string(StateSynthesizing)},
				{Name: transitionFirstAudioSegment, Src: []string{string(StateSynthesizing)}, Dst: string(StateRendering)},
				{Name: transitionFramesReady, Src: []string{string(StateRendering)}, Dst: string(StateSpeaking)},
				{Name: transitionTurnComplete, Src: []string{
					string(StateThinking),
					string(StateSynthesizing),
					string(StateRendering),
					string(StateSpeaking),
				}, Dst: string(StateIdle)},
				{Name: transitionBargeIn, Src: activeStates, Dst: string(StateInterrupted)},
				{Name: transitionCleanupComplete, Src: []string{string(StateInterrupted)}, Dst: string(StateIdle)},
				{Name: transitionTurnFailed, Src: append(append([]string{}, activeStates...),
					string(StateIdle),
					string(StateInterrupted),
				), Dst: string(StateFailed)},
				{Name: transitionRecovered, Src: []string{string(StateFailed)}, Dst: string(StateIdle)},
				{Name: transitionTeardown, Src: append(append([]string{}, activeStates...),
					string(StateIdle),
					string(StateInterrupted),
					string(StateFailed),
				), Dst: string(StateClosed)},
			},
			callbacks,
		),
	}
}

func (m *pipelineStateMachine) state() PipelineState {
	return PipelineState(m.machine.Current())
}

func (m *pipelineStateMachine) is(state PipelineState) bool {
	return m.machine.Is(string(state))
}

func (m *pipelineStateMachine) fire(ctx context.Context, transition string) error {
	return m.machine.Event(ctx, transition)
}

// fireIfAble fires the transition when the current state allows it and
// reports whether it did. Used on paths where a stale trigger is expected
// and harmless, like stage results racing a barge-in.
func (m *pipelineStateMachine) fireIfAble(ctx context.Context, transition string) bool {
	if !m.machine.Can(transition) {
		return false
	}

	return m.machine.Event(ctx, transition) == nil
}
