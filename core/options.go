package orchestration

import (
	"context"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/C32-SoundTech/SoundTech-DH/core/events"
	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/recognition"
	"github.com/C32-SoundTech/SoundTech-DH/core/rendering"
	"github.com/C32-SoundTech/SoundTech-DH/core/synthesis"
)

type SessionOption func(*Session)

type RecognitionClient interface {
	Transcribe(ctx context.Context, opts ...recognition.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithRecognitionClient(client RecognitionClient) SessionOption {
	return func(s *Session) { s.recognizer.set(client) }
}

type DialogueClient interface {
	RespondWithStream(ctx context.Context, prompt string, opts ...dialogue.PromptOption) dialogue.Stream
}

func WithDialogueClient(client DialogueClient) SessionOption {
	return func(s *Session) { s.dialogue.set(client) }
}

type SynthesisClient interface {
	NewSpeechGenerator(ctx context.Context, opts ...synthesis.SynthesisOption) (synthesis.SpeechGenerator, error)
}

func WithSynthesisClient(client SynthesisClient) SessionOption {
	return func(s *Session) { s.synthesizer.set(client) }
}

type RenderClient interface {
	NewFrameGenerator(ctx context.Context, opts ...rendering.RenderOption) (rendering.FrameGenerator, error)
}

// WithRenderClient configures avatar rendering. Sessions without one run
// audio-only.
func WithRenderClient(client RenderClient) SessionOption {
	return func(s *Session) { s.renderer.set(client) }
}

func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.ID = id }
}

func WithInterruptPolicy(policy InterruptPolicy) SessionOption {
	return func(s *Session) { s.interruptPolicy = policy }
}

func WithInterruptionHandler(handler InterruptionHandler) SessionOption {
	return func(s *Session) { s.interruptionHandler = handler }
}

// WithEncodingInfo sets the audio encoding shared by recognition,
// synthesis and rendering for this session.
func WithEncodingInfo(encodingInfo media.EncodingInfo) SessionOption {
	return func(s *Session) { s.config.encodingInfo = encodingInfo }
}

func WithFrameRate(frameRate int) SessionOption {
	return func(s *Session) { s.config.frameRate = frameRate }
}

// WithDialogueTimeout bounds the wait for each reply chunk. A turn whose
// dialogue stage stays silent past the timeout fails and the session
// recovers to idle.
func WithDialogueTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) { s.config.dialogueTimeout = timeout }
}

func WithSynthesisTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) { s.config.synthesisTimeout = timeout }
}

func WithRenderTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) { s.config.renderTimeout = timeout }
}

// WithStallTimeout bounds how long a pipeline stage may stay suspended
// on a full downstream buffer before the turn is abandoned.
func WithStallTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) { s.config.stallTimeout = timeout }
}

// WithUtteranceTimeout bounds the wait for a final transcript after the
// user stops speaking. Past it the utterance is abandoned and the
// session returns to idle.
func WithUtteranceTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) { s.utteranceTimeout = timeout }
}

// WithCancellationGrace sets how long a barged-in turn may spend tearing
// down before the session stops waiting for it.
func WithCancellationGrace(grace time.Duration) SessionOption {
	return func(s *Session) { s.cancellationGrace = grace }
}

// WithHistoryLimit bounds the conversation history to the most recent
// turns. Zero or negative keeps everything.
func WithHistoryLimit(turns int) SessionOption {
	return func(s *Session) { s.historyLimit = turns }
}

func WithChunkBufferCapacity(capacity int) SessionOption {
	return func(s *Session) { s.config.chunkCapacity = capacity }
}

func WithSegmentBufferCapacity(capacity int) SessionOption {
	return func(s *Session) { s.config.segmentCapacity = capacity }
}

// WithSynthesisFailureLimit sets how many consecutive chunks may fail
// synthesis before the turn fails. Isolated failures only skip the
// affected chunk.
func WithSynthesisFailureLimit(limit int) SessionOption {
	return func(s *Session) { s.config.maxSynthesisFailures = limit }
}

type RunOptions struct {
	onStateChanged         func(from, to PipelineState)
	onSpeakingStateChanged func(isSpeaking bool)
	onInterimTranscription func(transcript string)
	onTranscription        func(transcript string)
	onResponse             func(response string)
	onResponseEnd          func()
	onAction               func(action, emotion string)
	onAudio                func(audio []byte)
	onRenderedFrames       func(segmentSeq uint64, frames int)
	onRenderDegraded       func(reason string)
	onTurnStarted          func(turnID string)
	onTurnCompleted        func(turnID string)
	onTurnFailed           func(turnID, reason string)
	onCancellation         func()
	onNotification         func(code, message string, retry bool)
	onInputAudio           func(audio []byte)
	onEvent                func(event events.Event)
}

type RunOption func(*RunOptions)

func WithStateChangedCallback(callback func(from, to PipelineState)) RunOption {
	return func(o *RunOptions) {
		o.onStateChanged = callback
	}
}

func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) RunOption {
	return func(o *RunOptions) {
		o.onSpeakingStateChanged = callback
	}
}

// WithInterimTranscriptionCallback registers a callback for interim
// transcriptions produced by the configured recognition client.
func WithInterimTranscriptionCallback(callback func(transcript string)) RunOption {
	return func(o *RunOptions) {
		o.onInterimTranscription = callback
	}
}

// WithTranscriptionCallback registers a callback for final
// transcriptions produced by the configured recognition client.
//
// Prompts submitted directly through [Session.SubmitText] do not trigger
// this callback.
func WithTranscriptionCallback(callback func(transcript string)) RunOption {
	return func(o *RunOptions) {
		o.onTranscription = callback
	}
}

func WithResponseCallback(callback func(response string)) RunOption {
	return func(o *RunOptions) {
		o.onResponse = callback
	}
}

func WithResponseEndCallback(callback func()) RunOption {
	return func(o *RunOptions) {
		o.onResponseEnd = callback
	}
}

func WithActionCallback(callback func(action, emotion string)) RunOption {
	return func(o *RunOptions) {
		o.onAction = callback
	}
}

// WithAudioCallback registers a callback for synthesized audio segments.
//
// The provided slice is passed through as-is (no defensive copy).
// Receivers can choose whether to process it immediately, copy it, or
// retain it. The callback runs inline on the delivery path and should
// not block.
func WithAudioCallback(callback func(audio []byte)) RunOption {
	return func(o *RunOptions) {
		o.onAudio = callback
	}
}

func WithRenderedFramesCallback(callback func(segmentSeq uint64, frames int)) RunOption {
	return func(o *RunOptions) {
		o.onRenderedFrames = callback
	}
}

func WithRenderDegradedCallback(callback func(reason string)) RunOption {
	return func(o *RunOptions) {
		o.onRenderDegraded = callback
	}
}

func WithTurnStartedCallback(callback func(turnID string)) RunOption {
	return func(o *RunOptions) {
		o.onTurnStarted = callback
	}
}

func WithTurnCompletedCallback(callback func(turnID string)) RunOption {
	return func(o *RunOptions) {
		o.onTurnCompleted = callback
	}
}

func WithTurnFailedCallback(callback func(turnID, reason string)) RunOption {
	return func(o *RunOptions) {
		o.onTurnFailed = callback
	}
}

func WithCancellationCallback(callback func()) RunOption {
	return func(o *RunOptions) {
		o.onCancellation = callback
	}
}

func WithNotificationCallback(callback func(code, message string, retry bool)) RunOption {
	return func(o *RunOptions) {
		o.onNotification = callback
	}
}

// WithInputAudioCallback registers a callback for raw inbound audio
// frames.
//
// The provided slice is passed through as-is (no defensive copy). The
// callback runs inline on the inbound media path and should not block.
func WithInputAudioCallback(callback func(audio []byte)) RunOption {
	return func(o *RunOptions) {
		o.onInputAudio = callback
	}
}

// WithEventCallback registers a catch-all callback invoked for every
// session event, including kinds without a dedicated callback.
func WithEventCallback(callback func(event events.Event)) RunOption {
	return func(o *RunOptions) {
		o.onEvent = callback
	}
}
