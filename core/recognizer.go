package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/C32-SoundTech/SoundTech-DH/core/events"
	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/recognition"
)

// Transcript is a recognition result scoped to the session that produced
// it.
type Transcript = recognition.Transcript

// recognizer is the recognition facade used to handle optional client
// wiring and per-utterance bookkeeping. Cancelling an utterance discards
// its remaining results instead of tearing the stream down, so the stage
// restarts cleanly for the next utterance.
type recognizer struct {
	// client stores the configured recognition implementation.
	client RecognitionClient

	emitEvent eventEmitter

	mu sync.Mutex
	// currentUtteranceID is the id of the utterance whose results are
	// streaming in, learned from the first interim.
	currentUtteranceID string
	// discardedUtteranceID marks an utterance cancelled mid-flight; its
	// remaining interims and final are dropped.
	discardedUtteranceID string
}

func newRecognizer(client RecognitionClient) *recognizer {
	return &recognizer{
		client:    client,
		emitEvent: noopEventEmitter,
	}
}

func (r *recognizer) set(client RecognitionClient) {
	if r != nil {
		r.client = client
	}
}

func (r *recognizer) setEventEmitter(emitEvent eventEmitter) {
	if r == nil {
		return
	}

	if emitEvent != nil {
		r.emitEvent = emitEvent
	} else {
		r.emitEvent = noopEventEmitter
	}
}

func (r *recognizer) isConfigured() bool {
	return r != nil && r.client != nil
}

// start opens the transcription stream. Recognition faults are recoverable
// and surface as error callbacks, not as a start failure.
func (r *recognizer) start(ctx context.Context, encodingInfo media.EncodingInfo, onError func(error)) error {
	if !r.isConfigured() {
		return nil
	}

	options := []recognition.TranscriptionOption{
		recognition.WithSpeechStartedCallback(r.invokeSpeechStarted),
		recognition.WithSpeechEndedCallback(r.invokeSpeechEnded),
		recognition.WithInterimTranscriptCallback(r.invokeInterimTranscript),
		recognition.WithFinalTranscriptCallback(r.invokeFinalTranscript),
		recognition.WithEncodingInfo(encodingInfo),
	}
	if onError != nil {
		options = append(options, recognition.WithErrorCallback(onError))
	}

	if err := r.client.Transcribe(ctx, options...); err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}

	return nil
}

func (r *recognizer) sendAudio(audio []byte) error {
	if !r.isConfigured() {
		return nil
	}

	return r.client.SendAudio(audio)
}

// cancelUtterance releases the in-flight utterance. Its buffered audio
// never becomes a final transcript.
func (r *recognizer) cancelUtterance() {
	if r == nil {
		return
	}

	r.mu.Lock()
	r.discardedUtteranceID = r.currentUtteranceID
	r.mu.Unlock()
}

func (r *recognizer) close(ctx context.Context) error {
	if !r.isConfigured() {
		return nil
	}

	switch c := r.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close recognition client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close recognition client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	case interface{ StopStream() error }:
		if err := c.StopStream(); err != nil {
			return fmt.Errorf("failed to close recognition client: %w", err)
		}
	}

	return nil
}

func (r *recognizer) invokeSpeechStarted() {
	r.emitEvent(events.NewUserSpeechStarted())
}

func (r *recognizer) invokeSpeechEnded() {
	r.emitEvent(events.NewUserSpeechEnded())
}

func (r *recognizer) invokeInterimTranscript(transcript Transcript) {
	if r.trackUtterance(transcript.UtteranceID) {
		return
	}

	r.emitEvent(events.NewTranscriptInterim(transcript.UtteranceID, transcript.Text, transcript.Confidence))
}

func (r *recognizer) invokeFinalTranscript(transcript Transcript) {
	if r.trackUtterance(transcript.UtteranceID) {
		return
	}

	r.emitEvent(events.NewTranscriptFinal(transcript.UtteranceID, transcript.Text, transcript.Confidence))
}

// trackUtterance records the utterance a result belongs to and reports
// whether the result should be discarded.
func (r *recognizer) trackUtterance(utteranceID string) (discard bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentUtteranceID = utteranceID
	return utteranceID == r.discardedUtteranceID
}
