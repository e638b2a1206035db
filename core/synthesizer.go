package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/synthesis"
)

// synthesizer is the synthesis facade used to handle optional client
// wiring. Each turn opens its own speech session; a session that fails is
// discarded and the next chunk opens a fresh one, which is what makes
// skip-and-continue possible on a streaming synthesizer.
type synthesizer struct {
	// client stores the configured synthesis implementation.
	client SynthesisClient
}

func newSynthesizer(client SynthesisClient) *synthesizer {
	return &synthesizer{client: client}
}

func (s *synthesizer) set(client SynthesisClient) {
	if s != nil {
		s.client = client
	}
}

func (s *synthesizer) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *synthesizer) close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close synthesis client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close synthesis client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

// newSpeechSession opens a generator for one run of chunk synthesis.
func (s *synthesizer) newSpeechSession(ctx context.Context, encodingInfo media.EncodingInfo) (*speechSession, error) {
	if !s.isConfigured() {
		return nil, fmt.Errorf("no synthesis client configured")
	}

	session := &speechSession{
		audio: make(chan []byte, 64),
		marks: make(chan string, 8),
		ended: make(chan synthesis.SpeechEndedReport, 1),
		errs:  make(chan error, 4),
		done:  make(chan struct{}),
	}

	generator, err := s.client.NewSpeechGenerator(ctx,
		synthesis.WithSpeechAudioCallback(session.onAudio),
		synthesis.WithSpeechMarkCallback(session.onMark),
		synthesis.WithSpeechEndedCallback(session.onEnded),
		synthesis.WithErrorCallback(session.onError),
		synthesis.WithEncodingInfo(encodingInfo),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open speech generator: %w", err)
	}

	session.generator = generator
	return session, nil
}

// speechSession adapts the callback-driven generator to the pipeline's
// chunk-at-a-time pull. The generator confirms each mark only after all
// audio for the text before it has been produced, so audio received up to
// a confirmation belongs to the chunk that placed the mark.
type speechSession struct {
	generator synthesis.SpeechGenerator

	audio chan []byte
	marks chan string
	ended chan synthesis.SpeechEndedReport
	errs  chan error

	stopOnce sync.Once
	done     chan struct{}
}

func (s *speechSession) onAudio(audio []byte) {
	buffered := make([]byte, len(audio))
	copy(buffered, audio)
	select {
	case s.audio <- buffered:
	case <-s.done:
	}
}

func (s *speechSession) onMark(mark string) {
	select {
	case s.marks <- mark:
	case <-s.done:
	}
}

func (s *speechSession) onEnded(report synthesis.SpeechEndedReport) {
	select {
	case s.ended <- report:
	default:
	}
}

func (s *speechSession) onError(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// synthesizeChunk turns one chunk of text into audio, waiting up to the
// timeout for the generator to confirm it. On error the session is left
// in an unknown state and should be discarded.
func (s *speechSession) synthesizeChunk(ctx context.Context, text string, timeout time.Duration) ([]byte, error) {
	if err := s.generator.SendText(text); err != nil {
		return nil, fmt.Errorf("failed to send text to synthesis: %w", err)
	}
	if err := s.generator.Mark(); err != nil {
		return nil, fmt.Errorf("failed to mark chunk boundary: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var collected []byte
	for {
		select {
		case audio := <-s.audio:
			collected = append(collected, audio...)
		case <-s.marks:
			// drain audio that raced the confirmation
			for {
				select {
				case audio := <-s.audio:
					collected = append(collected, audio...)
				default:
					return collected, nil
				}
			}
		case err := <-s.errs:
			return nil, fmt.Errorf("synthesis failed: %w", err)
		case <-timer.C:
			return nil, fmt.Errorf("synthesis timed out after %s", timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// finish closes the text stream and waits briefly for the generator's
// final report.
func (s *speechSession) finish(ctx context.Context) (synthesis.SpeechEndedReport, error) {
	defer s.stop()

	if err := s.generator.EndOfText(); err != nil {
		return synthesis.SpeechEndedReport{}, fmt.Errorf("failed to end synthesis: %w", err)
	}

	select {
	case report := <-s.ended:
		return report, nil
	case err := <-s.errs:
		return synthesis.SpeechEndedReport{}, fmt.Errorf("synthesis failed: %w", err)
	case <-time.After(5 * time.Second):
		return synthesis.SpeechEndedReport{}, fmt.Errorf("synthesis end report timed out")
	case <-ctx.Done():
		return synthesis.SpeechEndedReport{}, ctx.Err()
	}
}

func (s *speechSession) cancel() {
	if s == nil || s.generator == nil {
		return
	}

	_ = s.generator.Cancel() // Ignored on purpose
	s.stop()
}

// stop releases callbacks still trying to deliver into the session.
func (s *speechSession) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
