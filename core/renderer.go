package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/rendering"
)

// renderer is the rendering facade used to handle optional client wiring.
// An unconfigured renderer means the session runs audio-only for its whole
// life; a renderer that fails mid-turn degrades that turn to audio-only.
type renderer struct {
	// client stores the configured rendering implementation.
	client RenderClient
}

func newRenderer(client RenderClient) *renderer {
	return &renderer{client: client}
}

func (r *renderer) set(client RenderClient) {
	if r != nil {
		r.client = client
	}
}

func (r *renderer) isConfigured() bool {
	return r != nil && r.client != nil
}

func (r *renderer) close(ctx context.Context) error {
	if !r.isConfigured() {
		return nil
	}

	switch c := r.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close rendering client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close rendering client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

// newFrameSession opens a generator for one turn's rendering.
func (r *renderer) newFrameSession(ctx context.Context, encodingInfo media.EncodingInfo, frameRate int) (*frameSession, error) {
	if !r.isConfigured() {
		return nil, fmt.Errorf("no rendering client configured")
	}

	session := &frameSession{
		frames:      make(chan renderedFrame, 64),
		segmentDone: make(chan uint64, 8),
		ended:       make(chan rendering.RenderEndedReport, 1),
		errs:        make(chan error, 4),
		done:        make(chan struct{}),
	}

	generator, err := r.client.NewFrameGenerator(ctx,
		rendering.WithFrameCallback(session.onFrame),
		rendering.WithSegmentRenderedCallback(session.onSegmentRendered),
		rendering.WithRenderEndedCallback(session.onEnded),
		rendering.WithErrorCallback(session.onError),
		rendering.WithEncodingInfo(encodingInfo),
		rendering.WithFrameRate(frameRate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame generator: %w", err)
	}

	session.generator = generator
	return session, nil
}

type renderedFrame struct {
	segmentSeq uint64
	payload    []byte
}

// frameSession adapts the callback-driven generator to the pipeline's
// segment-at-a-time pull.
type frameSession struct {
	generator rendering.FrameGenerator

	frames      chan renderedFrame
	segmentDone chan uint64
	ended       chan rendering.RenderEndedReport
	errs        chan error

	stopOnce sync.Once
	done     chan struct{}
}

func (s *frameSession) onFrame(segmentSeq uint64, frame []byte) {
	buffered := make([]byte, len(frame))
	copy(buffered, frame)
	select {
	case s.frames <- renderedFrame{segmentSeq: segmentSeq, payload: buffered}:
	case <-s.done:
	}
}

func (s *frameSession) onSegmentRendered(segmentSeq uint64) {
	select {
	case s.segmentDone <- segmentSeq:
	case <-s.done:
	}
}

func (s *frameSession) onEnded(report rendering.RenderEndedReport) {
	select {
	case s.ended <- report:
	default:
	}
}

func (s *frameSession) onError(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// renderSegment submits one audio segment and forwards its frames to
// deliver until the generator confirms the segment, the timeout elapses,
// or the generator fails. On error the session is left in an unknown
// state and should be discarded.
func (s *frameSession) renderSegment(ctx context.Context, segment AudioSegment, timeout time.Duration, deliver func(frame []byte) error) (int, error) {
	if err := s.generator.SendAudio(segment.Seq, segment.Audio); err != nil {
		return 0, fmt.Errorf("failed to send audio to renderer: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	delivered := 0
	for {
		select {
		case frame := <-s.frames:
			if frame.segmentSeq != segment.Seq {
				continue
			}
			if err := deliver(frame.payload); err != nil {
				return delivered, err
			}
			delivered++
		case doneSeq := <-s.segmentDone:
			if doneSeq != segment.Seq {
				continue
			}
			return delivered, nil
		case err := <-s.errs:
			return delivered, fmt.Errorf("rendering failed: %w", err)
		case <-timer.C:
			return delivered, fmt.Errorf("rendering timed out after %s", timeout)
		case <-ctx.Done():
			return delivered, ctx.Err()
		}
	}
}

func (s *frameSession) sendAction(name, emotion string) error {
	return s.generator.SendAction(name, emotion)
}

// finish closes the audio stream and waits briefly for the generator's
// final report.
func (s *frameSession) finish(ctx context.Context) (rendering.RenderEndedReport, error) {
	defer s.stop()

	if err := s.generator.EndOfAudio(); err != nil {
		return rendering.RenderEndedReport{}, fmt.Errorf("failed to end rendering: %w", err)
	}

	select {
	case report := <-s.ended:
		return report, nil
	case err := <-s.errs:
		return rendering.RenderEndedReport{}, fmt.Errorf("rendering failed: %w", err)
	case <-time.After(5 * time.Second):
		return rendering.RenderEndedReport{}, fmt.Errorf("rendering end report timed out")
	case <-ctx.Done():
		return rendering.RenderEndedReport{}, ctx.Err()
	}
}

func (s *frameSession) cancel() {
	if s == nil || s.generator == nil {
		return
	}

	_ = s.generator.Cancel() // Ignored on purpose
	s.stop()
}

// stop releases callbacks still trying to deliver into the session.
func (s *frameSession) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
