package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/C32-SoundTech/SoundTech-DH/core/events"
	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// pipelineConfig carries the per-session tuning a turn pipeline runs
// under. The session builds it once from its options.
type pipelineConfig struct {
	encodingInfo media.EncodingInfo
	frameRate    int

	dialogueTimeout  time.Duration
	synthesisTimeout time.Duration
	renderTimeout    time.Duration
	stallTimeout     time.Duration

	chunkCapacity   int
	segmentCapacity int

	maxSynthesisFailures int
}

// turnPipeline runs one turn's reply through dialogue, synthesis and
// rendering. Three workers run concurrently, joined by bounded buffers:
// the dialogue worker fills the chunk buffer, the synthesis worker turns
// chunks into audio segments, and the delivery worker renders segments
// and hands the resulting media to the channel.
type turnPipeline struct {
	turn   *activeTurn
	stream dialogue.Stream

	synthesizer *synthesizer
	renderer    *renderer

	chunks   *chunkBuffer
	segments *segmentBuffer

	config pipelineConfig

	emitEvent  func(events.Event)
	transition func(context.Context, string) bool
	send       func(context.Context, media.FrameKind, []byte) error
}

func newTurnPipeline(
	turn *activeTurn,
	stream dialogue.Stream,
	synthesizer *synthesizer,
	renderer *renderer,
	config pipelineConfig,
	emitEvent func(events.Event),
	transition func(context.Context, string) bool,
	send func(context.Context, media.FrameKind, []byte) error,
) *turnPipeline {
	return &turnPipeline{
		turn:   turn,
		stream: stream,

		synthesizer: synthesizer,
		renderer:    renderer,

		chunks:   newChunkBuffer(config.chunkCapacity, config.stallTimeout),
		segments: newSegmentBuffer(config.segmentCapacity, config.stallTimeout),

		config: config,

		emitEvent:  emitEvent,
		transition: transition,
		send:       send,
	}
}

// Run drives the turn to completion and returns the full reply text,
// including chunks whose speech was skipped. A cancelled turn returns
// whatever text was generated before the cancellation with a nil error;
// the caller decides the outcome from the turn itself.
func (p *turnPipeline) Run(ctx context.Context) (string, error) {
	if p == nil {
		return "", fmt.Errorf("turn pipeline is required")
	}
	if p.turn == nil {
		return "", fmt.Errorf("active turn is required")
	}
	if p.stream == nil {
		return "", fmt.Errorf("dialogue stream is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workerErr error
	workerErrMu := sync.Mutex{}
	addWorkerErr := func(err error) {
		if err == nil {
			return
		}
		workerErrMu.Lock()
		workerErr = errors.Join(workerErr, err)
		workerErrMu.Unlock()
	}

	run := func(name string, f func(context.Context) error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				addWorkerErr(fmt.Errorf("%s worker panicked: %v", name, recovered))
				cancel()
			}
		}()

		if err := f(ctx); err != nil {
			addWorkerErr(fmt.Errorf("%s worker failed: %w", name, err))
			cancel()
		}
	}

	wg := &sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		run("reply streaming", p.streamReply)
	}()
	go func() {
		defer wg.Done()
		run("speech synthesis", p.synthesizeReply)
	}()
	go func() {
		defer wg.Done()
		run("media delivery", p.deliverSegments)
	}()

	wg.Wait()

	if workerErr != nil {
		return p.chunks.Text(), fmt.Errorf("one or more turn stages failed: %w", workerErr)
	}

	return p.chunks.Text(), nil
}

// streamReply consumes the dialogue stream into the chunk buffer. A
// watchdog bounds the wait for each chunk; it is stopped while the
// producer is suspended on a full buffer so downstream slowness is not
// mistaken for a silent model.
func (p *turnPipeline) streamReply(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "stream reply")
	defer span.End()

	ctx, abort := context.WithCancel(ctx)
	defer abort()

	var timedOut atomic.Bool
	watchdog := time.AfterFunc(p.config.dialogueTimeout, func() {
		timedOut.Store(true)
		abort()
	})
	defer watchdog.Stop()

	first := true
	for chunk, err := range p.stream.Chunks(ctx) {
		if err != nil {
			if timedOut.Load() {
				break
			}
			if p.turn.IsCancelled() || errors.Is(err, context.Canceled) {
				return nil
			}
			recordedErr := fmt.Errorf("dialogue stream failed: %w", err)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
			return recordedErr
		}
		watchdog.Stop()

		if chunk.Text != "" || chunk.Action != nil {
			if chunk.Text != "" && first {
				// Must fire before Add makes the chunk visible to the
				// synthesis worker.
				first = false
				p.transition(ctx, transitionFirstReplyChunk)
			}

			if err := p.chunks.Add(ctx, chunk); err != nil {
				if errors.Is(err, ErrTurnCancelled) || errors.Is(err, context.Canceled) {
					if timedOut.Load() {
						break
					}
					return nil
				}
				return fmt.Errorf("failed to buffer reply chunk: %w", err)
			}

			if chunk.Action != nil {
				p.emitEvent(events.NewReplyAction(p.turn.ID, chunk.Action.Name, chunk.Action.Emotion))
			}
			if chunk.Text != "" {
				p.emitEvent(events.NewReplySegment(p.turn.ID, chunk.Text))
			}
		}

		if chunk.End {
			break
		}
		watchdog.Reset(p.config.dialogueTimeout)
	}

	if timedOut.Load() {
		recordedErr := fmt.Errorf("%w: no reply chunk within %s", ErrDialogueTimeout, p.config.dialogueTimeout)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return recordedErr
	}
	if p.turn.IsCancelled() {
		return nil
	}

	p.chunks.Complete()
	p.emitEvent(events.NewReplyFinal(p.turn.ID))
	return nil
}

// synthesizeReply turns buffered chunks into ordered audio segments. A
// chunk whose synthesis fails is skipped and the reply continues; only a
// run of consecutive failures fails the turn.
func (p *turnPipeline) synthesizeReply(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.chunks.Clear()
		case <-done:
		}
	}()

	ctx, span := tracer.Start(ctx, "synthesize reply")
	defer span.End()

	var session *speechSession
	defer func() {
		if session == nil {
			return
		}
		if _, err := session.finish(ctx); err != nil {
			span.RecordError(fmt.Errorf("failed to finish speech session: %w", err))
		}
	}()

	var seq uint64
	consecutiveFailures := 0
	first := true

chunkLoop:
	for chunk := range p.chunks.Chunks {
		if p.turn.IsCancelled() {
			break chunkLoop
		}

		var audio []byte
		if chunk.Text != "" && p.synthesizer.isConfigured() {
			skip := func(err error) error {
				span.RecordError(err)
				p.emitEvent(events.NewSpeechSkipped(p.turn.ID, chunk.Text))
				consecutiveFailures++
				if consecutiveFailures >= p.config.maxSynthesisFailures {
					return fmt.Errorf("%w: %d consecutive chunks skipped", ErrSynthesisFailed, consecutiveFailures)
				}
				return nil
			}

			if session == nil {
				opened, err := p.synthesizer.newSpeechSession(ctx, p.config.encodingInfo)
				if err != nil {
					if err := skip(fmt.Errorf("failed to open speech session: %w", err)); err != nil {
						return err
					}
					continue
				}
				session = opened
			}

			synthesized, err := session.synthesizeChunk(ctx, chunk.Text, p.config.synthesisTimeout)
			if err != nil {
				if p.turn.IsCancelled() || errors.Is(err, context.Canceled) {
					break chunkLoop
				}

				// The session's stream position is unknown after a
				// failure, so it is discarded and the next chunk opens
				// a fresh one.
				session.cancel()
				session = nil
				if err := skip(fmt.Errorf("failed to synthesize chunk: %w", err)); err != nil {
					return err
				}
				continue
			}
			consecutiveFailures = 0
			audio = synthesized
		}

		if len(audio) == 0 && chunk.Action == nil {
			continue
		}

		seq++
		if len(audio) > 0 {
			p.emitEvent(events.NewSpeechSegment(p.turn.ID, seq, audio))
			if first {
				first = false
				p.transition(ctx, transitionFirstAudioSegment)
			}
		}

		segment := AudioSegment{Seq: seq, Text: chunk.Text, Audio: audio, Action: chunk.Action}
		if err := p.segments.Add(ctx, segment); err != nil {
			if errors.Is(err, ErrTurnCancelled) || errors.Is(err, context.Canceled) {
				break chunkLoop
			}
			return fmt.Errorf("failed to buffer audio segment: %w", err)
		}
	}

	p.segments.Complete()
	return nil
}

// deliverSegments renders buffered segments and hands the media to the
// channel. Rendering failures degrade the turn to audio-only instead of
// failing it.
func (p *turnPipeline) deliverSegments(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.segments.Clear()
		case <-done:
		}
	}()

	ctx, span := tracer.Start(ctx, "deliver segments")
	defer span.End()

	var session *frameSession
	degraded := false
	defer func() {
		if session == nil {
			return
		}
		report, err := session.finish(ctx)
		if err != nil {
			span.RecordError(fmt.Errorf("failed to finish frame session: %w", err))
			return
		}
		span.SetAttributes(
			attribute.Int("render.segments", report.Segments),
			attribute.Int("render.frames", report.Frames),
		)
	}()

	first := true
	delivered := func(ctx context.Context) {
		if first {
			first = false
			p.transition(ctx, transitionFramesReady)
		}
	}

segmentLoop:
	for segment := range p.segments.Segments {
		if p.turn.IsCancelled() {
			break segmentLoop
		}

		rendering := p.renderer.isConfigured() && !degraded
		if rendering && session == nil {
			opened, err := p.renderer.newFrameSession(ctx, p.config.encodingInfo, p.config.frameRate)
			if err != nil {
				degraded = true
				rendering = false
				span.RecordError(fmt.Errorf("failed to open frame session: %w", err))
				p.emitEvent(events.NewRenderDegraded(p.turn.ID, err.Error()))
			} else {
				session = opened
			}
		}

		if segment.Action != nil && rendering {
			if err := session.sendAction(segment.Action.Name, segment.Action.Emotion); err != nil {
				span.RecordError(fmt.Errorf("failed to send action cue: %w", err))
			}
		}

		if len(segment.Audio) == 0 {
			continue
		}

		if rendering {
			frames, err := session.renderSegment(ctx, segment, p.config.renderTimeout, func(frame []byte) error {
				if p.turn.IsCancelled() {
					return ErrTurnCancelled
				}
				if err := p.send(ctx, media.FrameKindVideo, frame); err != nil {
					if errors.Is(err, mediachannels.ErrBackpressure) {
						span.AddEvent("dropped video frame on backpressure")
						return nil
					}
					return err
				}
				delivered(ctx)
				return nil
			})
			switch {
			case err == nil:
				p.emitEvent(events.NewRenderFrames(p.turn.ID, segment.Seq, frames))
			case errors.Is(err, ErrTurnCancelled) || errors.Is(err, context.Canceled):
				session.cancel()
				session = nil
				break segmentLoop
			default:
				degraded = true
				span.RecordError(fmt.Errorf("rendering degraded: %w", err))
				p.emitEvent(events.NewRenderDegraded(p.turn.ID, err.Error()))
				session.cancel()
				session = nil
			}
		}

		if p.turn.IsCancelled() {
			break segmentLoop
		}
		if err := p.send(ctx, media.FrameKindAudio, segment.Audio); err != nil {
			if errors.Is(err, mediachannels.ErrBackpressure) {
				span.AddEvent("dropped audio segment on backpressure")
				continue
			}
			return fmt.Errorf("failed to deliver audio segment: %w", err)
		}
		delivered(ctx)
	}

	return nil
}
