package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/C32-SoundTech/SoundTech-DH/core/events"
	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
)

func testPipelineConfig() pipelineConfig {
	return pipelineConfig{
		encodingInfo: media.GetDefaultEncodingInfo(),
		frameRate:    25,

		dialogueTimeout:  time.Second,
		synthesisTimeout: time.Second,
		renderTimeout:    time.Second,
		stallTimeout:     time.Second,

		chunkCapacity:   4,
		segmentCapacity: 2,

		maxSynthesisFailures: 3,
	}
}

func noopTransition(context.Context, string) bool { return true }

func noopEmit(events.Event) {}

func TestTurnPipelineRequiresTurnAndStream(t *testing.T) {
	send := func(context.Context, media.FrameKind, []byte) error { return nil }

	pipeline := newTurnPipeline(nil, silentStream{}, newSynthesizer(nil), newRenderer(nil),
		testPipelineConfig(), noopEmit, noopTransition, send)
	if _, err := pipeline.Run(context.Background()); err == nil {
		t.Fatalf("expected a pipeline without a turn to be rejected")
	}

	pipeline = newTurnPipeline(newActiveTurn("prompt"), nil, newSynthesizer(nil), newRenderer(nil),
		testPipelineConfig(), noopEmit, noopTransition, send)
	if _, err := pipeline.Run(context.Background()); err == nil {
		t.Fatalf("expected a pipeline without a stream to be rejected")
	}
}

func TestTurnPipelineReturnsFullReplyText(t *testing.T) {
	stream := scriptedStream{chunks: []dialogue.ReplyChunk{{Text: "all "}, {Text: "good"}}}
	send := func(context.Context, media.FrameKind, []byte) error { return nil }

	pipeline := newTurnPipeline(newActiveTurn("prompt"), stream, newSynthesizer(nil), newRenderer(nil),
		testPipelineConfig(), noopEmit, noopTransition, send)

	text, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("expected the pipeline to complete, got %v", err)
	}
	if text != "all good" {
		t.Fatalf("expected the concatenated reply, got %q", text)
	}
}

func TestTurnPipelineStalledDeliveryFailsTheTurn(t *testing.T) {
	config := testPipelineConfig()
	config.segmentCapacity = 1
	config.stallTimeout = 50 * time.Millisecond

	stream := scriptedStream{chunks: repeatChunks("words ", 6)}
	synthesizer := newSynthesizer(&synthesisClientStub{})

	// Delivery never completes, so synthesized segments back up behind it.
	send := func(ctx context.Context, _ media.FrameKind, _ []byte) error {
		<-ctx.Done()
		return ctx.Err()
	}

	pipeline := newTurnPipeline(newActiveTurn("prompt"), stream, synthesizer, newRenderer(nil),
		config, noopEmit, noopTransition, send)

	_, err := pipeline.Run(context.Background())
	if !errors.Is(err, ErrTurnStalled) {
		t.Fatalf("expected ErrTurnStalled, got %v", err)
	}
}

func TestTurnPipelineDialogueTimeoutFailsTheTurn(t *testing.T) {
	config := testPipelineConfig()
	config.dialogueTimeout = 50 * time.Millisecond

	send := func(context.Context, media.FrameKind, []byte) error { return nil }

	pipeline := newTurnPipeline(newActiveTurn("prompt"), silentStream{}, newSynthesizer(nil), newRenderer(nil),
		config, noopEmit, noopTransition, send)

	_, err := pipeline.Run(context.Background())
	if !errors.Is(err, ErrDialogueTimeout) {
		t.Fatalf("expected ErrDialogueTimeout, got %v", err)
	}
}

func TestTurnPipelineCancellationKeepsPartialText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	turn := newActiveTurn("prompt")
	turn.cancel = cancel

	stream := scriptedStream{
		chunks:   repeatChunks("more ", 40),
		interval: 10 * time.Millisecond,
	}

	segmentsSeen := make(chan struct{}, 2)
	emit := func(event events.Event) {
		if _, ok := event.(events.ReplySegment); ok {
			select {
			case segmentsSeen <- struct{}{}:
			default:
			}
		}
	}
	send := func(context.Context, media.FrameKind, []byte) error { return nil }

	pipeline := newTurnPipeline(turn, stream, newSynthesizer(&synthesisClientStub{}), newRenderer(nil),
		testPipelineConfig(), emit, noopTransition, send)

	runDone := make(chan struct{})
	var text string
	var runErr error
	go func() {
		defer close(runDone)
		text, runErr = pipeline.Run(ctx)
	}()

	select {
	case <-segmentsSeen:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the reply to start")
	}

	turn.Cancel()

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the cancelled pipeline to unwind")
	}

	if runErr != nil {
		t.Fatalf("expected a cancelled turn to unwind cleanly, got %v", runErr)
	}
	if text == "" {
		t.Fatalf("expected the partial reply text to be kept")
	}
	if len(text) >= len("more ")*40 {
		t.Fatalf("expected the cancellation to cut the reply short, got %d bytes", len(text))
	}
}

func TestTurnPipelineBackpressuredFramesAreDropped(t *testing.T) {
	stream := scriptedStream{chunks: []dialogue.ReplyChunk{{Text: "drop me"}}}

	var mu sync.Mutex
	attempts := 0
	send := func(context.Context, media.FrameKind, []byte) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return mediachannels.ErrBackpressure
	}

	pipeline := newTurnPipeline(newActiveTurn("prompt"), stream, newSynthesizer(&synthesisClientStub{}), newRenderer(nil),
		testPipelineConfig(), noopEmit, noopTransition, send)

	text, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("expected backpressure to be non-fatal, got %v", err)
	}
	if text != "drop me" {
		t.Fatalf("expected the reply text regardless of delivery, got %q", text)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 1 {
		t.Fatalf("expected one delivery attempt, got %d", attempts)
	}
}
