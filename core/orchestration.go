package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/C32-SoundTech/SoundTech-DH/core/events"
	"github.com/C32-SoundTech/SoundTech-DH/core/interruptions"
	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Run drives the session until the context is cancelled, the client
// disconnects, or Close is called. Media and control signals flow in
// through the channel, turn outcomes flow back through it, and exactly
// one turn is in flight at any time.
//
// Run may be called at most once per session; repeated calls return an
// error.
func (s *Session) Run(ctx context.Context, opts ...RunOption) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("session already running")
	}
	if s.isClosed() {
		return ErrSessionClosed
	}

	runOptions := RunOptions{}
	for _, opt := range opts {
		opt(&runOptions)
	}
	callbacks := newCallbackEventEmitter(runOptions)
	s.emitEvent = func(event events.Event) {
		callbacks(event)
		s.routeEvent(event)
	}
	s.recognizer.setEventEmitter(s.emitEvent)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.recognizer.isConfigured() {
		if err := s.recognizer.start(ctx, s.config.encodingInfo, s.invokeRecognitionError); err != nil {
			recordedErr := fmt.Errorf("failed to start recognition: %w", err)
			span := trace.SpanFromContext(ctx)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}
	}

	go s.inboundLoop(ctx)
	go s.signalLoop(ctx)

	for {
		// Controls outrank buffered media events so a barge-in is never
		// stuck behind them.
		select {
		case signal := <-s.controls:
			s.handleControl(ctx, signal)
			continue
		default:
		}

		var prompts chan promptRequest
		if s.canLaunchTurn() {
			prompts = s.prompts
		}

		select {
		case <-s.closed:
			return s.teardown(ctx)
		case <-ctx.Done():
			s.Close()
			return s.teardown(ctx)
		case signal := <-s.controls:
			s.handleControl(ctx, signal)
		case event := <-s.stageEvents:
			s.handleStageEvent(ctx, event)
		case request := <-prompts:
			s.launchTurn(ctx, request)
		case <-s.turnFinished:
			// Re-evaluates the prompt gate.
		}
	}
}

// canLaunchTurn gates the prompt queue: one turn at a time, and only
// from the states the final-transcript transition accepts.
func (s *Session) canLaunchTurn() bool {
	if s.conversation.currentTurn() != nil {
		return false
	}

	switch s.machine.state() {
	case StateIdle, StateListening, StateRecognizing:
		return true
	default:
		return false
	}
}

// inboundLoop pumps client audio into recognition. A read timeout is
// routine; anything else means the channel is gone and the session
// closes.
func (s *Session) inboundLoop(ctx context.Context) {
	for {
		frame, err := s.channel.NextInboundFrame(ctx)
		if err != nil {
			if errors.Is(err, media.ErrReadTimeout) {
				continue
			}
			if !errors.Is(err, media.ErrChannelClosed) && !errors.Is(err, context.Canceled) {
				logger.Warn("inbound media read failed", "error", err, "session_id", s.ID)
			}
			s.Close()
			return
		}

		s.touch()
		s.emitEvent(events.NewUserAudioFrame(frame.Seq, frame.Samples))

		if s.listening.Load() && s.recognizer.isConfigured() {
			if err := s.recognizer.sendAudio(frame.Samples); err != nil {
				logger.Warn("failed to forward audio to recognition", "error", err, "session_id", s.ID)
			}
		}
	}
}

func (s *Session) signalLoop(ctx context.Context) {
	for {
		signal, err := s.channel.NextSignal(ctx)
		if err != nil {
			if errors.Is(err, media.ErrReadTimeout) {
				continue
			}
			if !errors.Is(err, media.ErrChannelClosed) && !errors.Is(err, context.Canceled) {
				logger.Warn("signal read failed", "error", err, "session_id", s.ID)
			}
			s.Close()
			return
		}

		select {
		case s.controls <- signal:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleControl(ctx context.Context, signal mediachannels.Signal) {
	s.touch()

	switch signal.Control {
	case mediachannels.ControlStartListening:
		s.listening.Store(true)
	case mediachannels.ControlInterrupt:
		s.bargeIn(ctx)
	case mediachannels.ControlDisconnect:
		s.Close()
	case mediachannels.ControlSubmitText:
		if signal.Text == "" {
			return
		}
		if !s.queuePrompt(promptRequest{text: signal.Text}) {
			logger.Warn("dropping submitted text, prompt queue full", "session_id", s.ID)
		}
	}
}

func (s *Session) handleStageEvent(ctx context.Context, event events.Event) {
	switch typedEvent := event.(type) {
	case events.UserSpeechStarted:
		s.touch()
		s.handleSpeechStarted(ctx)
	case events.UserSpeechEnded:
		s.touch()
		if s.machine.fireIfAble(ctx, transitionUtteranceBoundary) {
			s.armUtteranceTimer()
		}
	case events.TranscriptInterim:
		s.touch()
	case events.TranscriptFinal:
		s.touch()
		s.stopUtteranceTimer()
		s.handleFinalTranscript(ctx, strings.TrimSpace(typedEvent.Transcript))
	case utteranceTimedOut:
		if s.machine.is(StateListening) || s.machine.is(StateRecognizing) {
			s.recognizer.cancelUtterance()
			s.machine.fireIfAble(ctx, transitionRecognitionAborted)
		}
	case recognitionFailed:
		s.handleRecognitionFailure(ctx, typedEvent.err)
	}
}

func (s *Session) handleSpeechStarted(ctx context.Context) {
	turn := s.conversation.currentTurn()
	if turn == nil {
		s.machine.fireIfAble(ctx, transitionAudioDetected)
		return
	}

	switch s.interruptPolicy {
	case InterruptNever:
	case InterruptClassify:
		if s.interruptionHandler != nil {
			// Decided once the utterance's final transcript is in.
			s.overlapPending = true
			return
		}
		s.bargeIn(ctx)
	default:
		s.bargeIn(ctx)
	}
}

func (s *Session) handleFinalTranscript(ctx context.Context, transcript string) {
	if transcript == "" {
		// Recognition produced nothing usable, walk back to idle.
		s.machine.fireIfAble(ctx, transitionRecognitionAborted)
		return
	}

	if s.overlapPending && s.interruptionHandler != nil && s.conversation.currentTurn() != nil {
		s.overlapPending = false
		s.classifyOverlap(ctx, transcript)
		return
	}
	s.overlapPending = false

	if !s.queuePrompt(promptRequest{text: transcript}) {
		logger.Warn("dropping transcript, prompt queue full", "session_id", s.ID)
	}
}

// classifyOverlap decides off the loop whether overlapping speech takes
// the floor. The handler acts through the same surface a client would:
// cancelling the turn and queueing prompts.
func (s *Session) classifyOverlap(ctx context.Context, transcript string) {
	handler := s.interruptionHandler
	go func() {
		ctx, span := tracer.Start(ctx, "resolve interruption")
		defer span.End()

		if _, err := handler.Handle(ctx, interruptions.Interruption{Source: transcript}, s); err != nil {
			recordedErr := fmt.Errorf("failed to resolve interruption: %w", err)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())

			// Unclassifiable speech takes the floor, matching the always
			// policy.
			s.CancelTurn()
			s.QueuePrompt(transcript)
		}
	}()
}

func (s *Session) handleRecognitionFailure(ctx context.Context, cause error) {
	recordedErr := fmt.Errorf("%w: %v", ErrRecognitionFailed, cause)
	span := trace.SpanFromContext(ctx)
	span.RecordError(recordedErr)
	span.SetStatus(codes.Error, recordedErr.Error())

	if s.machine.is(StateListening) || s.machine.is(StateRecognizing) {
		s.recognizer.cancelUtterance()
		s.machine.fireIfAble(ctx, transitionRecognitionAborted)
		s.notify(turnFailureNotification(recordedErr))
	}

	s.restartRecognition(ctx)
}

// restartRecognition reopens the transcription stream after a client
// failure so later utterances still work.
func (s *Session) restartRecognition(ctx context.Context) {
	if !s.recognizer.isConfigured() {
		return
	}

	if err := s.recognizer.close(ctx); err != nil {
		logger.Warn("failed to close recognition client before restart", "error", err, "session_id", s.ID)
	}
	if err := s.recognizer.start(ctx, s.config.encodingInfo, s.invokeRecognitionError); err != nil {
		logger.Warn("failed to restart recognition", "error", err, "session_id", s.ID)
	}
}

func (s *Session) invokeRecognitionError(err error) {
	s.enqueueStageEvent(recognitionFailed{Base: events.NewBase(kindRecognitionFailed), err: err})
}

func (s *Session) armUtteranceTimer() {
	s.stopUtteranceTimer()
	s.utteranceTimer = time.AfterFunc(s.utteranceTimeout, func() {
		s.enqueueStageEvent(utteranceTimedOut{Base: events.NewBase(kindUtteranceTimedOut)})
	})
}

func (s *Session) stopUtteranceTimer() {
	if s.utteranceTimer != nil {
		s.utteranceTimer.Stop()
		s.utteranceTimer = nil
	}
}

// bargeIn cancels the active turn mid-output. Media already queued on
// the channel is cleared so the agent falls silent as fast as possible;
// completed history entries stay intact.
func (s *Session) bargeIn(ctx context.Context) {
	turn := s.conversation.currentTurn()
	if turn == nil {
		return
	}
	if !s.machine.fireIfAble(ctx, transitionBargeIn) {
		return
	}

	turn.Cancel()
	s.channel.ClearOutbound()
	s.emitEvent(events.NewTurnCancelled(turn.ID))

	go func() {
		if !turn.awaitDone(s.cancellationGrace) {
			logger.Warn("cancelled turn exceeded its grace period", "turn_id", turn.ID, "session_id", s.ID)
		}
		s.machine.fireIfAble(ctx, transitionCleanupComplete)
		s.signalTurnFinished()
	}()
}

func (s *Session) launchTurn(ctx context.Context, request promptRequest) {
	s.touch()

	if !request.direct && !s.dialogue.isConfigured() {
		logger.Warn("dropping prompt, no dialogue client configured", "session_id", s.ID)
		s.notify(turnFailureNotification(fmt.Errorf("no dialogue client configured")))
		return
	}

	turnCtx, cancel := context.WithCancel(ctx)
	turn := newActiveTurn(request.text)
	turn.cancel = cancel

	if err := s.conversation.startTurn(turn); err != nil {
		cancel()
		if !s.queuePrompt(request) {
			logger.Warn("dropping prompt, turn already active and queue full", "session_id", s.ID)
		}
		return
	}

	s.machine.fireIfAble(ctx, transitionFinalTranscript)
	s.emitEvent(events.NewTurnStarted(turn.ID))

	go s.runTurn(turnCtx, turn, request)
}

// runTurn executes one turn's pipeline and settles its outcome: history,
// events, notifications and the state machine.
func (s *Session) runTurn(ctx context.Context, turn *activeTurn, request promptRequest) {
	defer s.signalTurnFinished()
	defer turn.finish()

	ctx, span := tracer.Start(ctx, "run turn", trace.WithAttributes(
		attribute.String("turn.id", turn.ID),
		attribute.Bool("turn.direct", request.direct),
	))
	defer span.End()

	var stream dialogue.Stream
	if request.direct {
		stream = &staticStream{text: request.text}
	} else {
		stream = s.dialogue.respond(ctx, turn.Prompt, s.conversation.History())
	}
	if stream == nil {
		s.settleFailedTurn(ctx, turn, fmt.Errorf("no dialogue client configured"))
		return
	}

	pipeline := newTurnPipeline(turn, stream, s.synthesizer, s.renderer, s.config,
		s.emitEvent, s.machine.fireIfAble, s.outboundSender(turn))

	userPrompt := turn.Prompt
	if request.direct {
		userPrompt = ""
	}

	replyText, err := pipeline.Run(ctx)
	switch {
	case turn.IsCancelled():
		// Barge-in already emitted the cancellation and moved the state
		// machine; only history remains.
		s.conversation.finishTurn(turn, userPrompt, replyText)
	case err != nil:
		s.settleFailedTurn(ctx, turn, err)
	default:
		s.conversation.finishTurn(turn, userPrompt, replyText)
		s.emitEvent(events.NewTurnCompleted(turn.ID))
		s.machine.fireIfAble(ctx, transitionTurnComplete)
	}
}

// settleFailedTurn abandons the turn without touching history, tells the
// client, and walks the state machine through failure back to idle.
func (s *Session) settleFailedTurn(ctx context.Context, turn *activeTurn, err error) {
	recordedErr := fmt.Errorf("turn failed: %w", err)
	span := trace.SpanFromContext(ctx)
	span.RecordError(recordedErr)
	span.SetStatus(codes.Error, recordedErr.Error())

	s.conversation.abandonTurn(turn)
	s.emitEvent(events.NewTurnFailed(turn.ID, err.Error()))
	s.notify(turnFailureNotification(err))

	if s.machine.fireIfAble(ctx, transitionTurnFailed) {
		s.machine.fireIfAble(ctx, transitionRecovered)
	}
}

// teardown releases everything the session owns. It runs on the loop
// goroutine exactly once, after the closed flag is set.
func (s *Session) teardown(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "session teardown")
	defer span.End()

	s.stopUtteranceTimer()

	if turn := s.conversation.currentTurn(); turn != nil {
		turn.Cancel()
		s.channel.ClearOutbound()
		if !turn.awaitDone(s.cancellationGrace) {
			span.AddEvent("active turn exceeded teardown grace")
		}
	}

	if err := s.channel.Notify(sessionClosingNotification()); err != nil {
		span.RecordError(fmt.Errorf("failed to notify client of shutdown: %w", err))
	}

	if err := s.recognizer.close(ctx); err != nil {
		recordedErr := fmt.Errorf("failed to close recognition client: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}
	if err := s.dialogue.close(ctx); err != nil {
		recordedErr := fmt.Errorf("failed to close dialogue client: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}
	if err := s.synthesizer.close(ctx); err != nil {
		recordedErr := fmt.Errorf("failed to close synthesis client: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}
	if err := s.renderer.close(ctx); err != nil {
		recordedErr := fmt.Errorf("failed to close rendering client: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}

	s.machine.fireIfAble(ctx, transitionTeardown)

	if err := s.channel.Close(); err != nil {
		recordedErr := fmt.Errorf("failed to close media channel: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}

	return nil
}
