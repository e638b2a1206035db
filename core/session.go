package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/events"
	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
	"github.com/google/uuid"
)

const (
	defaultFrameRate = 25

	defaultDialogueTimeout  = 15 * time.Second
	defaultSynthesisTimeout = 10 * time.Second
	defaultRenderTimeout    = 15 * time.Second
	defaultStallTimeout     = 10 * time.Second
	defaultUtteranceTimeout = 10 * time.Second

	defaultCancellationGrace = 2 * time.Second

	defaultHistoryLimit = 32

	defaultChunkCapacity   = 16
	defaultSegmentCapacity = 8

	defaultSynthesisFailureLimit = 3
)

// Internal stage events consumed by the session loop. They never reach
// client callbacks.
const (
	kindUtteranceTimedOut events.Kind = "session.utterance_timed_out"
	kindRecognitionFailed events.Kind = "session.recognition_failed"
)

type utteranceTimedOut struct{ events.Base }

type recognitionFailed struct {
	events.Base
	err error
}

// promptRequest is one prompt waiting for the pipeline to go idle.
// Direct requests carry text the agent speaks verbatim instead of
// answering.
type promptRequest struct {
	text   string
	direct bool
}

// Session drives one conversation between a client on a media channel
// and the staged reply pipeline. A session owns its channel: closing the
// session closes the channel, and a channel that goes away tears the
// session down.
type Session struct {
	ID        string
	CreatedAt time.Time

	channel mediachannels.Channel

	machine      *pipelineStateMachine
	conversation *conversation

	// recognizer is the speech-to-text facade used to handle optional
	// client wiring.
	recognizer  *recognizer
	dialogue    *dialogueEngine
	synthesizer *synthesizer
	renderer    *renderer

	interruptPolicy     InterruptPolicy
	interruptionHandler InterruptionHandler

	config            pipelineConfig
	utteranceTimeout  time.Duration
	cancellationGrace time.Duration
	historyLimit      int

	emitEvent eventEmitter

	controls     chan mediachannels.Signal
	stageEvents  chan events.Event
	prompts      chan promptRequest
	turnFinished chan struct{}

	// overlapPending and utteranceTimer belong to the run loop goroutine.
	overlapPending bool
	utteranceTimer *time.Timer

	listening    atomic.Bool
	outboundSeq  atomic.Uint64
	lastActivity atomic.Int64

	started   atomic.Bool
	closeOnce sync.Once
	closed    chan struct{}
}

func NewSession(channel mediachannels.Channel, opts ...SessionOption) (*Session, error) {
	if channel == nil {
		return nil, fmt.Errorf("media channel is required")
	}

	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),

		channel: channel,

		recognizer:  newRecognizer(nil),
		dialogue:    newDialogueEngine(nil),
		synthesizer: newSynthesizer(nil),
		renderer:    newRenderer(nil),

		interruptPolicy: InterruptAlways,

		config: pipelineConfig{
			encodingInfo: media.GetDefaultEncodingInfo(),
			frameRate:    defaultFrameRate,

			dialogueTimeout:  defaultDialogueTimeout,
			synthesisTimeout: defaultSynthesisTimeout,
			renderTimeout:    defaultRenderTimeout,
			stallTimeout:     defaultStallTimeout,

			chunkCapacity:   defaultChunkCapacity,
			segmentCapacity: defaultSegmentCapacity,

			maxSynthesisFailures: defaultSynthesisFailureLimit,
		},
		utteranceTimeout:  defaultUtteranceTimeout,
		cancellationGrace: defaultCancellationGrace,
		historyLimit:      defaultHistoryLimit,

		controls:     make(chan mediachannels.Signal, 16),
		stageEvents:  make(chan events.Event, 32),
		prompts:      make(chan promptRequest, 8),
		turnFinished: make(chan struct{}, 1),

		closed: make(chan struct{}),
	}
	s.listening.Store(true)
	s.emitEvent = func(event events.Event) { s.routeEvent(event) }
	s.machine = newPipelineStateMachine(func(from, to PipelineState) {
		s.emitEvent(events.NewStateChanged(string(from), string(to)))
	})

	for _, opt := range opts {
		opt(s)
	}

	s.conversation = newConversation(s.historyLimit)
	s.touch()

	return s, nil
}

// SubmitText queues a text prompt as if it had been spoken. The reply
// flows through the same pipeline as a voice turn, minus recognition.
func (s *Session) SubmitText(text string) error {
	if text == "" {
		return fmt.Errorf("prompt text is required")
	}
	if s.isClosed() {
		return ErrSessionClosed
	}
	if !s.queuePrompt(promptRequest{text: text}) {
		return fmt.Errorf("prompt queue is full")
	}
	return nil
}

// Speak queues text for the agent to say verbatim, skipping the dialogue
// stage. The spoken line is appended to history as an agent turn.
func (s *Session) Speak(text string) error {
	if text == "" {
		return fmt.Errorf("speech text is required")
	}
	if s.isClosed() {
		return ErrSessionClosed
	}
	if !s.queuePrompt(promptRequest{text: text, direct: true}) {
		return fmt.Errorf("prompt queue is full")
	}
	return nil
}

// Interrupt cancels the active turn as if the user had barged in.
func (s *Session) Interrupt() {
	select {
	case s.controls <- mediachannels.Signal{Control: mediachannels.ControlInterrupt}:
	case <-s.closed:
	}
}

// SendAudio feeds raw audio into recognition directly, bypassing the
// media channel.
func (s *Session) SendAudio(audio []byte) error {
	return s.recognizer.sendAudio(audio)
}

func (s *Session) State() PipelineState {
	return s.machine.state()
}

// History returns the conversation so far, oldest turn first.
func (s *Session) History() []DialogueTurn {
	return s.conversation.History()
}

// CancelTurn stops the in-flight turn and any speech it is producing.
// It implements [interruptions.Orchestrator] and doubles as the
// programmatic barge-in.
func (s *Session) CancelTurn() {
	s.Interrupt()
}

// QueuePrompt schedules a prompt to be answered once the current turn is
// out of the way. It implements [interruptions.Orchestrator].
func (s *Session) QueuePrompt(prompt string) {
	if prompt == "" {
		return
	}
	if !s.queuePrompt(promptRequest{text: prompt}) {
		logger.Warn("dropping queued prompt, queue full", "session_id", s.ID)
	}
}

// Close tears the session down. Safe to call more than once and from any
// goroutine; the run loop performs the actual teardown.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		if !s.started.Load() {
			// The run loop never took ownership, release the transport
			// here.
			_ = s.channel.Close()
		}
	})
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Session) queuePrompt(request promptRequest) bool {
	select {
	case s.prompts <- request:
		return true
	default:
		return false
	}
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

func (s *Session) lastActivityTime() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// routeEvent forwards the stage events the run loop reacts to. Client
// callback dispatch happens separately in the emitter.
func (s *Session) routeEvent(event events.Event) {
	switch event.(type) {
	case events.UserSpeechStarted, events.UserSpeechEnded, events.TranscriptInterim, events.TranscriptFinal:
		s.enqueueStageEvent(event)
	}
}

func (s *Session) enqueueStageEvent(event events.Event) {
	select {
	case s.stageEvents <- event:
	default:
		logger.Warn("dropping stage event, queue full", "kind", string(event.Kind()), "session_id", s.ID)
	}
}

func (s *Session) signalTurnFinished() {
	select {
	case s.turnFinished <- struct{}{}:
	default:
	}
}

// outboundSender tags outbound media with the producing turn so frames
// from a cancelled turn can be dropped before they reach the wire.
func (s *Session) outboundSender(turn *activeTurn) func(ctx context.Context, kind media.FrameKind, payload []byte) error {
	return func(_ context.Context, kind media.FrameKind, payload []byte) error {
		if turn.IsCancelled() {
			return nil
		}
		return s.channel.SendOutbound(media.OutboundFrame{
			TurnID:    turn.ID,
			Kind:      kind,
			Seq:       s.outboundSeq.Add(1),
			Timestamp: time.Now(),
			Payload:   payload,
		})
	}
}

func (s *Session) notify(notification mediachannels.Notification) {
	if err := s.channel.Notify(notification); err != nil {
		logger.Warn("failed to notify client", "code", notification.Code, "error", err)
		return
	}
	s.emitEvent(events.NewClientNotified(notification.Code, notification.Message, notification.Retry))
}
