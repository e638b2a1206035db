package orchestration

import "errors"

var (
	// ErrSessionNotFound reports a registry lookup for an id that is not
	// registered, usually a race with destruction. Callers that tolerate
	// the race log it and move on.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed reports an operation on a session that has already
	// been torn down.
	ErrSessionClosed = errors.New("session closed")

	// ErrTurnCancelled reports that the turn was cancelled before it could
	// finish, either by barge-in or an explicit interrupt.
	ErrTurnCancelled = errors.New("turn cancelled")

	// ErrTurnStalled reports that a stage stayed suspended on a full buffer
	// past the configured stall threshold.
	ErrTurnStalled = errors.New("turn stalled on backpressure")

	// ErrDialogueTimeout reports that the reply stream produced neither a
	// chunk nor its end marker within the configured timeout. Recoverable:
	// the turn is aborted and the session returns to idle.
	ErrDialogueTimeout = errors.New("dialogue response timed out")

	// ErrRecognitionFailed reports a recognition fault for the current
	// utterance. Recoverable: the client is asked to repeat.
	ErrRecognitionFailed = errors.New("recognition failed")

	// ErrSynthesisFailed reports that synthesis failed for too many
	// consecutive chunks. Individual chunk failures are skipped; only the
	// consecutive threshold fails the turn.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrRenderingFailed reports a rendering fault. Never turn-fatal: the
	// turn continues audio-only.
	ErrRenderingFailed = errors.New("rendering failed")
)
