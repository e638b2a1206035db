package orchestration

import (
	"errors"

	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
)

// Notification codes delivered to clients over the media channel's
// control surface.
const (
	NotificationRecognitionFailed = "recognition-failed"
	NotificationDialogueTimeout   = "dialogue-timeout"
	NotificationSynthesisFailed   = "synthesis-failed"
	NotificationTurnStalled       = "turn-stalled"
	NotificationTurnFailed        = "turn-failed"
	NotificationSessionClosing    = "session-closing"
)

// turnFailureNotification maps a failed turn's error to the notification
// sent to the client. Turn-level failures are all retryable since the
// session recovers to idle; only teardown is final.
func turnFailureNotification(err error) mediachannels.Notification {
	switch {
	case errors.Is(err, ErrDialogueTimeout):
		return mediachannels.Notification{
			Code:    NotificationDialogueTimeout,
			Message: "The reply took too long to start. Please try again.",
			Retry:   true,
		}
	case errors.Is(err, ErrSynthesisFailed):
		return mediachannels.Notification{
			Code:    NotificationSynthesisFailed,
			Message: "Speech output is unavailable right now. Please try again.",
			Retry:   true,
		}
	case errors.Is(err, ErrTurnStalled):
		return mediachannels.Notification{
			Code:    NotificationTurnStalled,
			Message: "The reply stalled and was abandoned. Please try again.",
			Retry:   true,
		}
	case errors.Is(err, ErrRecognitionFailed):
		return mediachannels.Notification{
			Code:    NotificationRecognitionFailed,
			Message: "Speech recognition dropped out. Please repeat that.",
			Retry:   true,
		}
	default:
		return mediachannels.Notification{
			Code:    NotificationTurnFailed,
			Message: "Something went wrong with that reply. Please try again.",
			Retry:   true,
		}
	}
}

func sessionClosingNotification() mediachannels.Notification {
	return mediachannels.Notification{
		Code:    NotificationSessionClosing,
		Message: "The session is closing.",
		Retry:   false,
	}
}
