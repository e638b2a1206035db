package recognition

import "github.com/C32-SoundTech/SoundTech-DH/core/media"

// Transcript is a single recognition result for one utterance. Interim
// transcripts carry the full text recognized so far and are superseded by
// later transcripts with the same UtteranceID. Exactly one final transcript
// closes an utterance.
type Transcript struct {
	UtteranceID string
	Text        string
	Confidence  float64
	Final       bool
}

type TranscriptionOptions struct {
	InterimTranscriptCallback func(transcript Transcript)
	FinalTranscriptCallback   func(transcript Transcript)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	ErrorCallback func(err error)

	EncodingInfo media.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithInterimTranscriptCallback(callback func(transcript Transcript)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.InterimTranscriptCallback = callback
	}
}

func WithFinalTranscriptCallback(callback func(transcript Transcript)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.FinalTranscriptCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

// WithErrorCallback registers a callback for recoverable recognition
// failures. The stream stays open after the callback returns.
func WithErrorCallback(callback func(err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo media.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}
