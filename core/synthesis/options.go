package synthesis

import "github.com/C32-SoundTech/SoundTech-DH/core/media"

type SynthesisOptions struct {
	// SpeechAudioCallback is called as the synthesizer produces audio.
	SpeechAudioCallback func(audio []byte)
	// SpeechMarkCallback is called once per mark, after the speech for the
	// text sent up to the mark has been produced.
	SpeechMarkCallback func(mark string)
	// SpeechEndedCallback is called after all requested speech has been
	// produced and provides a report of the generation.
	SpeechEndedCallback func(SpeechEndedReport)
	// ErrorCallback is called when the synthesizer encounters an error, this
	// usually means the generator has been cancelled.
	ErrorCallback func(error)

	EncodingInfo media.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithSpeechAudioCallback(callback func(audio []byte)) SynthesisOption {
	return func(o *SynthesisOptions) { o.SpeechAudioCallback = callback }
}

func WithSpeechMarkCallback(callback func(mark string)) SynthesisOption {
	return func(o *SynthesisOptions) { o.SpeechMarkCallback = callback }
}

func WithSpeechEndedCallback(callback func(SpeechEndedReport)) SynthesisOption {
	return func(o *SynthesisOptions) { o.SpeechEndedCallback = callback }
}

func WithErrorCallback(callback func(error)) SynthesisOption {
	return func(o *SynthesisOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo media.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

type SpeechGenerator interface {
	// SendText sends text to the generator. Speech is guaranteed to be
	// generated in the order text is sent.
	//
	// SendText will error if EndOfText, Cancel or Close has been called.
	SendText(string) error
	// Mark marks the current point in the text. The mark is guaranteed to be
	// reported after the speech for the text sent up to it has been
	// generated, though not necessarily at the exact point it was placed.
	//
	// Mark will error if EndOfText, Cancel or Close has been called.
	Mark() error
	// EndOfText signals that no more text will be sent. The generator closes
	// itself after all remaining speech has been generated.
	//
	// EndOfText will error if Cancel or Close has been called.
	// Repeated calls to EndOfText are ignored.
	EndOfText() error
	// Cancel immediately stops further speech generation and closes the
	// generator.
	//
	// Cancel will error if Close has been called.
	// Repeated calls to Cancel are ignored.
	Cancel() error
	// Close immediately closes the generator. No more speech will be
	// produced after this call.
	//
	// Repeated calls to Close are ignored.
	Close() error
}

// SpeechEndedReport summarizes one finished generation.
type SpeechEndedReport struct {
	// Marks is the number of marks confirmed before the generation ended.
	Marks int
}
