package rendering

import "github.com/C32-SoundTech/SoundTech-DH/core/media"

type RenderOptions struct {
	// FrameCallback is called for every rendered frame, tagged with the
	// sequence number of the audio segment it animates.
	FrameCallback func(segmentSeq uint64, frame []byte)
	// SegmentRenderedCallback is called once per audio segment, after all
	// frames for the segment have been produced.
	SegmentRenderedCallback func(segmentSeq uint64)
	// RenderEndedCallback is called after all submitted audio has been
	// rendered.
	RenderEndedCallback func(RenderEndedReport)
	// ErrorCallback is called when the renderer encounters an error, this
	// usually means the generator has been cancelled.
	ErrorCallback func(error)

	EncodingInfo media.EncodingInfo
	// FrameRate is the requested animation rate in frames per second.
	FrameRate int
}

type RenderOption func(*RenderOptions)

func WithFrameCallback(callback func(segmentSeq uint64, frame []byte)) RenderOption {
	return func(o *RenderOptions) { o.FrameCallback = callback }
}

func WithSegmentRenderedCallback(callback func(segmentSeq uint64)) RenderOption {
	return func(o *RenderOptions) { o.SegmentRenderedCallback = callback }
}

func WithRenderEndedCallback(callback func(RenderEndedReport)) RenderOption {
	return func(o *RenderOptions) { o.RenderEndedCallback = callback }
}

func WithErrorCallback(callback func(error)) RenderOption {
	return func(o *RenderOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo media.EncodingInfo) RenderOption {
	return func(o *RenderOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

func WithFrameRate(frameRate int) RenderOption {
	return func(o *RenderOptions) {
		if frameRate <= 0 {
			return
		}

		o.FrameRate = frameRate
	}
}

// FrameGenerator animates audio segments into avatar frames. Segments are
// rendered in submission order and frames for a segment are delivered before
// its SegmentRenderedCallback fires.
type FrameGenerator interface {
	// SendAudio submits one audio segment for rendering.
	//
	// SendAudio will error if EndOfAudio, Cancel or Close has been called.
	SendAudio(segmentSeq uint64, audio []byte) error
	// SendAction cues a gesture or emotion change, applied from the next
	// rendered frame onward.
	SendAction(name string, emotion string) error
	// EndOfAudio signals that no more audio will be sent. The generator
	// closes itself after all remaining frames have been produced.
	//
	// EndOfAudio will error if Cancel or Close has been called.
	// Repeated calls to EndOfAudio are ignored.
	EndOfAudio() error
	// Cancel immediately stops further rendering and closes the generator.
	//
	// Cancel will error if Close has been called.
	// Repeated calls to Cancel are ignored.
	Cancel() error
	// Close immediately closes the generator. No more frames will be
	// produced after this call.
	//
	// Repeated calls to Close are ignored.
	Close() error
}

// RenderEndedReport summarizes one finished render.
type RenderEndedReport struct {
	// Segments is the number of audio segments rendered.
	Segments int
	// Frames is the total number of frames produced.
	Frames int
}
