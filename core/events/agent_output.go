package events

const (
	// KindSpeechSegment identifies a synthesized audio segment.
	KindSpeechSegment Kind = "agent_speech.segment"
	// KindSpeechSkipped identifies a chunk whose synthesis failed and was skipped.
	KindSpeechSkipped Kind = "agent_speech.skipped"
	// KindRenderFrames identifies a rendered frame batch.
	KindRenderFrames Kind = "agent_render.frames"
	// KindRenderDegraded identifies fallback to audio-only output.
	KindRenderDegraded Kind = "agent_render.degraded"
)

// SpeechSegment carries one synthesized audio segment.
type SpeechSegment struct {
	Base
	TurnID string
	Seq    uint64
	Audio  []byte
}

// NewSpeechSegment creates a speech segment event.
func NewSpeechSegment(turnID string, seq uint64, audio []byte) SpeechSegment {
	return SpeechSegment{Base: NewBase(KindSpeechSegment), TurnID: turnID, Seq: seq, Audio: audio}
}

// SpeechSkipped marks a reply chunk that produced no audio because its
// synthesis failed.
type SpeechSkipped struct {
	Base
	TurnID string
	Chunk  string
}

// NewSpeechSkipped creates a speech skipped event.
func NewSpeechSkipped(turnID, chunk string) SpeechSkipped {
	return SpeechSkipped{Base: NewBase(KindSpeechSkipped), TurnID: turnID, Chunk: chunk}
}

// RenderFrames carries the rendered frame batch for one audio segment.
type RenderFrames struct {
	Base
	TurnID     string
	SegmentSeq uint64
	Frames     int
}

// NewRenderFrames creates a render frames event.
func NewRenderFrames(turnID string, segmentSeq uint64, frames int) RenderFrames {
	return RenderFrames{Base: NewBase(KindRenderFrames), TurnID: turnID, SegmentSeq: segmentSeq, Frames: frames}
}

// RenderDegraded marks the turn falling back to audio-only output after a
// rendering failure.
type RenderDegraded struct {
	Base
	TurnID string
	Reason string
}

// NewRenderDegraded creates a render degraded event.
func NewRenderDegraded(turnID, reason string) RenderDegraded {
	return RenderDegraded{Base: NewBase(KindRenderDegraded), TurnID: turnID, Reason: reason}
}
