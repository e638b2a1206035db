package events

const (
	// KindReplySegment identifies streamed reply chunk text.
	KindReplySegment Kind = "agent_reply.segment"
	// KindReplyAction identifies structured action metadata on a reply chunk.
	KindReplyAction Kind = "agent_reply.action"
	// KindReplyFinal identifies completion of the reply chunk stream.
	KindReplyFinal Kind = "agent_reply.final"
)

// ReplySegment carries one streamed reply text chunk.
type ReplySegment struct {
	Base
	TurnID  string
	Segment string
}

// NewReplySegment creates a reply segment event.
func NewReplySegment(turnID, segment string) ReplySegment {
	return ReplySegment{Base: NewBase(KindReplySegment), TurnID: turnID, Segment: segment}
}

// ReplyAction carries structured action/emotion metadata attached to a
// reply chunk.
type ReplyAction struct {
	Base
	TurnID  string
	Action  string
	Emotion string
}

// NewReplyAction creates a reply action event.
func NewReplyAction(turnID, action, emotion string) ReplyAction {
	return ReplyAction{Base: NewBase(KindReplyAction), TurnID: turnID, Action: action, Emotion: emotion}
}

// ReplyFinal marks the end of the reply chunk stream for a turn.
type ReplyFinal struct {
	Base
	TurnID string
}

// NewReplyFinal creates a reply final event.
func NewReplyFinal(turnID string) ReplyFinal {
	return ReplyFinal{Base: NewBase(KindReplyFinal), TurnID: turnID}
}
