package dialogue

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one appended entry of a session's conversation history. Turns
// are immutable once appended.
type Turn struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// Action is structured non-verbal metadata attached to a reply chunk:
// a motion cue and/or an expression cue for the avatar.
type Action struct {
	Name    string
	Emotion string
}

// ReplyChunk is one ordered unit of agent output. Chunks for a turn are
// delivered downstream in emission order; the stream is finite and closed
// by a chunk with End set. A chunk may carry only an action (empty Text).
type ReplyChunk struct {
	Text   string
	Action *Action
	End    bool
}

// IsActionOnly reports whether the chunk carries no speakable text.
func (c ReplyChunk) IsActionOnly() bool {
	return c.Text == "" && c.Action != nil
}
