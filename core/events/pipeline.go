package events

const (
	// KindStateChanged identifies a session state machine transition.
	KindStateChanged Kind = "pipeline.state_changed"
	// KindTurnStarted identifies a dialogue turn entering flight.
	KindTurnStarted Kind = "pipeline.turn_started"
	// KindTurnCompleted identifies successful completion of a turn.
	KindTurnCompleted Kind = "pipeline.turn_completed"
	// KindTurnFailed identifies turn failure.
	KindTurnFailed Kind = "pipeline.turn_failed"
	// KindTurnCancelled identifies turn cancellation.
	KindTurnCancelled Kind = "pipeline.turn_cancelled"
)

// StateChanged marks a transition of the session state machine.
type StateChanged struct {
	Base
	From string
	To   string
}

// NewStateChanged creates a state changed event.
func NewStateChanged(from, to string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), From: from, To: to}
}

// TurnStarted marks a dialogue turn entering flight.
type TurnStarted struct {
	Base
	TurnID string
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(turnID string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), TurnID: turnID}
}

// TurnCompleted marks successful completion of a turn.
type TurnCompleted struct {
	Base
	TurnID string
}

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted(turnID string) TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted), TurnID: turnID}
}

// TurnFailed marks turn failure.
type TurnFailed struct {
	Base
	TurnID string
	Reason string
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(turnID, reason string) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), TurnID: turnID, Reason: reason}
}

// TurnCancelled marks cancellation of the current turn.
type TurnCancelled struct {
	Base
	TurnID string
}

// NewTurnCancelled creates a turn cancelled event.
func NewTurnCancelled(turnID string) TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled), TurnID: turnID}
}
