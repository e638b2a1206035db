package events

const (
	// KindStartListening identifies the start-listening control signal.
	KindStartListening Kind = "control.start_listening"
	// KindInterrupt identifies the interrupt control signal.
	KindInterrupt Kind = "control.interrupt"
	// KindDisconnect identifies the disconnect control signal.
	KindDisconnect Kind = "control.disconnect"
)

// StartListening asks the session to open the microphone path.
type StartListening struct{ Base }

// NewStartListening creates a start listening control event.
func NewStartListening() StartListening {
	return StartListening{Base: NewBase(KindStartListening)}
}

// Interrupt asks the session to cancel the in-flight turn.
type Interrupt struct{ Base }

// NewInterrupt creates an interrupt control event.
func NewInterrupt() Interrupt {
	return Interrupt{Base: NewBase(KindInterrupt)}
}

// Disconnect asks the session to tear down.
type Disconnect struct{ Base }

// NewDisconnect creates a disconnect control event.
func NewDisconnect() Disconnect {
	return Disconnect{Base: NewBase(KindDisconnect)}
}
