// Package mediachannels defines the transport boundary of a session: the
// inbound audio stream, the outbound media stream, and the control signals
// riding alongside them. Implementations adapt concrete transports, a
// websocket connection or the local capture and playback devices, to one
// channel contract.
package mediachannels

import (
	"context"
	"errors"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
)

// ErrBackpressure is returned by SendOutbound when the channel is configured
// to reject writes instead of dropping the oldest buffered frame.
var ErrBackpressure = errors.New("outbound buffer full")

type Control string

const (
	ControlStartListening Control = "start-listening"
	ControlInterrupt      Control = "interrupt"
	ControlDisconnect     Control = "disconnect"
	ControlSubmitText     Control = "submit-text"
)

// Signal is a control signal received from the client.
type Signal struct {
	Control Control
	// Text carries the prompt of a submit-text signal.
	Text string
}

// Notification is a client-visible error notice.
type Notification struct {
	Code    string
	Message string
	// Retry hints that the client may simply try again.
	Retry bool
}

// Channel is one session's media transport.
//
// NextInboundFrame and NextSignal block until something arrives, the context
// is cancelled, or the channel closes. After close both return
// [media.ErrChannelClosed]. SendOutbound never blocks: a full buffer either
// drops the oldest frame or rejects the write with [ErrBackpressure],
// depending on how the channel was configured.
type Channel interface {
	NextInboundFrame(ctx context.Context) (media.AudioFrame, error)
	NextSignal(ctx context.Context) (Signal, error)
	SendOutbound(frame media.OutboundFrame) error
	// ClearOutbound discards buffered outbound frames that have not reached
	// the wire yet, so an interrupted turn stops sounding as fast as
	// possible.
	ClearOutbound()
	Notify(notification Notification) error
	Close() error
}

// OverflowPolicy decides what SendOutbound does when the outbound buffer is
// full.
type OverflowPolicy int

const (
	// OverflowDropOldest discards buffered frames, oldest first, until the
	// new frame fits.
	OverflowDropOldest OverflowPolicy = iota
	// OverflowReject refuses the new frame with [ErrBackpressure].
	OverflowReject
)
