// Package websocket adapts an accepted websocket connection to the media
// channel contract. Audio travels as binary messages, one frame per message
// inbound and one marshalled outbound frame per message outbound. Control
// signals and notifications travel as small JSON text messages.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
	gorilla "github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second
	// pongWait is how long the peer may stay silent before the read side
	// gives up. Pings go out at pingPeriod to keep a healthy peer inside
	// the window.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultInboundBufferFrames = 64
	defaultOutboundBufferBytes = 1 << 20
)

type Channel struct {
	conn    *gorilla.Conn
	writeMu sync.Mutex

	inboundFrames chan media.AudioFrame
	signals       chan mediachannels.Signal
	outbound      *mediachannels.FrameRing

	readTimeout time.Duration

	closed    chan struct{}
	closeOnce sync.Once
}

type ChannelOption func(*channelOptions)

type channelOptions struct {
	inboundBufferFrames int
	outboundBufferBytes int
	overflowPolicy      mediachannels.OverflowPolicy
	readTimeout         time.Duration
}

// WithInboundBufferFrames bounds how many inbound audio frames may wait for
// the consumer before the oldest is dropped.
func WithInboundBufferFrames(frames int) ChannelOption {
	return func(o *channelOptions) {
		if frames > 0 {
			o.inboundBufferFrames = frames
		}
	}
}

// WithOutboundBufferBytes bounds the outbound frame buffer.
func WithOutboundBufferBytes(bytes int) ChannelOption {
	return func(o *channelOptions) {
		if bytes > 0 {
			o.outboundBufferBytes = bytes
		}
	}
}

// WithOverflowPolicy picks what SendOutbound does when the outbound buffer
// is full. The default drops the oldest buffered frame.
func WithOverflowPolicy(policy mediachannels.OverflowPolicy) ChannelOption {
	return func(o *channelOptions) { o.overflowPolicy = policy }
}

// WithReadTimeout makes NextInboundFrame return [media.ErrReadTimeout] when
// no frame arrives in time, instead of blocking until the context ends.
func WithReadTimeout(timeout time.Duration) ChannelOption {
	return func(o *channelOptions) { o.readTimeout = timeout }
}

// NewChannel wraps an already accepted connection. The channel owns the
// connection from here on and closes it when the channel closes.
func NewChannel(conn *gorilla.Conn, opts ...ChannelOption) *Channel {
	options := channelOptions{
		inboundBufferFrames: defaultInboundBufferFrames,
		outboundBufferBytes: defaultOutboundBufferBytes,
		overflowPolicy:      mediachannels.OverflowDropOldest,
	}
	for _, opt := range opts {
		opt(&options)
	}

	channel := &Channel{
		conn:          conn,
		inboundFrames: make(chan media.AudioFrame, options.inboundBufferFrames),
		signals:       make(chan mediachannels.Signal, 16),
		outbound:      mediachannels.NewFrameRing(options.outboundBufferBytes, options.overflowPolicy),
		readTimeout:   options.readTimeout,
		closed:        make(chan struct{}),
	}

	go channel.readLoop()
	go channel.writeLoop()

	return channel
}

func (c *Channel) readLoop() {
	defer c.shutdown()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var seq uint64
	for {
		msgType, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) && !c.isClosed() {
				log.Println("Failed to read websocket message", "error", err)
			}
			return
		}

		switch msgType {
		case gorilla.BinaryMessage:
			if len(msg) == 0 {
				continue
			}
			frame := media.AudioFrame{
				Seq:       seq,
				Timestamp: time.Now(),
				Samples:   msg,
			}
			seq++

			for {
				select {
				case c.inboundFrames <- frame:
				default:
					// consumer is behind, drop the oldest frame and retry
					select {
					case <-c.inboundFrames:
					default:
					}
					continue
				}
				break
			}
		case gorilla.TextMessage:
			c.handleTextMessage(msg)
		}
	}
}

func (c *Channel) handleTextMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal websocket message", "error", err)
		return
	}

	signal := mediachannels.Signal{Control: mediachannels.Control(parsedMsg.Type), Text: parsedMsg.Text}
	switch signal.Control {
	case mediachannels.ControlStartListening,
		mediachannels.ControlInterrupt,
		mediachannels.ControlDisconnect,
		mediachannels.ControlSubmitText:
	default:
		log.Println("Dropping unknown control signal", "type", parsedMsg.Type)
		return
	}

	for {
		select {
		case c.signals <- signal:
		default:
			select {
			case <-c.signals:
			default:
			}
			continue
		}
		break
	}
}

func (c *Channel) writeLoop() {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-c.outbound.Updates():
			for {
				frame, ok := c.outbound.Dequeue()
				if !ok {
					break
				}
				data, err := frame.MarshalBinary()
				if err != nil {
					continue
				}
				if err := c.write(gorilla.BinaryMessage, data); err != nil {
					c.shutdown()
					return
				}
			}
		case <-pingTicker.C:
			if err := c.write(gorilla.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		}
	}
}

func (c *Channel) write(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(msgType, data)
}

func (c *Channel) NextInboundFrame(ctx context.Context) (media.AudioFrame, error) {
	var timeout <-chan time.Time
	if c.readTimeout > 0 {
		timer := time.NewTimer(c.readTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case frame := <-c.inboundFrames:
		return frame, nil
	case <-timeout:
		return media.AudioFrame{}, media.ErrReadTimeout
	case <-ctx.Done():
		return media.AudioFrame{}, ctx.Err()
	case <-c.closed:
		return media.AudioFrame{}, media.ErrChannelClosed
	}
}

func (c *Channel) NextSignal(ctx context.Context) (mediachannels.Signal, error) {
	select {
	case signal := <-c.signals:
		return signal, nil
	case <-ctx.Done():
		return mediachannels.Signal{}, ctx.Err()
	case <-c.closed:
		return mediachannels.Signal{}, media.ErrChannelClosed
	}
}

func (c *Channel) SendOutbound(frame media.OutboundFrame) error {
	if c.isClosed() {
		return media.ErrChannelClosed
	}

	return c.outbound.Enqueue(frame)
}

func (c *Channel) ClearOutbound() {
	c.outbound.Clear()
}

func (c *Channel) Notify(notification mediachannels.Notification) error {
	if c.isClosed() {
		return media.ErrChannelClosed
	}

	msg, err := json.Marshal(struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Retry   bool   `json:"retry"`
	}{Type: "notification", Code: notification.Code, Message: notification.Message, Retry: notification.Retry})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := c.write(gorilla.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

func (c *Channel) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Channel) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.write(gorilla.CloseMessage,
			gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""))
		_ = c.conn.Close()
	})
}

func (c *Channel) Close() error {
	c.shutdown()
	return nil
}
