//go:build cgo

// Package device adapts the local capture and playback devices to the media
// channel contract, for running a session against a microphone and speakers
// instead of a remote client.
package device

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
	"github.com/gen2brain/malgo"
)

const defaultInboundBufferFrames = 64

type Channel struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient

	inboundFrames chan media.AudioFrame
	seq           uint64
	seqMu         sync.Mutex

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

func WithInboundBufferFrames(frames int) ChannelOption {
	return func(o *channelOptions) {
		if frames > 0 {
			o.inboundBufferFrames = frames
		}
	}
}

func WithOutboundBufferBytes(bytes int) ChannelOption {
	return func(o *channelOptions) {
		if bytes > 0 {
			o.outboundBufferBytes = bytes
		}
	}
}

func WithOverflowPolicy(policy mediachannels.OverflowPolicy) ChannelOption {
	return func(o *channelOptions) { o.overflowPolicy = policy }
}

func WithReadTimeout(timeout time.Duration) ChannelOption {
	return func(o *channelOptions) { o.readTimeout = timeout }
}

// NewChannel initializes the capture and playback devices and starts
// streaming. Capture runs until the channel is closed.
func NewChannel(opts ...ChannelOption) (*Channel, error) {
	options := channelOptions{
		inboundBufferFrames: defaultInboundBufferFrames,
		outboundBufferBytes: 1 << 20,
		overflowPolicy:      mediachannels.OverflowDropOldest,
	}
	for _, opt := range opts {
		opt(&options)
	}

	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	channel := &Channel{
		audioContext:  audioCtx,
		inboundFrames: make(chan media.AudioFrame, options.inboundBufferFrames),
		readTimeout:   options.readTimeout,
		closed:        make(chan struct{}),
	}

	if err := channel.playbackClient.Init(audioCtx, options.outboundBufferBytes, options.overflowPolicy); err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := channel.playbackClient.Start(); err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := channel.captureClient.Init(audioCtx); err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	if err := channel.captureClient.Start(channel.onCapturedAudio); err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	return channel, nil
}

func (c *Channel) onCapturedAudio(audio []byte) {
	samples := make([]byte, len(audio))
	copy(samples, audio)

	c.seqMu.Lock()
	frame := media.AudioFrame{
		Seq:       c.seq,
		Timestamp: time.Now(),
		Samples:   samples,
	}
	c.seq++
	c.seqMu.Unlock()

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

// NextSignal blocks until the channel closes. The local devices produce no
// control signals, sessions running on a device channel are driven
// programmatically.
func (c *Channel) NextSignal(ctx context.Context) (mediachannels.Signal, error) {
	select {
	case <-ctx.Done():
		return mediachannels.Signal{}, ctx.Err()
	case <-c.closed:
		return mediachannels.Signal{}, media.ErrChannelClosed
	}
}

func (c *Channel) SendOutbound(frame media.OutboundFrame) error {
	select {
	case <-c.closed:
		return media.ErrChannelClosed
	default:
	}

	switch frame.Kind {
	case media.FrameKindAudio:
		return c.playbackClient.EnqueueAudio(frame)
	case media.FrameKindVideo:
		// nowhere to show video on a device channel
		return nil
	default:
		return fmt.Errorf("unknown frame kind: %d", frame.Kind)
	}
}

func (c *Channel) ClearOutbound() {
	c.playbackClient.ClearBuffer()
}

// Notify logs the notification locally, there is no remote client to send
// it to.
func (c *Channel) Notify(notification mediachannels.Notification) error {
	log.Println("Session notification", "code", notification.Code, "message", notification.Message)
	return nil
}

func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.captureClient.Uninit()
		_ = c.playbackClient.Uninit()
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
	})
	return nil
}

func (c *Channel) EncodingInfo() media.EncodingInfo {
	return media.GetDefaultEncodingInfo()
}
