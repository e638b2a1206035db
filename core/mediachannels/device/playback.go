//go:build cgo

package device

import (
	"fmt"
	"sync"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
	"github.com/gen2brain/malgo"
)

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	// frames holds outbound frames not yet handed to the device, working
	// holds the samples of frames currently being drained.
	frames    *mediachannels.FrameRing
	working   []byte
	workingMu sync.Mutex

	mu sync.Mutex
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, bufferBytes int, policy mediachannels.OverflowPolicy) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(media.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext
	c.frames = mediachannels.NewFrameRing(bufferBytes, policy)

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.ClearBuffer()
	return nil
}

func (c *playbackClient) EnqueueAudio(frame media.OutboundFrame) error {
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	return c.frames.Enqueue(frame)
}

func (c *playbackClient) ClearBuffer() {
	if c.frames != nil {
		c.frames.Clear()
	}
	c.workingMu.Lock()
	c.working = nil
	c.workingMu.Unlock()
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.workingMu.Lock()
		defer c.workingMu.Unlock()

		for len(c.working) < need {
			frame, ok := c.frames.Dequeue()
			if !ok {
				break
			}
			c.working = append(c.working, frame.Payload...)
		}

		if len(c.working) == 0 {
			return
		}

		n := copy(pOutput, c.working)
		c.working = c.working[n:]
	}
}
