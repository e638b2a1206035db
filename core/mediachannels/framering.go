package mediachannels

import (
	"errors"
	"sync"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/smallnest/ringbuffer"
)

// FrameRing is a bounded byte ring holding marshalled outbound frames, each
// stored behind a 4-byte little endian size prefix. When full it either
// drops the oldest frame or rejects the write, per the overflow policy.
type FrameRing struct {
	mu     sync.Mutex
	rb     *ringbuffer.RingBuffer
	policy OverflowPolicy

	// updateSignal has capacity 1 and receives a token whenever a frame is
	// enqueued, so a single consumer can wait without polling.
	updateSignal chan struct{}
}

func NewFrameRing(size int, policy OverflowPolicy) *FrameRing {
	return &FrameRing{
		rb:           ringbuffer.New(size).SetBlocking(false),
		policy:       policy,
		updateSignal: make(chan struct{}, 1),
	}
}

// Enqueue adds a frame to the ring. With [OverflowDropOldest] it evicts
// frames, oldest first, until the new frame fits. With [OverflowReject] it
// returns [ErrBackpressure] instead, leaving the buffered frames alone.
func (r *FrameRing) Enqueue(frame media.OutboundFrame) error {
	data, err := frame.MarshalBinary()
	if err != nil {
		return err
	}

	requiredSpace := len(data) + 4
	r.mu.Lock()
	defer r.mu.Unlock()

	if requiredSpace > r.rb.Capacity() {
		return errors.New("frame too large for outbound buffer")
	}

	if r.rb.Free() < requiredSpace && r.policy == OverflowReject {
		return ErrBackpressure
	}
	for r.rb.Free() < requiredSpace {
		if !r.removeOldestFrame() {
			r.rb.Reset()
			break
		}
	}

	sizeBytes := []byte{
		byte(len(data)),
		byte(len(data) >> 8),
		byte(len(data) >> 16),
		byte(len(data) >> 24),
	}
	if _, err := r.rb.Write(sizeBytes); err != nil {
		return err
	}
	if _, err := r.rb.Write(data); err != nil {
		return err
	}

	select {
	case r.updateSignal <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue removes and returns the oldest frame. It reports false when the
// ring is empty.
func (r *FrameRing) Dequeue() (media.OutboundFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dequeueLocked()
}

func (r *FrameRing) dequeueLocked() (media.OutboundFrame, bool) {
	if r.rb.IsEmpty() {
		return media.OutboundFrame{}, false
	}

	sizeBytes := make([]byte, 4)
	n, err := r.rb.Read(sizeBytes)
	if err != nil || n != 4 {
		return media.OutboundFrame{}, false
	}
	size := int(sizeBytes[0]) | int(sizeBytes[1])<<8 | int(sizeBytes[2])<<16 | int(sizeBytes[3])<<24

	data := make([]byte, size)
	n, err = r.rb.Read(data)
	if err != nil || n != size {
		return media.OutboundFrame{}, false
	}

	var frame media.OutboundFrame
	if err := frame.UnmarshalBinary(data); err != nil {
		return media.OutboundFrame{}, false
	}

	return frame, true
}

func (r *FrameRing) removeOldestFrame() bool {
	if r.rb.IsEmpty() {
		return false
	}

	sizeBytes := make([]byte, 4)
	n, err := r.rb.Read(sizeBytes)
	if err != nil || n != 4 {
		return false
	}
	size := int(sizeBytes[0]) | int(sizeBytes[1])<<8 | int(sizeBytes[2])<<16 | int(sizeBytes[3])<<24

	if size > 0 {
		skipData := make([]byte, size)
		n, err := r.rb.Read(skipData)
		if err != nil || n != size {
			return false
		}
	}

	return true
}

// Clear discards all buffered frames.
func (r *FrameRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rb.Reset()
}

// Updates exposes the enqueue signal for a consumer loop. The channel holds
// at most one pending token, a receiver should drain the ring fully after
// each token.
func (r *FrameRing) Updates() <-chan struct{} {
	return r.updateSignal
}

// Len returns the number of buffered bytes, size prefixes included.
func (r *FrameRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rb.Length()
}

// IsEmpty reports whether no frames are buffered.
func (r *FrameRing) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rb.IsEmpty()
}
