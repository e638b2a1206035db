package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrChannelClosed reports that the media channel is gone for good, as
// opposed to a transient read timeout.
var ErrChannelClosed = errors.New("media channel closed")

// ErrReadTimeout reports that no inbound frame arrived in time. The channel
// is still usable.
var ErrReadTimeout = errors.New("media read timed out")

type FrameKind byte

const (
	FrameKindAudio FrameKind = 0x01
	FrameKindVideo FrameKind = 0x02
)

// AudioFrame is one inbound chunk of raw audio samples. Frames within a
// session are ordered by Seq; gaps mean dropped media and are tolerated.
type AudioFrame struct {
	Seq       uint64
	Timestamp time.Time
	Samples   []byte
}

// VideoFrame is one rendered avatar frame positioned on its source audio
// segment's timeline.
type VideoFrame struct {
	Seq       uint64
	Timestamp time.Time
	Payload   []byte
}

// OutboundFrame is the unit the media channel transports back to the
// client. TurnID tags the producing turn so stale frames from a cancelled
// turn can be dropped before delivery.
type OutboundFrame struct {
	TurnID    string
	Kind      FrameKind
	Seq       uint64
	Timestamp time.Time
	Payload   []byte
}

// Wire format, little endian:
//
//	kind(1) seq(8) timestampUnixNano(8) turnIDLen(2) turnID payloadLen(4) payload
const outboundFrameHeaderSize = 1 + 8 + 8 + 2 + 4

func (f *OutboundFrame) MarshalBinary() ([]byte, error) {
	if len(f.TurnID) > 0xFFFF {
		return nil, fmt.Errorf("turn id too long: %d bytes", len(f.TurnID))
	}

	buf := make([]byte, outboundFrameHeaderSize+len(f.TurnID)+len(f.Payload))

	offset := 0
	buf[offset] = byte(f.Kind)
	offset++

	binary.LittleEndian.PutUint64(buf[offset:], f.Seq)
	offset += 8

	binary.LittleEndian.PutUint64(buf[offset:], uint64(f.Timestamp.UnixNano()))
	offset += 8

	binary.LittleEndian.PutUint16(buf[offset:], uint16(len(f.TurnID)))
	offset += 2
	copy(buf[offset:], f.TurnID)
	offset += len(f.TurnID)

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(f.Payload)))
	offset += 4
	copy(buf[offset:], f.Payload)

	return buf, nil
}

func (f *OutboundFrame) UnmarshalBinary(data []byte) error {
	if len(data) < outboundFrameHeaderSize {
		return fmt.Errorf("outbound frame too short: %d bytes", len(data))
	}

	offset := 0
	f.Kind = FrameKind(data[offset])
	offset++

	f.Seq = binary.LittleEndian.Uint64(data[offset:])
	offset += 8

	f.Timestamp = time.Unix(0, int64(binary.LittleEndian.Uint64(data[offset:])))
	offset += 8

	turnIDLen := int(binary.LittleEndian.Uint16(data[offset:]))
	offset += 2
	if len(data[offset:]) < turnIDLen+4 {
		return fmt.Errorf("outbound frame truncated in turn id")
	}
	f.TurnID = string(data[offset : offset+turnIDLen])
	offset += turnIDLen

	payloadLen := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if len(data[offset:]) < payloadLen {
		return fmt.Errorf("outbound frame truncated in payload")
	}
	f.Payload = make([]byte, payloadLen)
	copy(f.Payload, data[offset:offset+payloadLen])

	return nil
}
