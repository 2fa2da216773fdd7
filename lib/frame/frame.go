package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// Version is the protocol version written into every message header
	Version = 1
	// MaxFrames is the largest number of frames a single message can carry
	MaxFrames = 15
	// DefaultMaxFrameSize is the largest single frame accepted by a Decoder created with size 0
	DefaultMaxFrameSize = 64 << 20

	headerSize = 1
	lengthSize = 4
)

// ErrTooManyFrames is returned by Encode for messages with more than MaxFrames frames
var ErrTooManyFrames = errors.New("frame: too many frames")

// ProtocolError reports malformed stream input
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "frame: protocol error: " + e.Reason
}

func protocolErrorf(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// Size returns the number of bytes Encode produces for the given frames
func Size(frames [][]byte) int {
	n := headerSize
	for _, f := range frames {
		n += lengthSize + len(f)
	}
	return n
}

// Check validates that the frames can be encoded without building the buffer
func Check(frames [][]byte) error {
	if len(frames) > MaxFrames {
		return fmt.Errorf("%w: %d > %d", ErrTooManyFrames, len(frames), MaxFrames)
	}
	for i, f := range frames {
		if uint64(len(f)) > math.MaxUint32 {
			return fmt.Errorf("frame: frame %d exceeds %d bytes", i, uint32(math.MaxUint32))
		}
	}
	return nil
}

// Encode serialises the frames into a single wire buffer
func Encode(frames [][]byte) ([]byte, error) {
	if err := Check(frames); err != nil {
		return nil, err
	}

	buf := make([]byte, Size(frames))
	buf[0] = byte(Version<<4 | len(frames))

	off := headerSize
	for _, f := range frames {
		binary.BigEndian.PutUint32(buf[off:], uint32(len(f)))
		off += lengthSize
		off += copy(buf[off:], f)
	}
	return buf, nil
}
