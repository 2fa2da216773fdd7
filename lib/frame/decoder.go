package frame

import (
	"encoding/binary"
)

// Decoder reassembles messages from an arbitrarily chunked byte stream.
// A Decoder holds the partial state of exactly one connection and is not safe
// for concurrent use.
type Decoder struct {
	buf          []byte
	r            int // read offset into buf
	maxFrameSize int
	err          error
}

// NewDecoder creates a decoder that rejects frames larger than maxFrameSize.
// A size <= 0 selects DefaultMaxFrameSize.
func NewDecoder(maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Decoder{maxFrameSize: maxFrameSize}
}

// Write appends stream bytes to the decoder. The bytes are copied so the caller
// may reuse p. Write never fails, it implements io.Writer for convenience.
func (d *Decoder) Write(p []byte) (int, error) {
	// compact once the consumed prefix dominates the buffer
	if d.r > 0 && d.r >= len(d.buf)/2 {
		n := copy(d.buf, d.buf[d.r:])
		d.buf = d.buf[:n]
		d.r = 0
	}
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Buffered returns the number of bytes held that do not yet form a full message
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.r
}

// Next returns the next complete message. ok is false if more input is needed.
// Once a ProtocolError was returned the decoder stays failed.
func (d *Decoder) Next() (frames [][]byte, ok bool, err error) {
	if d.err != nil {
		return nil, false, d.err
	}

	data := d.buf[d.r:]
	if len(data) < headerSize {
		return nil, false, nil
	}

	version := int(data[0] >> 4)
	count := int(data[0] & 0x0f)
	if version != Version {
		d.err = protocolErrorf("unsupported version %d", version)
		return nil, false, d.err
	}

	// first pass: make sure the whole message is present
	off := headerSize
	for i := 0; i < count; i++ {
		if len(data) < off+lengthSize {
			return nil, false, nil
		}
		n := binary.BigEndian.Uint32(data[off:])
		if uint64(n) > uint64(d.maxFrameSize) {
			d.err = protocolErrorf("frame of %d bytes exceeds limit of %d", n, d.maxFrameSize)
			return nil, false, d.err
		}
		off += lengthSize + int(n)
		if len(data) < off {
			return nil, false, nil
		}
	}

	// second pass: copy the frames into one backing array owned by the message
	backing := make([]byte, off-headerSize-count*lengthSize)
	frames = make([][]byte, count)
	pos := headerSize
	for i := range frames {
		n := int(binary.BigEndian.Uint32(data[pos:]))
		pos += lengthSize
		frames[i] = backing[:n:n]
		copy(frames[i], data[pos:pos+n])
		backing = backing[n:]
		pos += n
	}

	d.r += off
	if d.r == len(d.buf) {
		d.buf = d.buf[:0]
		d.r = 0
	}
	return frames, true, nil
}
