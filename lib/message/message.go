package message

import (
	"bytes"
	"strconv"
	"strings"
)

// Message is an ordered list of frames. A nil Message is an empty message.
type Message [][]byte

// New creates a message from the given frames. The frame list is copied, the
// frame contents are not.
func New(frames ...[]byte) Message {
	m := make(Message, len(frames))
	copy(m, frames)
	return m
}

// FromStrings creates a message with one frame per string
func FromStrings(frames ...string) Message {
	m := make(Message, len(frames))
	for i, s := range frames {
		m[i] = []byte(s)
	}
	return m
}

// Len returns the number of frames
func (m Message) Len() int {
	return len(m)
}

// Frames returns the message as a plain frame list
func (m Message) Frames() [][]byte {
	return m
}

// Clone returns a copy with the frame list detached from m
func (m Message) Clone() Message {
	return New(m...)
}

// Push appends frames to the end of the message
func (m *Message) Push(frames ...[]byte) {
	*m = append(*m, frames...)
}

// Pop removes and returns the last frame, or nil if the message is empty
func (m *Message) Pop() []byte {
	n := len(*m)
	if n == 0 {
		return nil
	}
	f := (*m)[n-1]
	*m = (*m)[:n-1]
	return f
}

// Shift removes and returns the first frame, or nil if the message is empty
func (m *Message) Shift() []byte {
	if len(*m) == 0 {
		return nil
	}
	f := (*m)[0]
	*m = (*m)[1:]
	return f
}

// Unshift prepends frames to the message, keeping their order
func (m *Message) Unshift(frames ...[]byte) {
	out := make(Message, 0, len(frames)+len(*m))
	out = append(out, frames...)
	*m = append(out, *m...)
}

// Topic returns the first frame as a string, the frame pub/sub filters match against.
// A typed string argument ("s:" prefix) is unwrapped.
func (m Message) Topic() string {
	if len(m) == 0 {
		return ""
	}
	return string(bytes.TrimPrefix(m[0], stringPrefix))
}

// String renders the frames for logging
func (m Message) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, f := range m {
		if i > 0 {
			sb.WriteString(" ")
		}
		if printable(f) {
			sb.WriteString(string(f))
		} else {
			sb.WriteString("<")
			sb.WriteString(strconv.Itoa(len(f)))
			sb.WriteString(" bytes>")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
