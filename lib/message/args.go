package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	stringPrefix = []byte("s:")
	jsonPrefix   = []byte("j:")
	jsonNull     = []byte("j:null")
)

// EncodeArg encodes a single value as a frame.
// []byte is passed through, string gets the "s:" prefix, nil and every other
// value is JSON encoded with the "j:" prefix.
func EncodeArg(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return append(append(make([]byte, 0, len(stringPrefix)+len(t)), stringPrefix...), t...), nil
	case nil:
		return jsonNull, nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("message: encode arg: %w", err)
		}
		return append(append(make([]byte, 0, len(jsonPrefix)+len(data)), jsonPrefix...), data...), nil
	}
}

// DecodeArg is the inverse of EncodeArg. JSON payloads decode into the generic
// encoding/json representation (map[string]any, []any, float64, ...).
func DecodeArg(f []byte) (any, error) {
	switch {
	case bytes.HasPrefix(f, stringPrefix):
		return string(f[len(stringPrefix):]), nil
	case bytes.HasPrefix(f, jsonPrefix):
		var v any
		if err := json.Unmarshal(f[len(jsonPrefix):], &v); err != nil {
			return nil, fmt.Errorf("message: decode arg: %w", err)
		}
		return v, nil
	default:
		return f, nil
	}
}

// FromArgs builds a message with one typed frame per argument
func FromArgs(args ...any) (Message, error) {
	m := make(Message, len(args))
	for i, a := range args {
		f, err := EncodeArg(a)
		if err != nil {
			return nil, err
		}
		m[i] = f
	}
	return m, nil
}

// Args decodes every frame with DecodeArg
func (m Message) Args() ([]any, error) {
	out := make([]any, len(m))
	for i, f := range m {
		v, err := DecodeArg(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Reply error slot
// --------------------------------------------------------------------------

// RemoteError is an error reported by the replying peer
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// EncodeError encodes the error slot of a reply. A nil error is sent as JSON null.
func EncodeError(err error) []byte {
	if err == nil {
		return jsonNull
	}
	f, _ := EncodeArg(err.Error())
	return f
}

// DecodeError decodes the error slot of a reply.
// Empty frames and JSON null mean success. String slots and JSON objects with a
// "message" field become a *RemoteError, as does any other non-empty payload.
func DecodeError(f []byte) error {
	if len(f) == 0 || bytes.Equal(f, jsonNull) {
		return nil
	}

	v, err := DecodeArg(f)
	if err != nil {
		return &RemoteError{Message: string(f)}
	}

	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		if !t {
			return nil
		}
	case string:
		return &RemoteError{Message: t}
	case map[string]any:
		if msg, ok := t["message"].(string); ok {
			return &RemoteError{Message: msg}
		}
	case []byte:
		return &RemoteError{Message: string(t)}
	}
	return &RemoteError{Message: string(f[len(jsonPrefix):])}
}

// SplitReply separates the error slot from the payload of a reply message.
// A reply without any frame is treated as a success without payload.
func SplitReply(m Message) (Message, error) {
	if len(m) == 0 {
		return m, nil
	}
	return m[1:], DecodeError(m[0])
}

// IsRemote reports whether err was raised by the replying peer
func IsRemote(err error) bool {
	var r *RemoteError
	return errors.As(err, &r)
}
