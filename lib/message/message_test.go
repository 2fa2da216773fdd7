package message

import (
	"errors"
	"reflect"
	"testing"
)

func TestFrameOperations(t *testing.T) {
	m := FromStrings("b", "c")

	m.Unshift([]byte("a"))
	m.Push([]byte("d"), []byte("e"))
	if got := m.String(); got != "[a b c d e]" {
		t.Fatalf("Expected [a b c d e], got %s", got)
	}

	if f := m.Pop(); string(f) != "e" {
		t.Errorf("Expected pop to return e, got %q", f)
	}
	if f := m.Shift(); string(f) != "a" {
		t.Errorf("Expected shift to return a, got %q", f)
	}
	if m.Len() != 3 || m.Topic() != "b" {
		t.Errorf("Expected [b c d], got %s", m)
	}

	var empty Message
	if empty.Pop() != nil || empty.Shift() != nil || empty.Topic() != "" {
		t.Errorf("Expected empty message operations to return zero values")
	}
}

func TestNewCopiesFrameList(t *testing.T) {
	frames := [][]byte{[]byte("x")}
	m := New(frames...)
	frames[0] = []byte("y")
	if string(m[0]) != "x" {
		t.Errorf("Expected frame list to be detached")
	}
}

func TestTopicUnwrapsTypedString(t *testing.T) {
	m, _ := FromArgs("news", "body")
	if m.Topic() != "news" {
		t.Errorf("Expected topic news, got %q", m.Topic())
	}
	if FromStrings("raw").Topic() != "raw" {
		t.Errorf("Expected raw topic")
	}
}

func TestStringHidesBinary(t *testing.T) {
	m := New([]byte("topic"), []byte{0, 1, 2})
	if got := m.String(); got != "[topic <3 bytes>]" {
		t.Errorf("Unexpected rendering %s", got)
	}
}

func TestArgs(t *testing.T) {
	m, err := FromArgs("hello", []byte{0xff}, nil, map[string]any{"n": 1.0}, 42)
	if err != nil {
		t.Fatalf("FromArgs failed: %v", err)
	}

	wantFrames := []string{"s:hello", "\xff", "j:null", `j:{"n":1}`, "j:42"}
	for i, w := range wantFrames {
		if string(m[i]) != w {
			t.Errorf("frame %d: expected %q, got %q", i, w, m[i])
		}
	}

	args, err := m.Args()
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	want := []any{"hello", []byte{0xff}, nil, map[string]any{"n": 1.0}, 42.0}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Expected %v, got %v", want, args)
	}

	if _, err := DecodeArg([]byte("j:{broken")); err == nil {
		t.Errorf("Expected error for invalid JSON")
	}
}

func TestReplyErrorSlot(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		wantErr string
	}{
		{"null", EncodeError(nil), ""},
		{"empty", []byte{}, ""},
		{"string", EncodeError(errors.New("boom")), "boom"},
		{"object", []byte(`j:{"message":"bad request"}`), "bad request"},
		{"raw", []byte("oops"), "oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecodeError(tt.frame)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected nil error, got %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("Expected %q, got %v", tt.wantErr, err)
			}
			if !IsRemote(err) {
				t.Errorf("Expected a RemoteError")
			}
		})
	}
}

func TestSplitReply(t *testing.T) {
	body, err := SplitReply(New(EncodeError(nil), []byte("pong")))
	if err != nil || body.Len() != 1 || string(body[0]) != "pong" {
		t.Errorf("Unexpected split: %s %v", body, err)
	}

	body, err = SplitReply(nil)
	if err != nil || body.Len() != 0 {
		t.Errorf("Expected empty success for empty reply")
	}
}
