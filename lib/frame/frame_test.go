package frame

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

// decodeAll feeds the stream in chunks of the given size and collects every message
func decodeAll(t *testing.T, stream []byte, chunk int) [][][]byte {
	t.Helper()

	d := NewDecoder(0)
	var out [][][]byte
	for len(stream) > 0 {
		n := chunk
		if n > len(stream) {
			n = len(stream)
		}
		_, _ = d.Write(stream[:n])
		stream = stream[n:]

		for {
			frames, ok, err := d.Next()
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !ok {
				break
			}
			out = append(out, frames)
		}
	}
	if d.Buffered() != 0 {
		t.Fatalf("expected empty decoder, %d bytes left", d.Buffered())
	}
	return out
}

func TestEncodeLayout(t *testing.T) {
	buf, err := Encode([][]byte{[]byte("hi"), {}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := []byte{0x12, 0, 0, 0, 2, 'h', 'i', 0, 0, 0, 0}
	if !bytes.Equal(buf, want) {
		t.Errorf("Expected %v, got %v", want, buf)
	}
	if Size([][]byte{[]byte("hi"), {}}) != len(want) {
		t.Errorf("Size does not match encoded length")
	}
}

func TestRoundTrip(t *testing.T) {
	allBytes := make([]byte, 256)
	for i := range allBytes {
		allBytes[i] = byte(i)
	}

	tests := []struct {
		name   string
		frames [][]byte
	}{
		{"no frames", [][]byte{}},
		{"single frame", [][]byte{[]byte("hello")}},
		{"zero length frames", [][]byte{{}, []byte("x"), {}}},
		{"all byte values", [][]byte{allBytes, []byte("tail")}},
		{"max frames", bytes.Split([]byte("a,b,c,d,e,f,g,h,i,j,k,l,m,n,o"), []byte(","))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := Encode(tt.frames)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			// every chunk size from byte-by-byte up to the full buffer
			for chunk := 1; chunk <= len(buf); chunk++ {
				got := decodeAll(t, buf, chunk)
				if len(got) != 1 {
					t.Fatalf("chunk %d: expected 1 message, got %d", chunk, len(got))
				}
				if len(got[0]) != len(tt.frames) {
					t.Fatalf("chunk %d: expected %d frames, got %d", chunk, len(tt.frames), len(got[0]))
				}
				for i := range tt.frames {
					if !bytes.Equal(got[0][i], tt.frames[i]) {
						t.Errorf("chunk %d: frame %d mismatch", chunk, i)
					}
				}
			}
		})
	}
}

func TestMultipleMessagesInOneChunk(t *testing.T) {
	var stream []byte
	var want [][][]byte
	for _, s := range []string{"one", "two", "three"} {
		frames := [][]byte{[]byte("topic"), []byte(s)}
		buf, err := Encode(frames)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		stream = append(stream, buf...)
		want = append(want, frames)
	}

	got := decodeAll(t, stream, len(stream))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}

	// a split in the middle of the second message must hold it back
	d := NewDecoder(0)
	_, _ = d.Write(stream[:len(stream)/2])
	first, ok, err := d.Next()
	if err != nil || !ok || string(first[1]) != "one" {
		t.Fatalf("expected first message, got %q ok=%v err=%v", first, ok, err)
	}
	if _, ok, _ := d.Next(); ok {
		t.Fatalf("expected incomplete second message")
	}
	_, _ = d.Write(stream[len(stream)/2:])
	for _, s := range []string{"two", "three"} {
		msg, ok, err := d.Next()
		if err != nil || !ok || string(msg[1]) != s {
			t.Fatalf("expected %q, got %q ok=%v err=%v", s, msg, ok, err)
		}
	}
}

func TestDecodedFramesAreOwned(t *testing.T) {
	buf, _ := Encode([][]byte{[]byte("abc")})
	d := NewDecoder(0)
	_, _ = d.Write(buf)
	frames, ok, err := d.Next()
	if err != nil || !ok {
		t.Fatalf("decode failed: ok=%v err=%v", ok, err)
	}

	// reusing the decoder must not alter frames already handed out
	_, _ = d.Write(buf)
	_, _, _ = d.Next()
	for i := range buf {
		buf[i] = 0
	}
	if string(frames[0]) != "abc" {
		t.Errorf("Expected frame to stay intact, got %q", frames[0])
	}
}

func TestEncodeTooManyFrames(t *testing.T) {
	frames := make([][]byte, MaxFrames+1)
	if _, err := Encode(frames); !errors.Is(err, ErrTooManyFrames) {
		t.Errorf("Expected ErrTooManyFrames, got %v", err)
	}
}

func TestProtocolErrors(t *testing.T) {
	t.Run("bad version", func(t *testing.T) {
		d := NewDecoder(0)
		_, _ = d.Write([]byte{0x21, 0, 0, 0, 0})
		_, _, err := d.Next()

		var perr *ProtocolError
		if !errors.As(err, &perr) {
			t.Fatalf("Expected ProtocolError, got %v", err)
		}

		// the decoder stays failed
		if _, _, err := d.Next(); err == nil {
			t.Errorf("Expected sticky error")
		}
	})

	t.Run("frame too large", func(t *testing.T) {
		d := NewDecoder(8)
		_, _ = d.Write([]byte{0x11, 0, 0, 0, 9})
		_, _, err := d.Next()

		var perr *ProtocolError
		if !errors.As(err, &perr) {
			t.Fatalf("Expected ProtocolError, got %v", err)
		}
	})
}
