package event

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// MaxFrame bounds a single encoded event on the stream.
const MaxFrame = 1 << 20

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{MaxNestedLevels: 256}.DecMode()
	if err != nil {
		panic(err)
	}
}

// StreamWriter writes events as length-prefixed CBOR frames: a 4-byte
// big-endian length followed by the encoded Event.
type StreamWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteEvent encodes and writes one frame. It is safe for concurrent use.
func (sw *StreamWriter) WriteEvent(e Event) error {
	buf, err := encMode.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Type, err)
	}
	if len(buf) > MaxFrame {
		return fmt.Errorf("encoded event size %d exceeds limit %d", len(buf), MaxFrame)
	}

	var lengthBuf [4]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(buf)))

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if _, err := sw.w.Write(lengthBuf[:]); err != nil {
		return err
	}
	_, err = sw.w.Write(buf)
	return err
}

// Drain writes every event received on ch until ch is closed or ctx ends.
func (sw *StreamWriter) Drain(ctx context.Context, ch <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if err := sw.WriteEvent(e); err != nil {
				return err
			}
		}
	}
}

// StreamReader reads frames produced by StreamWriter.
type StreamReader struct {
	r io.Reader
}

func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// ReadEvent reads the next frame. It returns io.EOF at a clean end of stream.
func (sr *StreamReader) ReadEvent() (Event, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(sr.r, lengthBuf[:]); err != nil {
		return Event{}, err
	}

	length := binary.BigEndian.Uint32(lengthBuf[:])
	if length > MaxFrame {
		return Event{}, fmt.Errorf("frame size %d exceeds limit %d", length, MaxFrame)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(sr.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Event{}, err
	}

	var e Event
	if err := decMode.Unmarshal(buf, &e); err != nil {
		return Event{}, fmt.Errorf("decode frame: %w", err)
	}
	return e, nil
}
