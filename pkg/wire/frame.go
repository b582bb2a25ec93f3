package wire

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// MaxFrameSize is the default payload limit for ReadFrame.
const MaxFrameSize uint32 = 1 << 20

// Frame layout: [len:4, big-endian][payload:len]

func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame. I/O failures are returned as they are; an
// oversized length or a non-UTF-8 payload wraps ErrDecode.
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	if limit == 0 {
		limit = MaxFrameSize
	}
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > limit {
		return nil, decodeErr("frame of %d bytes exceeds %d", n, limit)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if !utf8.Valid(payload) {
		return nil, decodeErr("payload is not valid UTF-8")
	}
	return payload, nil
}

func WriteMessage(w io.Writer, m Message) error {
	return WriteFrame(w, Encode(m))
}

func ReadMessage(r io.Reader, limit uint32) (Message, error) {
	payload, err := ReadFrame(r, limit)
	if err != nil {
		return Message{}, err
	}
	return Decode(payload)
}
