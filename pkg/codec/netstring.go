package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Netstring framing: each message travels as `<len>:<payload>,` with the
// length in decimal ASCII. This is the framing the evaluation server speaks
// on its stdio and socket transports.

// MaxFrameSize bounds a single frame. A peer announcing more than this is
// treated as corrupt rather than allocated for.
const MaxFrameSize = 64 * 1024 * 1024

// WriteNetstring frames payload onto w.
func WriteNetstring(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "%d:", len(payload)); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}

	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}

	if _, err := w.Write([]byte{','}); err != nil {
		return fmt.Errorf("write frame terminator: %w", err)
	}

	return nil
}

// ReadNetstring reads one frame from r. io.EOF is returned unwrapped when the
// stream ends cleanly at a frame boundary.
func ReadNetstring(r *bufio.Reader) ([]byte, error) {
	lengthBytes, err := r.ReadBytes(':')
	if err != nil {
		if err == io.EOF && len(lengthBytes) == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame length: %w", err)
	}

	length, err := strconv.Atoi(string(lengthBytes[:len(lengthBytes)-1]))
	if err != nil {
		return nil, fmt.Errorf("invalid frame length %q: %w", lengthBytes[:len(lengthBytes)-1], err)
	}

	if length < 0 || length > MaxFrameSize {
		return nil, fmt.Errorf("frame length %d out of range (max %d)", length, MaxFrameSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	terminator, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read frame terminator: %w", err)
	}
	if terminator != ',' {
		return nil, fmt.Errorf("invalid frame terminator 0x%02x, expected ','", terminator)
	}

	return payload, nil
}
