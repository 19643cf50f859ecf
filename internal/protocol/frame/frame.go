package frame

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
)

// PrefixLen is the size of the length prefix on every wire frame.
const PrefixLen = 4

var (
	ErrConnectionClosed = errors.New("frame: connection closed by peer")
	ErrFrameTooLarge    = errors.New("frame: frame exceeds configured limit")
)

// Limits constrains frame memory use. The wire format itself imposes no
// upper bound; a zero MaxFrameBytes keeps it that way.
type Limits struct {
	MaxFrameBytes uint32
}

func DefaultLimits() Limits {
	return Limits{}
}

// Send writes payload prefixed with its byte length as an unsigned 32-bit
// little-endian integer. Prefix and body go out in a single Write call so
// the server always sees them back to back as one logical unit.
func Send(w io.Writer, payload []byte, limits Limits) error {
	if limits.MaxFrameBytes > 0 && uint64(len(payload)) > uint64(limits.MaxFrameBytes) {
		return ErrFrameTooLarge
	}
	buf := make([]byte, PrefixLen+len(payload))
	binary.LittleEndian.PutUint32(buf[0:PrefixLen], uint32(len(payload)))
	copy(buf[PrefixLen:], payload)
	if _, err := w.Write(buf); err != nil {
		if closedErr(err) {
			return ErrConnectionClosed
		}
		return err
	}
	return nil
}

// closedErr folds the ways a peer or local close surfaces into one
// condition: plain EOF, EOF mid-read, a half-closed pipe, or a conn
// closed to abort a blocking receive.
func closedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

// Receive reads one length-prefixed frame and returns its body, blocking
// until the full frame is available. A closed peer surfaces as
// ErrConnectionClosed whether it closes before the prefix or mid-body.
func Receive(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if closedErr(err) {
			return nil, ErrConnectionClosed
		}
		return nil, err
	}

	length := binary.LittleEndian.Uint32(prefix[:])
	if limits.MaxFrameBytes > 0 && length > limits.MaxFrameBytes {
		return nil, ErrFrameTooLarge
	}
	if length == 0 {
		return []byte{}, nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if closedErr(err) {
			return nil, ErrConnectionClosed
		}
		return nil, err
	}
	return body, nil
}
