// Package device implements the wire protocol and connection management
// for photoelectric sensor and diverter actuator links.
package device

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame layout:
//
//	[header:2][totalLength:2 BE][commandType:2 BE][commandId:2 BE][payload:N][tail:2]
//
// totalLength covers the whole frame including header and tail.
const (
	headerByte0 = 0xEB
	headerByte1 = 0x90
	tailByte0   = 0xAA
	tailByte1   = 0x55

	frameOverhead = 10
	maxFrameSize  = 512
)

// Command types understood by the devices.
const (
	CmdTrigger      uint16 = 0x0101 // device -> host: beam break
	CmdHeartbeat    uint16 = 0x0201 // host -> device
	CmdHeartbeatAck uint16 = 0x0202 // device -> host
	CmdActuate      uint16 = 0x0301 // host -> device: fire diverter
	CmdReset        uint16 = 0x0302 // host -> device: rest position
)

// ErrMalformedFrame reports a protocol decode failure. The connection is
// kept alive; the decoder resynchronizes on the next header.
var ErrMalformedFrame = errors.New("device: malformed frame")

// Frame is one decoded protocol frame.
type Frame struct {
	Type    uint16
	ID      uint16
	Payload []byte
}

// Encode serializes a frame for the wire.
func Encode(f Frame) []byte {
	total := frameOverhead + len(f.Payload)
	buf := make([]byte, 0, total)
	buf = append(buf, headerByte0, headerByte1)
	buf = binary.BigEndian.AppendUint16(buf, uint16(total))
	buf = binary.BigEndian.AppendUint16(buf, f.Type)
	buf = binary.BigEndian.AppendUint16(buf, f.ID)
	buf = append(buf, f.Payload...)
	buf = append(buf, tailByte0, tailByte1)
	return buf
}

// Decode reads the next frame from r. On a framing error it consumes one
// byte and returns ErrMalformedFrame so the caller can resynchronize
// without dropping the connection. Any other error is an I/O failure.
func Decode(r *bufio.Reader) (Frame, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return Frame{}, err
	}
	if b0 != headerByte0 {
		return Frame{}, fmt.Errorf("%w: bad header byte 0x%02x", ErrMalformedFrame, b0)
	}
	b1, err := r.ReadByte()
	if err != nil {
		return Frame{}, err
	}
	if b1 != headerByte1 {
		return Frame{}, fmt.Errorf("%w: bad header byte 0x%02x", ErrMalformedFrame, b1)
	}
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Frame{}, err
	}
	total := int(binary.BigEndian.Uint16(lenBuf[:]))
	if total < frameOverhead || total > maxFrameSize {
		return Frame{}, fmt.Errorf("%w: length %d out of range", ErrMalformedFrame, total)
	}
	rest := make([]byte, total-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return Frame{}, err
	}
	if rest[len(rest)-2] != tailByte0 || rest[len(rest)-1] != tailByte1 {
		return Frame{}, fmt.Errorf("%w: bad tail", ErrMalformedFrame)
	}
	f := Frame{
		Type: binary.BigEndian.Uint16(rest[0:2]),
		ID:   binary.BigEndian.Uint16(rest[2:4]),
	}
	if payload := rest[4 : len(rest)-2]; len(payload) > 0 {
		f.Payload = append([]byte(nil), payload...)
	}
	return f, nil
}
