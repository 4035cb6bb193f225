package zcl

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortFrame is returned when a frame is too short to hold its ZCL header.
var ErrShortFrame = errors.New("zcl: frame shorter than header")

// Header is a decoded ZCL frame header.
type Header struct {
	FrameControl     uint8
	ManufacturerCode uint16 // valid only when ManufacturerSpecific
	SeqNumber        uint8
	CommandID        uint8
}

// FrameType returns the low two bits of the frame control field.
func (h Header) FrameType() uint8 {
	return h.FrameControl & FrameTypeMask
}

// ManufacturerSpecific reports whether the header carries a manufacturer code.
func (h Header) ManufacturerSpecific() bool {
	return h.FrameControl&FrameMfrSpecific != 0
}

// DefaultResponseDisabled reports whether the sender asked for no Default Response.
func (h Header) DefaultResponseDisabled() bool {
	return h.FrameControl&FrameDisableDefaultResp != 0
}

// Len returns the encoded header length.
func (h Header) Len() int {
	if h.ManufacturerSpecific() {
		return 5
	}
	return 3
}

// ParseHeader decodes the header at the start of frame and returns it together with
// the offset of the command payload.
// Format: frame_control(1) + [mfr_code(2)] + seq(1) + cmd_id(1)
func ParseHeader(frame []byte) (Header, int, error) {
	if len(frame) < 1 {
		return Header{}, 0, ErrShortFrame
	}
	h := Header{FrameControl: frame[0]}
	n := h.Len()
	if len(frame) < n {
		return Header{}, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrShortFrame, n, len(frame))
	}
	if h.ManufacturerSpecific() {
		h.ManufacturerCode = binary.LittleEndian.Uint16(frame[1:3])
	}
	h.SeqNumber = frame[n-2]
	h.CommandID = frame[n-1]
	return h, n, nil
}

// DefaultResponse builds a general Default Response frame answering a request
// with the given sequence number and command id.
func DefaultResponse(seq, commandID, status uint8) []byte {
	return []byte{ResponseFrameControl, seq, FoundationDefaultResponse, commandID, status}
}
