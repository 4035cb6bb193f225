package zcl

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseHeaderGeneral(t *testing.T) {
	h, off, err := ParseHeader([]byte{0x00, 0x2A, FoundationReadAttributes, 0x00, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if off != 3 {
		t.Errorf("offset = %d, want 3", off)
	}
	if h.FrameType() != FrameTypeGlobal {
		t.Errorf("frame type = %d, want global", h.FrameType())
	}
	if h.SeqNumber != 0x2A || h.CommandID != FoundationReadAttributes {
		t.Errorf("seq/cmd = %02X/%02X", h.SeqNumber, h.CommandID)
	}
}

func TestParseHeaderManufacturerSpecific(t *testing.T) {
	h, off, err := ParseHeader([]byte{0x05, 0x5F, 0x11, 0x07, 0x02})
	if err != nil {
		t.Fatal(err)
	}
	if off != 5 {
		t.Errorf("offset = %d, want 5", off)
	}
	if !h.ManufacturerSpecific() || h.ManufacturerCode != 0x115F {
		t.Errorf("mfr = %v 0x%04X, want true 0x115F", h.ManufacturerSpecific(), h.ManufacturerCode)
	}
	if h.FrameType() != FrameTypeCluster {
		t.Errorf("frame type = %d, want cluster", h.FrameType())
	}
	if h.SeqNumber != 0x07 || h.CommandID != 0x02 {
		t.Errorf("seq/cmd = %02X/%02X", h.SeqNumber, h.CommandID)
	}
}

func TestParseHeaderShort(t *testing.T) {
	for _, frame := range [][]byte{nil, {0x00}, {0x00, 0x01}, {0x04, 0x01, 0x02, 0x03}} {
		if _, _, err := ParseHeader(frame); !errors.Is(err, ErrShortFrame) {
			t.Errorf("ParseHeader(%X) err = %v, want ErrShortFrame", frame, err)
		}
	}
}

func TestDefaultResponse(t *testing.T) {
	got := DefaultResponse(0x10, 0x42, ZCLStatusUnsupGeneralCommand)
	want := []byte{0x18, 0x10, 0x0B, 0x42, 0x82}
	if !bytes.Equal(got, want) {
		t.Errorf("got %X, want %X", got, want)
	}
}

func TestResponseFrameControl(t *testing.T) {
	if ResponseFrameControl != 0b00011000 {
		t.Errorf("ResponseFrameControl = %08b, want 00011000", ResponseFrameControl)
	}
}
