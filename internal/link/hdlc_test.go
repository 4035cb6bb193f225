package link

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

func TestHDLCEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"simple", []byte{0x01, 0x02, 0x03}},
		{"with flag byte", []byte{0x7E, 0x01}},
		{"with escape byte", []byte{0x7D, 0x02}},
		{"mixed special", []byte{0x00, 0x7E, 0x7D, 0xFF}},
		{"empty payload", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := hdlcEncode(tt.data)

			// Verify framing: starts and ends with flag, no flag inside.
			if encoded[0] != hdlcFlag || encoded[len(encoded)-1] != hdlcFlag {
				t.Errorf("missing flags: %X", encoded)
			}
			inner := encoded[1 : len(encoded)-1]
			if bytes.IndexByte(inner, hdlcFlag) >= 0 {
				t.Errorf("unescaped flag inside frame: %X", encoded)
			}

			decoded, err := hdlcDecode(inner)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if !bytes.Equal(decoded, tt.data) {
				t.Errorf("round trip failed: got %X, want %X", decoded, tt.data)
			}
		})
	}
}

func TestHDLCDecodeBadFCS(t *testing.T) {
	encoded := hdlcEncode([]byte{0x01, 0x02})
	inner := encoded[1 : len(encoded)-1]
	// Corrupt last byte (part of FCS)
	inner[len(inner)-1] ^= 0x01
	_, err := hdlcDecode(inner)
	if !errors.Is(err, ErrBadFCS) {
		t.Errorf("err = %v, want ErrBadFCS", err)
	}
}

func TestHDLCDecodeShort(t *testing.T) {
	for _, inner := range [][]byte{{}, {0x01}, {0x01, 0x7D}} {
		if _, err := hdlcDecode(inner); err == nil {
			t.Errorf("hdlcDecode(%X) succeeded", inner)
		}
	}
}

func TestFCS16(t *testing.T) {
	// CRC-16/KERMIT style table with zero init; check value of "123456789" is 0x2189.
	if got := fcs16([]byte("123456789")); got != 0x2189 {
		t.Errorf("fcs16 = 0x%04X, want 0x2189", got)
	}
}

func TestReadRawFrame(t *testing.T) {
	a := hdlcEncode([]byte{0x01})
	b := hdlcEncode([]byte{0x02, 0x7E})

	var stream []byte
	stream = append(stream, 0xAA, 0xBB) // line noise before sync
	stream = append(stream, a...)
	stream = append(stream, hdlcFlag) // empty frame
	stream = append(stream, b[1:]...) // share the closing flag of a

	r := bufio.NewReader(bytes.NewReader(stream))
	for i, want := range [][]byte{{0x01}, {0x02, 0x7E}} {
		raw, err := readRawFrame(r)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		got, err := hdlcDecode(raw)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = %X, want %X", i, got, want)
		}
	}
}

func TestReadRawFrameTooLong(t *testing.T) {
	stream := append([]byte{hdlcFlag}, bytes.Repeat([]byte{0x01}, 2*maxFrameSize+1)...)
	_, err := readRawFrame(bufio.NewReader(bytes.NewReader(stream)))
	if !errors.Is(err, ErrFrameTooLong) {
		t.Errorf("err = %v, want ErrFrameTooLong", err)
	}
}

func TestMessageEncoding(t *testing.T) {
	m := Message{ClusterID: 0x0402, Frame: []byte{0x00, 0x01, 0x00}}
	b := m.encode()
	if !bytes.Equal(b, []byte{0x02, 0x04, 0x00, 0x01, 0x00}) {
		t.Errorf("encode = %X", b)
	}
	got, err := decodeMessage(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.ClusterID != m.ClusterID || !bytes.Equal(got.Frame, m.Frame) {
		t.Errorf("decode = %+v", got)
	}
	if _, err := decodeMessage([]byte{0x01}); err == nil {
		t.Error("expected error for short message")
	}
}
