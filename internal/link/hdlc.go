package link

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
)

/*
Frames on the wire are HDLC-like:

	| 0x7E | escaped(body | FCS16 LE) | 0x7E |

0x7E and 0x7D inside the frame are sent as 0x7D followed by the byte XOR 0x20.
Consecutive flags are allowed and delimit empty frames, which are ignored.
*/

const (
	hdlcFlag   = 0x7E
	hdlcEscape = 0x7D
	hdlcXor    = 0x20

	// maxFrameSize bounds an unescaped frame; longer input is discarded.
	maxFrameSize = 512
)

var (
	// ErrBadFCS is returned for a frame whose checksum does not match.
	ErrBadFCS = errors.New("link: bad frame check sequence")
	// ErrFrameTooLong is returned when no closing flag arrives within maxFrameSize.
	ErrFrameTooLong = errors.New("link: frame too long")
)

// --- CRC-16 reflected (poly=0x8408, init=0x0000, xorout=0x0000) ---

var fcsTable [256]uint16

func init() {
	const poly = 0x8408
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for bit := 0; bit < 8; bit++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		fcsTable[i] = crc
	}
}

func fcs16(data []byte) uint16 {
	crc := uint16(0x0000)
	for _, b := range data {
		crc = (crc >> 8) ^ fcsTable[(crc^uint16(b))&0xFF]
	}
	return crc
}

// hdlcEncode frames data with FCS, escaping and flags.
func hdlcEncode(data []byte) []byte {
	var fcs [2]byte
	binary.LittleEndian.PutUint16(fcs[:], fcs16(data))

	out := make([]byte, 0, len(data)+6)
	out = append(out, hdlcFlag)
	for _, b := range append(append([]byte(nil), data...), fcs[:]...) {
		if b == hdlcFlag || b == hdlcEscape {
			out = append(out, hdlcEscape, b^hdlcXor)
			continue
		}
		out = append(out, b)
	}
	return append(out, hdlcFlag)
}

// hdlcDecode unescapes the bytes between two flags and verifies the FCS.
func hdlcDecode(inner []byte) ([]byte, error) {
	data := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		b := inner[i]
		if b == hdlcEscape {
			i++
			if i == len(inner) {
				return nil, fmt.Errorf("link: dangling escape")
			}
			b = inner[i] ^ hdlcXor
		}
		data = append(data, b)
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("link: frame too short: %d bytes", len(data))
	}
	body := data[:len(data)-2]
	want := binary.LittleEndian.Uint16(data[len(data)-2:])
	if got := fcs16(body); got != want {
		return nil, fmt.Errorf("%w: got 0x%04X, want 0x%04X", ErrBadFCS, got, want)
	}
	return body, nil
}

// readRawFrame returns the escaped bytes of the next non-empty frame, without flags.
// Bytes before the first flag are discarded.
func readRawFrame(r *bufio.Reader) ([]byte, error) {
	// Sync to a flag.
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == hdlcFlag {
			break
		}
	}
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != hdlcFlag {
			if len(buf) >= 2*maxFrameSize {
				return nil, ErrFrameTooLong
			}
			buf = append(buf, b)
			continue
		}
		if len(buf) == 0 {
			continue
		}
		// The closing flag may open the next frame.
		if err := r.UnreadByte(); err != nil {
			return nil, err
		}
		return buf, nil
	}
}
