package link

import (
	"encoding/binary"
	"fmt"
)

// Message is the unit carried inside one link frame:
//
//	| cluster id (16, LE) | ZCL frame |
type Message struct {
	ClusterID uint16
	Frame     []byte
}

func (m Message) encode() []byte {
	b := make([]byte, 2+len(m.Frame))
	binary.LittleEndian.PutUint16(b, m.ClusterID)
	copy(b[2:], m.Frame)
	return b
}

func decodeMessage(b []byte) (Message, error) {
	if len(b) < 2 {
		return Message{}, fmt.Errorf("link: message too short: %d bytes", len(b))
	}
	return Message{
		ClusterID: binary.LittleEndian.Uint16(b),
		Frame:     b[2:],
	}, nil
}
