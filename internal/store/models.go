package store

import (
	"encoding/binary"
	"time"
)

// ReportingKey identifies one attribute's reporting configuration.
type ReportingKey struct {
	Endpoint  uint8
	Cluster   uint16
	Attribute uint16
}

// bytes encodes the key big-endian so bolt iteration follows endpoint, cluster and
// attribute order.
func (k ReportingKey) bytes() []byte {
	b := make([]byte, 5)
	b[0] = k.Endpoint
	binary.BigEndian.PutUint16(b[1:3], k.Cluster)
	binary.BigEndian.PutUint16(b[3:5], k.Attribute)
	return b
}

// ReportingEntry is a persisted Configure Reporting result.
type ReportingEntry struct {
	Endpoint  uint8     `json:"endpoint"`
	Cluster   uint16    `json:"cluster"`
	Attribute uint16    `json:"attribute"`
	Type      uint8     `json:"type"`
	Min       uint16    `json:"min"`
	Max       uint16    `json:"max"`
	Change    uint64    `json:"change"`
	Timeout   uint16    `json:"timeout,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the entry's key.
func (e *ReportingEntry) Key() ReportingKey {
	return ReportingKey{Endpoint: e.Endpoint, Cluster: e.Cluster, Attribute: e.Attribute}
}

// EndpointState is bookkeeping kept per endpoint across restarts.
type EndpointState struct {
	Endpoint  uint8     `json:"endpoint"`
	DeviceID  uint16    `json:"device_id"`
	Boots     uint32    `json:"boots"`
	StartedAt time.Time `json:"started_at"`
}
