package device

import (
	"fmt"
	"time"

	"zigbee-endpoint/internal/zcl"
)

// ReportingConfig holds the reporting parameters set by Configure Reporting.
type ReportingConfig struct {
	DataType         uint8  `json:"data_type"`
	MinInterval      uint16 `json:"min_interval"`
	MaxInterval      uint16 `json:"max_interval"`
	ReportableChange uint64 `json:"reportable_change"`
	TimeoutPeriod    uint16 `json:"timeout_period"`
}

// Attribute is one cluster attribute held in memory together with its reporting state.
//
// A numeric attribute keeps its value as a raw scalar whose low TypeSize bytes are the
// wire representation; string attributes keep text instead. Exactly one of the two is
// used, chosen by the constructor.
type Attribute struct {
	id         uint16
	dataType   uint8
	value      uint64
	text       string
	isText     bool
	reportable bool

	reporting    bool
	unreported   bool
	config       ReportingConfig
	lastReported time.Time
}

// NewAttribute creates a numeric attribute.
func NewAttribute(id uint16, dataType uint8, value uint64) *Attribute {
	return &Attribute{id: id, dataType: dataType, value: value, reportable: true}
}

// NewStringAttribute creates a character or octet string attribute.
func NewStringAttribute(id uint16, dataType uint8, value string) *Attribute {
	return &Attribute{id: id, dataType: dataType, text: value, isText: true, reportable: true}
}

// ID returns the attribute identifier.
func (a *Attribute) ID() uint16 { return a.id }

// Type returns the ZCL data type code.
func (a *Attribute) Type() uint8 { return a.dataType }

// The typed accessors below reinterpret the stored scalar at the requested width.
// Callers must pick the accessor matching the declared data type; no check is made.

func (a *Attribute) Uint8() uint8   { return uint8(a.value) }
func (a *Attribute) Uint16() uint16 { return uint16(a.value) }
func (a *Attribute) Uint32() uint32 { return uint32(a.value) }
func (a *Attribute) Uint64() uint64 { return a.value }
func (a *Attribute) Bool() bool     { return a.value != 0 }
func (a *Attribute) Text() string   { return a.text }

// Set overwrites the scalar value. While reporting is enabled every call marks a
// pending report, whether or not the value changed.
func (a *Attribute) Set(value uint64) {
	a.value = value
	if a.reporting {
		a.unreported = true
	}
}

// SetText overwrites a string value with the same reporting rule as Set.
func (a *Attribute) SetText(value string) {
	a.text = value
	if a.reporting {
		a.unreported = true
	}
}

// Reportable reports whether Configure Reporting may target this attribute.
func (a *Attribute) Reportable() bool { return a.reportable }

// SetReportable changes whether Configure Reporting may target this attribute.
func (a *Attribute) SetReportable(v bool) { a.reportable = v }

// ConfigureReporting stores the reporting parameters, resets the last-reported time
// and enables reporting. Calling it again replaces the previous configuration.
func (a *Attribute) ConfigureReporting(cfg ReportingConfig) {
	a.lastReported = time.Time{}
	a.config = cfg
	a.reporting = true
}

// Reporting returns the current reporting configuration.
func (a *Attribute) Reporting() ReportingConfig { return a.config }

// ReportingEnabled reports whether Configure Reporting has armed this attribute.
func (a *Attribute) ReportingEnabled() bool { return a.reporting }

// NeedsReporting is true when reporting is enabled and the value was set since the
// last MarkReported.
func (a *Attribute) NeedsReporting() bool {
	return a.reporting && a.unreported
}

// MarkReported clears the pending flag. The periodic reporting task calls it after a
// report actually went out.
func (a *Attribute) MarkReported(at time.Time) {
	a.unreported = false
	a.lastReported = at
}

// LastReported returns when the attribute was last reported, zero if never.
func (a *Attribute) LastReported() time.Time { return a.lastReported }

// Size returns the serialized value size in bytes, or -1 for types that cannot be
// serialized.
func (a *Attribute) Size() int {
	if a.isText {
		if !zcl.IsString(a.dataType) {
			return -1
		}
		return 1 + len(a.text)
	}
	return zcl.TypeSize(a.dataType)
}

// CopyPayload serializes the value into buf, little-endian at the width of the data
// type, and returns the number of bytes written.
func (a *Attribute) CopyPayload(buf []byte) (int, error) {
	size := a.Size()
	switch {
	case size < 0:
		return 0, fmt.Errorf("attribute 0x%04X type %s: %w", a.id, zcl.TypeName(a.dataType), ErrUnsupportedType)
	case a.isText && len(a.text) > 254:
		return 0, fmt.Errorf("attribute 0x%04X: string length %d: %w", a.id, len(a.text), ErrUnsupportedType)
	case size > len(buf):
		return 0, fmt.Errorf("attribute 0x%04X: need %d bytes, have %d: %w", a.id, size, len(buf), ErrPayloadOverflow)
	}

	if a.isText {
		buf[0] = uint8(len(a.text))
		copy(buf[1:], a.text)
		return size, nil
	}
	zcl.PutUint(buf[:size], a.value)
	return size, nil
}

// Value returns the decoded Go value of the attribute (see zcl.DecodeValue).
func (a *Attribute) Value() interface{} {
	if a.isText {
		if a.dataType == zcl.TypeOctetStr {
			return []byte(a.text)
		}
		return a.text
	}
	size := zcl.TypeSize(a.dataType)
	if size <= 0 {
		return nil
	}
	buf := make([]byte, size)
	zcl.PutUint(buf, a.value)
	v, _, err := zcl.DecodeValue(a.dataType, buf)
	if err != nil {
		return nil
	}
	return v
}

func (a *Attribute) String() string {
	if a.isText {
		return fmt.Sprintf("0x%04X %s(%q)", a.id, zcl.TypeName(a.dataType), a.text)
	}
	return fmt.Sprintf("0x%04X %s(%v)", a.id, zcl.TypeName(a.dataType), a.Value())
}

// SetValue converts a Go value (as produced by JSON, YAML or Lua decoding) to the
// attribute's data type and stores it with the same reporting rule as Set.
func (a *Attribute) SetValue(v interface{}) error {
	if a.isText {
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case []byte:
			s = string(t)
		default:
			return fmt.Errorf("attribute 0x%04X: cannot set %T on %s", a.id, v, zcl.TypeName(a.dataType))
		}
		if len(s) > 254 {
			return fmt.Errorf("attribute 0x%04X: string length %d: %w", a.id, len(s), ErrUnsupportedType)
		}
		a.SetText(s)
		return nil
	}
	b, err := zcl.EncodeValue(a.dataType, v)
	if err != nil {
		return fmt.Errorf("attribute 0x%04X: %w", a.id, err)
	}
	a.Set(zcl.Uint(b))
	return nil
}
