package zcl

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ZCL data type IDs
const (
	TypeNoData     uint8 = 0x00
	TypeData8      uint8 = 0x08
	TypeData16     uint8 = 0x09
	TypeData32     uint8 = 0x0B
	TypeBool       uint8 = 0x10
	TypeBitmap8    uint8 = 0x18
	TypeBitmap16   uint8 = 0x19
	TypeBitmap24   uint8 = 0x1A
	TypeBitmap32   uint8 = 0x1B
	TypeUint8      uint8 = 0x20
	TypeUint16     uint8 = 0x21
	TypeUint24     uint8 = 0x22
	TypeUint32     uint8 = 0x23
	TypeUint40     uint8 = 0x24
	TypeUint48     uint8 = 0x25
	TypeUint56     uint8 = 0x26
	TypeUint64     uint8 = 0x27
	TypeInt8       uint8 = 0x28
	TypeInt16      uint8 = 0x29
	TypeInt24      uint8 = 0x2A
	TypeInt32      uint8 = 0x2B
	TypeInt40      uint8 = 0x2C
	TypeInt48      uint8 = 0x2D
	TypeInt56      uint8 = 0x2E
	TypeInt64      uint8 = 0x2F
	TypeEnum8      uint8 = 0x30
	TypeEnum16     uint8 = 0x31
	TypeFloat16    uint8 = 0x38
	TypeFloat32    uint8 = 0x39
	TypeFloat64    uint8 = 0x3A
	TypeOctetStr   uint8 = 0x41
	TypeCharStr    uint8 = 0x42
	TypeOctetStr16 uint8 = 0x43
	TypeCharStr16  uint8 = 0x44
	TypeArray      uint8 = 0x48
	TypeStruct     uint8 = 0x4C
	TypeToD        uint8 = 0xE0 // Time of Day
	TypeDate       uint8 = 0xE1
	TypeUTC        uint8 = 0xE2
	TypeClusterID  uint8 = 0xE8
	TypeAttrID     uint8 = 0xE9
	TypeEUI64      uint8 = 0xF0
)

type kind uint8

const (
	kindNone kind = iota
	kindBool
	kindUnsigned // also discrete bitmaps, enums, ids
	kindSigned
	kindFloat
	kindString
	kindOctets
	kindOther
)

type typeInfo struct {
	name   string
	size   int // bytes; -1 when variable
	kind   kind
	analog bool
}

var typeTable = map[uint8]typeInfo{
	TypeNoData:     {"nodata", 0, kindNone, false},
	TypeData8:      {"data8", 1, kindUnsigned, false},
	TypeData16:     {"data16", 2, kindUnsigned, false},
	TypeData32:     {"data32", 4, kindUnsigned, false},
	TypeBool:       {"bool", 1, kindBool, false},
	TypeBitmap8:    {"map8", 1, kindUnsigned, false},
	TypeBitmap16:   {"map16", 2, kindUnsigned, false},
	TypeBitmap24:   {"map24", 3, kindUnsigned, false},
	TypeBitmap32:   {"map32", 4, kindUnsigned, false},
	TypeUint8:      {"uint8", 1, kindUnsigned, true},
	TypeUint16:     {"uint16", 2, kindUnsigned, true},
	TypeUint24:     {"uint24", 3, kindUnsigned, true},
	TypeUint32:     {"uint32", 4, kindUnsigned, true},
	TypeUint40:     {"uint40", 5, kindUnsigned, true},
	TypeUint48:     {"uint48", 6, kindUnsigned, true},
	TypeUint56:     {"uint56", 7, kindUnsigned, true},
	TypeUint64:     {"uint64", 8, kindUnsigned, true},
	TypeInt8:       {"int8", 1, kindSigned, true},
	TypeInt16:      {"int16", 2, kindSigned, true},
	TypeInt24:      {"int24", 3, kindSigned, true},
	TypeInt32:      {"int32", 4, kindSigned, true},
	TypeInt40:      {"int40", 5, kindSigned, true},
	TypeInt48:      {"int48", 6, kindSigned, true},
	TypeInt56:      {"int56", 7, kindSigned, true},
	TypeInt64:      {"int64", 8, kindSigned, true},
	TypeEnum8:      {"enum8", 1, kindUnsigned, false},
	TypeEnum16:     {"enum16", 2, kindUnsigned, false},
	TypeFloat16:    {"float16", 2, kindUnsigned, true}, // kept as raw half-precision bits
	TypeFloat32:    {"float32", 4, kindFloat, true},
	TypeFloat64:    {"float64", 8, kindFloat, true},
	TypeOctetStr:   {"octstr", -1, kindOctets, false},
	TypeCharStr:    {"string", -1, kindString, false},
	TypeOctetStr16: {"octstr16", -1, kindOther, false},
	TypeCharStr16:  {"string16", -1, kindOther, false},
	TypeArray:      {"array", -1, kindOther, false},
	TypeStruct:     {"struct", -1, kindOther, false},
	TypeToD:        {"ToD", 4, kindUnsigned, true},
	TypeDate:       {"date", 4, kindUnsigned, true},
	TypeUTC:        {"UTC", 4, kindUnsigned, true},
	TypeClusterID:  {"clusterId", 2, kindUnsigned, false},
	TypeAttrID:     {"attribId", 2, kindUnsigned, false},
	TypeEUI64:      {"EUI64", 8, kindUnsigned, false},
}

// TypeSize returns the fixed size in bytes of a ZCL type, or -1 for variable-length
// and unknown types.
func TypeSize(typeID uint8) int {
	if info, ok := typeTable[typeID]; ok {
		return info.size
	}
	return -1
}

// TypeName returns a human-readable name for a ZCL type.
func TypeName(typeID uint8) string {
	if info, ok := typeTable[typeID]; ok {
		return info.name
	}
	return fmt.Sprintf("0x%02X", typeID)
}

// IsAnalog reports whether the type is analog. Configure Reporting records carry a
// reportable change field only for analog types.
func IsAnalog(typeID uint8) bool {
	return typeTable[typeID].analog
}

// IsString reports whether the type is a short (1-byte length prefixed) string.
func IsString(typeID uint8) bool {
	k := typeTable[typeID].kind
	return k == kindString || k == kindOctets
}

// IsKnown reports whether the type id is in the data type table.
func IsKnown(typeID uint8) bool {
	_, ok := typeTable[typeID]
	return ok
}

// Uint reads a little-endian unsigned integer of len(data) bytes (at most 8).
func Uint(data []byte) uint64 {
	var v uint64
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	return v
}

// PutUint writes the low len(dst) bytes of v in little-endian order.
func PutUint(dst []byte, v uint64) {
	for i := range dst {
		dst[i] = byte(v >> (8 * i))
	}
}

// DecodeValue decodes a ZCL typed value from raw bytes, returning the Go value and bytes consumed.
// Unsigned, bitmap and enum types decode to uint64, signed types to int64.
func DecodeValue(typeID uint8, data []byte) (interface{}, int, error) {
	info, ok := typeTable[typeID]
	if !ok {
		return nil, 0, fmt.Errorf("zcl: unknown type 0x%02X", typeID)
	}
	if info.size == 0 {
		return nil, 0, nil
	}
	if info.size > 0 && len(data) < info.size {
		return nil, 0, fmt.Errorf("zcl: not enough data for type 0x%02X: need %d, have %d", typeID, info.size, len(data))
	}

	switch info.kind {
	case kindBool:
		return data[0] != 0, 1, nil
	case kindUnsigned:
		return Uint(data[:info.size]), info.size, nil
	case kindSigned:
		return signExtend(Uint(data[:info.size]), info.size), info.size, nil
	case kindFloat:
		if info.size == 4 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(data))), 4, nil
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), 8, nil
	case kindString, kindOctets:
		if len(data) < 1 {
			return nil, 0, fmt.Errorf("zcl: no length byte for string type")
		}
		length := int(data[0])
		if length == 0xFF {
			return nil, 1, nil // invalid value marker
		}
		if len(data) < 1+length {
			return nil, 0, fmt.Errorf("zcl: string truncated: need %d, have %d", length, len(data)-1)
		}
		if info.kind == kindString {
			return string(data[1 : 1+length]), 1 + length, nil
		}
		b := make([]byte, length)
		copy(b, data[1:1+length])
		return b, 1 + length, nil
	}
	return nil, 0, fmt.Errorf("zcl: decode not implemented for type 0x%02X", typeID)
}

func signExtend(v uint64, size int) int64 {
	shift := uint(64 - 8*size)
	return int64(v<<shift) >> shift
}

// EncodeValue encodes a Go value into ZCL wire format.
func EncodeValue(typeID uint8, val interface{}) ([]byte, error) {
	info, ok := typeTable[typeID]
	if !ok {
		return nil, fmt.Errorf("zcl: unknown type 0x%02X", typeID)
	}

	switch info.kind {
	case kindNone:
		return []byte{}, nil

	case kindBool:
		v, ok := toBool(val)
		if !ok {
			return nil, fmt.Errorf("zcl: cannot convert %T to bool", val)
		}
		if v {
			return []byte{1}, nil
		}
		return []byte{0}, nil

	case kindUnsigned:
		v, ok := toUint64(val)
		if !ok {
			return nil, fmt.Errorf("zcl: cannot convert %T to %s", val, info.name)
		}
		if info.size < 8 && v >= 1<<(8*uint(info.size)) {
			return nil, fmt.Errorf("zcl: value %d overflows %s", v, info.name)
		}
		buf := make([]byte, info.size)
		PutUint(buf, v)
		return buf, nil

	case kindSigned:
		v, ok := toInt64(val)
		if !ok {
			return nil, fmt.Errorf("zcl: cannot convert %T to %s", val, info.name)
		}
		if info.size < 8 {
			bits := uint(8*info.size - 1)
			lo, hi := -(int64(1) << bits), int64(1)<<bits-1
			if v < lo || v > hi {
				return nil, fmt.Errorf("zcl: value %d overflows %s (range %d..%d)", v, info.name, lo, hi)
			}
		}
		buf := make([]byte, info.size)
		PutUint(buf, uint64(v))
		return buf, nil

	case kindFloat:
		v, ok := toFloat64(val)
		if !ok {
			return nil, fmt.Errorf("zcl: cannot convert %T to %s", val, info.name)
		}
		buf := make([]byte, info.size)
		if info.size == 4 {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
		} else {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		}
		return buf, nil

	case kindString, kindOctets:
		var b []byte
		switch s := val.(type) {
		case string:
			b = []byte(s)
		case []byte:
			b = s
		default:
			return nil, fmt.Errorf("zcl: cannot convert %T to %s", val, info.name)
		}
		if len(b) > 254 {
			return nil, fmt.Errorf("zcl: data too long for %s: %d (max 254)", info.name, len(b))
		}
		buf := make([]byte, 1+len(b))
		buf[0] = uint8(len(b))
		copy(buf[1:], b)
		return buf, nil
	}

	return nil, fmt.Errorf("zcl: encode not implemented for type 0x%02X", typeID)
}

func toBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	case uint64:
		return val != 0, true
	}
	return false, false
}

func toUint64(v interface{}) (uint64, bool) {
	switch val := v.(type) {
	case uint8:
		return uint64(val), true
	case uint16:
		return uint64(val), true
	case uint32:
		return uint64(val), true
	case uint64:
		return val, true
	case int:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	case int64:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	case float64:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	}
	return 0, false
}

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case int:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float64:
		if val > math.MaxInt64 || val < math.MinInt64 {
			return 0, false
		}
		return int64(val), true
	}
	return 0, false
}
