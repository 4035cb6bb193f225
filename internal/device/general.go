package device

import (
	"encoding/binary"
	"errors"
	"fmt"

	"zigbee-endpoint/internal/zcl"
)

/*
General command response header (not manufacturer specific):

	| frame control | frame id | command id |
	|   00011000    |  echoed  |  response  |

Frame control of a response: general frame type, server to client, default
response disabled.
*/

// generalCommand is one supported profile-wide command.
type generalCommand struct {
	response uint8
	handle   func(c Cluster, payload []byte, w *responseWriter, res *Result) error
}

// generalCommands is the closed set of general commands this endpoint answers.
// Any other command id is ErrUnsupportedCommand.
var generalCommands = map[uint8]generalCommand{
	zcl.FoundationReadAttributes:     {zcl.FoundationReadAttributesResponse, readAttributes},
	zcl.FoundationDiscoverAttributes: {zcl.FoundationDiscoverAttributesResp, discoverAttributes},
	zcl.FoundationConfigReporting:    {zcl.FoundationConfigReportingResp, configureReporting},
}

func (d *Device) processGeneral(hdr zcl.Header, payload []byte, res Result, out []byte) (Result, error) {
	cluster := d.InCluster(res.ClusterID)
	if cluster == nil {
		return res, fmt.Errorf("cluster 0x%04X: %w", res.ClusterID, ErrClusterNotFound)
	}
	if hdr.ManufacturerSpecific() {
		return res, fmt.Errorf("manufacturer 0x%04X command 0x%02X: %w", hdr.ManufacturerCode, hdr.CommandID, ErrUnsupportedCommand)
	}
	cmd, ok := generalCommands[hdr.CommandID]
	if !ok {
		return res, fmt.Errorf("general command 0x%02X: %w", hdr.CommandID, ErrUnsupportedCommand)
	}
	res.Response = cmd.response

	w := newResponseWriter(out)
	w.putByte(zcl.ResponseFrameControl)
	w.putByte(hdr.SeqNumber)
	w.putByte(cmd.response)
	if err := cmd.handle(cluster, payload, w, &res); err != nil {
		return res, err
	}
	if w.err != nil {
		return res, w.err
	}
	res.Len = w.n
	return res, nil
}

/*
Read Attributes

	request:  | header | attr id 1 (16) | ... | attr id n (16) |
	response: | header | status record 1 | ... | status record n |

	status record: | attr id (16) | status (8) | data type (0/8) | value (0/variable) |
*/
func readAttributes(c Cluster, payload []byte, w *responseWriter, res *Result) error {
	if len(payload)%2 != 0 {
		return fmt.Errorf("read attributes: payload length %d is odd: %w", len(payload), ErrMalformedFrame)
	}
	res.Read = make([]ReadRecord, 0, len(payload)/2)
	for i := 0; i < len(payload); i += 2 {
		attrID := binary.LittleEndian.Uint16(payload[i:])
		attr := c.Attribute(attrID)
		if attr == nil {
			w.putUint16(attrID)
			w.putByte(zcl.ZCLStatusUnsupportedAttr)
			res.Read = append(res.Read, ReadRecord{AttrID: attrID, Status: zcl.ZCLStatusUnsupportedAttr})
			continue
		}

		start := w.n
		w.putUint16(attrID)
		w.putByte(zcl.ZCLStatusSuccess)
		w.putByte(attr.Type())
		if w.err != nil {
			return w.err
		}
		n, err := attr.CopyPayload(w.free())
		switch {
		case errors.Is(err, ErrUnsupportedType):
			w.truncate(start)
			w.putUint16(attrID)
			w.putByte(zcl.ZCLStatusFailure)
			res.Read = append(res.Read, ReadRecord{AttrID: attrID, Status: zcl.ZCLStatusFailure})
			continue
		case err != nil:
			return err
		}
		w.n += n
		res.Read = append(res.Read, ReadRecord{AttrID: attrID, Status: zcl.ZCLStatusSuccess, DataType: attr.Type()})
	}
	return nil
}

/*
Discover Attributes

	request:  | header | start attr id (16) | max attr ids (8) |
	response: | header | discovery complete (8) | attr info 1 | ... | attr info n |

	attr info: | attr id (16) | data type (8) |

An unknown start id ends discovery at once with no records.
*/
func discoverAttributes(c Cluster, payload []byte, w *responseWriter, res *Result) error {
	if len(payload) < 3 {
		return fmt.Errorf("discover attributes: payload length %d, want 3: %w", len(payload), ErrMalformedFrame)
	}
	start := binary.LittleEndian.Uint16(payload[0:2])
	maxAttrs := int(payload[2])

	completePos := w.n
	w.putByte(0)

	complete := true
	res.Discovered = []DiscoverRecord{}
	if first, ok := c.IndexOf(start); ok {
		total := c.AttributeCount()
		end := first + maxAttrs
		if end < total {
			complete = false
		} else {
			end = total
		}
		for i := first; i < end; i++ {
			attr := c.AttributeAt(i)
			if attr == nil {
				break
			}
			w.putUint16(attr.ID())
			w.putByte(attr.Type())
			res.Discovered = append(res.Discovered, DiscoverRecord{AttrID: attr.ID(), DataType: attr.Type()})
		}
	}
	if w.err != nil {
		return w.err
	}
	if complete {
		w.buf[completePos] = 1
	}
	res.Complete = complete
	return nil
}

/*
Configure Reporting

	request:  | header | attribute record 1 | ... | attribute record n |

	direction 0: | dir (8) | attr id (16) | data type (8) | min interval (16) |
	             | max interval (16) | reportable change (analog types only) |
	direction 1: | dir (8) | attr id (16) | timeout period (16) |

	response: | header | status (8) | direction (8) | attr id (16) | ...
	      or: | header | status (8) |   when every record succeeded

Direction 1 records are parsed and skipped; this endpoint does not consume reports.
*/
type reportingRecord struct {
	direction uint8
	attrID    uint16
	config    ReportingConfig
}

func parseReportingRecords(p []byte) ([]reportingRecord, error) {
	var recs []reportingRecord
	for off := 0; off < len(p); {
		rec := reportingRecord{direction: p[off]}
		switch rec.direction {
		case zcl.ReportDirectionSend:
			if len(p)-off < 8 {
				return nil, fmt.Errorf("configure reporting: record at %d truncated: %w", off, ErrMalformedFrame)
			}
			rec.attrID = binary.LittleEndian.Uint16(p[off+1:])
			rec.config.DataType = p[off+3]
			rec.config.MinInterval = binary.LittleEndian.Uint16(p[off+4:])
			rec.config.MaxInterval = binary.LittleEndian.Uint16(p[off+6:])
			off += 8
			if zcl.IsAnalog(rec.config.DataType) {
				size := zcl.TypeSize(rec.config.DataType)
				if len(p)-off < size {
					return nil, fmt.Errorf("configure reporting: reportable change of 0x%04X truncated: %w", rec.attrID, ErrMalformedFrame)
				}
				rec.config.ReportableChange = zcl.Uint(p[off : off+size])
				off += size
			}
		case zcl.ReportDirectionReceive:
			if len(p)-off < 5 {
				return nil, fmt.Errorf("configure reporting: record at %d truncated: %w", off, ErrMalformedFrame)
			}
			rec.attrID = binary.LittleEndian.Uint16(p[off+1:])
			rec.config.TimeoutPeriod = binary.LittleEndian.Uint16(p[off+3:])
			off += 5
		default:
			return nil, fmt.Errorf("configure reporting: direction 0x%02X: %w", rec.direction, ErrMalformedFrame)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func configureReporting(c Cluster, payload []byte, w *responseWriter, res *Result) error {
	// Parse everything first so a malformed frame changes no state.
	recs, err := parseReportingRecords(payload)
	if err != nil {
		return err
	}

	allOK := true
	var armed []*Attribute
	res.Configured = []ConfigureRecord{}
	for _, rec := range recs {
		if rec.direction != zcl.ReportDirectionSend {
			continue
		}
		out := ConfigureRecord{Direction: rec.direction, AttrID: rec.attrID, Config: rec.config}
		attr := c.Attribute(rec.attrID)
		switch {
		case attr == nil:
			out.Status = zcl.ZCLStatusUnsupportedAttr
		case !attr.Reportable():
			out.Status = zcl.ZCLStatusUnreportable
		case attr.Type() != rec.config.DataType:
			out.Status = zcl.ZCLStatusInvalidDataType
		default:
			armed = append(armed, attr)
			out.Status = zcl.ZCLStatusSuccess
		}
		if out.Status != zcl.ZCLStatusSuccess {
			allOK = false
		}
		res.Configured = append(res.Configured, out)
	}

	if allOK && len(res.Configured) != 1 {
		w.putByte(zcl.ZCLStatusSuccess)
	} else {
		for _, rec := range res.Configured {
			w.putByte(rec.Status)
			w.putByte(rec.Direction)
			w.putUint16(rec.AttrID)
		}
	}
	// Nothing is armed unless the response fits.
	if w.err != nil {
		res.Configured = nil
		return w.err
	}
	i := 0
	for _, rec := range res.Configured {
		if rec.Status == zcl.ZCLStatusSuccess {
			armed[i].ConfigureReporting(rec.Config)
			i++
		}
	}
	return nil
}

// responseWriter appends to a caller-owned buffer without growing it. The first write
// that does not fit sets err and later writes are dropped.
type responseWriter struct {
	buf []byte
	n   int
	err error
}

func newResponseWriter(buf []byte) *responseWriter {
	return &responseWriter{buf: buf}
}

func (w *responseWriter) reserve(size int) []byte {
	if w.err != nil {
		return nil
	}
	if len(w.buf)-w.n < size {
		w.err = fmt.Errorf("need %d bytes at offset %d, capacity %d: %w", size, w.n, len(w.buf), ErrPayloadOverflow)
		return nil
	}
	b := w.buf[w.n : w.n+size]
	w.n += size
	return b
}

func (w *responseWriter) putByte(v uint8) {
	if b := w.reserve(1); b != nil {
		b[0] = v
	}
}

func (w *responseWriter) putUint16(v uint16) {
	if b := w.reserve(2); b != nil {
		binary.LittleEndian.PutUint16(b, v)
	}
}

// free returns the unwritten tail of the buffer.
func (w *responseWriter) free() []byte {
	return w.buf[w.n:]
}

func (w *responseWriter) truncate(n int) {
	w.n = n
}
