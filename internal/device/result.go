package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zigbee-endpoint/internal/zcl"
)

// ReadRecord describes one Read Attributes status record that was produced.
type ReadRecord struct {
	AttrID   uint16 `json:"attr_id"`
	Status   uint8  `json:"status"`
	DataType uint8  `json:"data_type,omitempty"`
}

// DiscoverRecord describes one Discover Attributes info record.
type DiscoverRecord struct {
	AttrID   uint16 `json:"attr_id"`
	DataType uint8  `json:"data_type"`
}

// ConfigureRecord describes the outcome of one Configure Reporting record.
type ConfigureRecord struct {
	Direction uint8           `json:"direction"`
	AttrID    uint16          `json:"attr_id"`
	Status    uint8           `json:"status"`
	Config    ReportingConfig `json:"config"`
}

// Result is the structured account of one processed frame: what was requested and
// what was produced.
type Result struct {
	Endpoint  uint8  `json:"endpoint"`
	ClusterID uint16 `json:"cluster_id"`
	FrameType uint8  `json:"frame_type"`
	FrameID   uint8  `json:"frame_id"`
	Command   uint8  `json:"command"`
	Response  uint8  `json:"response,omitempty"`
	// Len is the number of response bytes written, zero when nothing is sent back.
	Len int `json:"len"`

	Read       []ReadRecord      `json:"read,omitempty"`
	Discovered []DiscoverRecord  `json:"discovered,omitempty"`
	Complete   bool              `json:"complete,omitempty"`
	Configured []ConfigureRecord `json:"configured,omitempty"`
}

// Observer receives every processed frame's result. Observers run on the processing
// path and must not block.
type Observer interface {
	Observe(res Result, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(res Result, err error)

func (f ObserverFunc) Observe(res Result, err error) { f(res, err) }

// LogObserver formats results as structured log lines.
func LogObserver(logger *slog.Logger) Observer {
	return ObserverFunc(func(res Result, err error) {
		attrs := []any{
			"endpoint", res.Endpoint,
			"cluster", fmt.Sprintf("0x%04X", res.ClusterID),
			"frame_id", res.FrameID,
			"command", fmt.Sprintf("0x%02X", res.Command),
		}
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, ErrUnsupportedCommand) {
				level = slog.LevelInfo
			}
			logger.Log(context.Background(), level, "frame not processed", append(attrs, "err", err)...)
			return
		}
		switch {
		case res.Read != nil:
			attrs = append(attrs, "read", len(res.Read))
		case res.Discovered != nil || res.Command == zcl.FoundationDiscoverAttributes:
			attrs = append(attrs, "discovered", len(res.Discovered), "complete", res.Complete)
		case res.Configured != nil:
			for _, rec := range res.Configured {
				logger.Debug("reporting configured",
					"attr", fmt.Sprintf("0x%04X", rec.AttrID),
					"status", zcl.StatusName(rec.Status),
					"min", rec.Config.MinInterval,
					"max", rec.Config.MaxInterval)
			}
			attrs = append(attrs, "configured", len(res.Configured))
		}
		logger.Debug("frame processed", append(attrs, "len", res.Len)...)
	})
}

// StatusForError maps a processing error to the ZCL status a transport should put in
// a Default Response. ok is false when no Default Response is appropriate.
func StatusForError(frameType uint8, err error) (status uint8, ok bool) {
	switch {
	case errors.Is(err, ErrMalformedFrame):
		return zcl.ZCLStatusMalformedCommand, true
	case errors.Is(err, ErrUnsupportedCommand):
		if frameType == zcl.FrameTypeCluster {
			return zcl.ZCLStatusUnsupClusterCommand, true
		}
		return zcl.ZCLStatusUnsupGeneralCommand, true
	case errors.Is(err, ErrPayloadOverflow):
		return zcl.ZCLStatusFailure, true
	}
	return 0, false
}
