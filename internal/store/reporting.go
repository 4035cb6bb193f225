package store

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/zcl"
)

// ReportingObserver persists every successfully configured reporting record so the
// configuration survives a restart.
func ReportingObserver(s Store, logger *slog.Logger) device.Observer {
	return device.ObserverFunc(func(res device.Result, err error) {
		if err != nil {
			return
		}
		for _, rec := range res.Configured {
			if rec.Status != zcl.ZCLStatusSuccess {
				continue
			}
			e := &ReportingEntry{
				Endpoint:  res.Endpoint,
				Cluster:   res.ClusterID,
				Attribute: rec.AttrID,
				Type:      rec.Config.DataType,
				Min:       rec.Config.MinInterval,
				Max:       rec.Config.MaxInterval,
				Change:    rec.Config.ReportableChange,
				Timeout:   rec.Config.TimeoutPeriod,
				UpdatedAt: time.Now(),
			}
			if err := s.SaveReporting(e); err != nil {
				logger.Error("save reporting config", "cluster", fmt.Sprintf("0x%04X", e.Cluster),
					"attr", fmt.Sprintf("0x%04X", e.Attribute), "err", err)
			}
		}
	})
}

// Restore re-applies stored reporting configurations to the device and returns how
// many were applied. Entries that no longer match an attribute are dropped.
func Restore(d *device.Device, s Store, logger *slog.Logger) (int, error) {
	entries, err := s.ListReporting(d.Endpoint())
	if err != nil {
		return 0, fmt.Errorf("list reporting: %w", err)
	}

	applied := 0
	for _, e := range entries {
		attr := lookup(d, e.Cluster, e.Attribute)
		if attr == nil || attr.Type() != e.Type || !attr.Reportable() {
			logger.Warn("dropping stale reporting config",
				"cluster", fmt.Sprintf("0x%04X", e.Cluster),
				"attr", fmt.Sprintf("0x%04X", e.Attribute))
			if err := s.DeleteReporting(e.Key()); err != nil && !errors.Is(err, ErrNotFound) {
				return applied, fmt.Errorf("delete stale entry: %w", err)
			}
			continue
		}
		attr.ConfigureReporting(device.ReportingConfig{
			DataType:         e.Type,
			MinInterval:      e.Min,
			MaxInterval:      e.Max,
			ReportableChange: e.Change,
			TimeoutPeriod:    e.Timeout,
		})
		applied++
	}
	return applied, nil
}

func lookup(d *device.Device, clusterID, attrID uint16) *device.Attribute {
	c := d.InCluster(clusterID)
	if c == nil {
		return nil
	}
	return c.Attribute(attrID)
}

// RecordBoot increments the endpoint's boot counter and returns the updated state.
func RecordBoot(s Store, d *device.Device, now time.Time) (*EndpointState, error) {
	state, err := s.GetEndpointState(d.Endpoint())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		state = &EndpointState{Endpoint: d.Endpoint()}
	}
	state.DeviceID = d.DeviceID()
	state.Boots++
	state.StartedAt = now
	if err := s.SaveEndpointState(state); err != nil {
		return nil, err
	}
	return state, nil
}
