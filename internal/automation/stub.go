//go:build no_automation

package automation

import (
	"errors"
	"log/slog"
	"time"

	"zigbee-endpoint/internal/device"
)

// DefaultTimeout bounds one on_command call.
const DefaultTimeout = time.Second

var errDisabled = errors.New("automation disabled")

// Manager is a no-op stub when automation is disabled.
type Manager struct{}

// NewManager returns a nil manager when automation is disabled.
func NewManager(_ string) (*Manager, error) { return nil, nil }

// Engine is a no-op stub when automation is disabled.
type Engine struct{}

// NewEngine returns a no-op engine when automation is disabled.
func NewEngine(_ *Manager, _ *slog.Logger, _ time.Duration) *Engine {
	return &Engine{}
}

// HandlerFactory rejects every cluster that names a script.
func (e *Engine) HandlerFactory() device.HandlerFactory {
	return func(cc device.ClusterConfig) (device.CommandHandler, error) {
		if cc.Script != "" {
			return nil, errDisabled
		}
		return nil, nil
	}
}

// Stop is a no-op.
func (e *Engine) Stop() {}
