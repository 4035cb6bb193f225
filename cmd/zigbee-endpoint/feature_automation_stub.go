//go:build no_automation

package main

import (
	"log/slog"

	"zigbee-endpoint/internal/automation"
	"zigbee-endpoint/internal/device"
)

type autoFeature struct {
	engine *automation.Engine
}

// handlerFactory rejects clusters that name a script.
func (a *autoFeature) handlerFactory() device.HandlerFactory {
	return a.engine.HandlerFactory()
}

func (a *autoFeature) Stop() {}

func initAutomation(_ *Config, logger *slog.Logger) *autoFeature {
	return &autoFeature{engine: automation.NewEngine(nil, logger, 0)}
}
