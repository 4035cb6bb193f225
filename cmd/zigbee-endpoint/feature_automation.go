//go:build !no_automation

package main

import (
	"log/slog"

	"zigbee-endpoint/internal/automation"
	"zigbee-endpoint/internal/device"
)

type autoFeature struct {
	engine *automation.Engine
}

func (a *autoFeature) handlerFactory() device.HandlerFactory {
	if a.engine == nil {
		return nil
	}
	return a.engine.HandlerFactory()
}

func (a *autoFeature) Stop() {
	if a.engine != nil {
		a.engine.Stop()
	}
}

func initAutomation(cfg *Config, logger *slog.Logger) *autoFeature {
	scriptMgr, err := automation.NewManager(cfg.ScriptsDir)
	if err != nil {
		logger.Error("create script manager", "err", err)
		return &autoFeature{}
	}
	if scripts, err := scriptMgr.List(); err == nil {
		logger.Info("scripts available", "dir", cfg.ScriptsDir, "count", len(scripts))
	}
	return &autoFeature{engine: automation.NewEngine(scriptMgr, logger, cfg.scriptTimeout())}
}
