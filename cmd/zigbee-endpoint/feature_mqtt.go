//go:build !no_mqtt

package main

import (
	"log/slog"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/link"
	mqttbridge "zigbee-endpoint/internal/mqtt"
)

type mqttStopper struct {
	bridge *mqttbridge.Bridge
}

func (m *mqttStopper) Stop() {
	if m.bridge != nil {
		m.bridge.Stop()
	}
}

func initMQTT(disp *link.Dispatcher, cfg *Config, logger *slog.Logger) *mqttStopper {
	if !cfg.MQTT.Enabled {
		return &mqttStopper{}
	}
	bridge, err := mqttbridge.NewBridge(disp, mqttbridge.Config{
		Broker:      cfg.MQTT.Broker,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		Name:        cfg.MQTT.Name,
	}, logger)
	if err != nil {
		logger.Error("mqtt bridge", "err", err)
		return &mqttStopper{}
	}
	disp.View(func(d *device.Device) { d.AddObserver(bridge.ResultObserver()) })
	return &mqttStopper{bridge: bridge}
}
