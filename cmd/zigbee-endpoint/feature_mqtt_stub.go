//go:build no_mqtt

package main

import (
	"log/slog"

	"zigbee-endpoint/internal/link"
)

type mqttStopper struct{}

func (m *mqttStopper) Stop() {}

func initMQTT(_ *link.Dispatcher, _ *Config, _ *slog.Logger) *mqttStopper {
	return &mqttStopper{}
}
