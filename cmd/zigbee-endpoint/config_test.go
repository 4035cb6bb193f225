package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfig = `
endpoint:
  id: 1
  device_id: 0x0302
  max_payload: 64
  in_clusters:
    - id: 0x0402
      attributes:
        - id: 0x0000
          value: 2150
    - id: 0x0006
      script: onoff
      attributes:
        - id: 0x0000
          value: false
  out_clusters:
    - id: 0x0003
link:
  port: /dev/ttyACM0
mqtt:
  enabled: true
  broker: tcp://localhost:1883
script_timeout: 250ms
`

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig([]byte(testConfig))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}

	if cfg.Link.Type != "serial" || cfg.Link.Baud != 115200 {
		t.Errorf("link = %+v", cfg.Link)
	}
	if cfg.Web.Listen != "127.0.0.1:8080" {
		t.Errorf("web.listen = %q", cfg.Web.Listen)
	}
	if cfg.MQTT.TopicPrefix != "zigbee-endpoint" || cfg.MQTT.Name != "endpoint" {
		t.Errorf("mqtt = %+v", cfg.MQTT)
	}
	if cfg.ScriptsDir != "scripts" || cfg.scriptTimeout() != 250*time.Millisecond {
		t.Errorf("scripts = %q timeout = %v", cfg.ScriptsDir, cfg.scriptTimeout())
	}
	if cfg.Endpoint.DeviceID != 0x0302 || cfg.Endpoint.MaxPayload != 64 {
		t.Errorf("endpoint = %+v", cfg.Endpoint)
	}
	if len(cfg.Endpoint.InClusters) != 2 || cfg.Endpoint.InClusters[1].Script != "onoff" {
		t.Errorf("in_clusters = %+v", cfg.Endpoint.InClusters)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"endpoint zero", func(c *Config) { c.Endpoint.ID = 0 }, "endpoint.id"},
		{"endpoint reserved", func(c *Config) { c.Endpoint.ID = 241 }, "endpoint.id"},
		{"no clusters", func(c *Config) { c.Endpoint.InClusters = nil }, "in_clusters"},
		{"tiny payload", func(c *Config) { c.Endpoint.MaxPayload = 4 }, "max_payload"},
		{"no port", func(c *Config) { c.Link.Port = "" }, "link.port"},
		{"no link", func(c *Config) { c.Link.Type, c.Link.Port = "none", "" }, ""},
		{"bad link", func(c *Config) { c.Link.Type = "spi" }, "link.type"},
		{"mqtt no broker", func(c *Config) { c.MQTT.Broker = "" }, "mqtt.broker"},
		{"bad timeout", func(c *Config) { c.ScriptTimeout = "soon" }, "script_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseConfig([]byte(testConfig))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoint.ID != 1 {
		t.Errorf("endpoint.id = %d", cfg.Endpoint.ID)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := parseConfig([]byte("endpoint: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		cfg, _ := parseConfig([]byte(testConfig))
		cfg.Log.Format = format
		cfg.Log.Level = "debug"
		if l := newLogger(cfg); l == nil {
			t.Errorf("%s logger is nil", format)
		}
	}
}
