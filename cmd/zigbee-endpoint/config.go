package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"zigbee-endpoint/internal/device"
)

type Config struct {
	Endpoint device.EndpointConfig `yaml:"endpoint"`
	Link     struct {
		Type string `yaml:"type"` // "serial" or "none"
		Port string `yaml:"port"`
		Baud int    `yaml:"baud"`
	} `yaml:"link"`
	Web struct {
		Listen         string   `yaml:"listen"`
		APIKey         string   `yaml:"api_key"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"web"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		Broker      string `yaml:"broker"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TopicPrefix string `yaml:"topic_prefix"`
		Name        string `yaml:"name"`
	} `yaml:"mqtt"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	ScriptsDir    string `yaml:"scripts_dir"`
	ScriptTimeout string `yaml:"script_timeout"`
}

func (c *Config) validate() error {
	if c.Endpoint.ID == 0 || c.Endpoint.ID > 240 {
		return fmt.Errorf("endpoint.id must be 1-240, got %d", c.Endpoint.ID)
	}
	if len(c.Endpoint.InClusters) == 0 {
		return fmt.Errorf("endpoint.in_clusters must not be empty")
	}
	if c.Endpoint.MaxPayload != 0 && c.Endpoint.MaxPayload < 8 {
		return fmt.Errorf("endpoint.max_payload must be at least 8, got %d", c.Endpoint.MaxPayload)
	}
	switch c.Link.Type {
	case "serial":
		if c.Link.Port == "" {
			return fmt.Errorf("link.port is required for serial link")
		}
	case "none":
	default:
		return fmt.Errorf("unknown link.type: %q (supported: serial, none)", c.Link.Type)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	if c.ScriptTimeout != "" {
		if _, err := time.ParseDuration(c.ScriptTimeout); err != nil {
			return fmt.Errorf("script_timeout: %w", err)
		}
	}
	return nil
}

// scriptTimeout returns the parsed script timeout, zero for the default.
func (c *Config) scriptTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ScriptTimeout)
	return d
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Link.Type == "" {
		cfg.Link.Type = "serial"
	}
	if cfg.Link.Baud == 0 {
		cfg.Link.Baud = 115200
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = "127.0.0.1:8080"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "zigbee-endpoint.db"
	}
	if cfg.ScriptsDir == "" {
		cfg.ScriptsDir = "scripts"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "zigbee-endpoint"
	}
	if cfg.MQTT.Name == "" {
		cfg.MQTT.Name = "endpoint"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	return &cfg, nil
}

func newLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
