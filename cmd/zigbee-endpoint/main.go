package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/link"
	"zigbee-endpoint/internal/store"
	"zigbee-endpoint/internal/web"
	"zigbee-endpoint/internal/zcl"
	"zigbee-endpoint/internal/zcl/clusters"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Temporary logger for config loading errors.
	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		bootLogger.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := cfg.validate(); err != nil {
		bootLogger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	// Create configured logger.
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("zigbee-endpoint starting", "version", version)

	// Initialize ZCL registry
	registry := zcl.NewRegistry(logger)
	clusters.RegisterStandard(registry)

	// Cluster scripts (no-op when built with no_automation tag).
	auto := initAutomation(cfg, logger)

	dev, err := device.Build(cfg.Endpoint, registry, auto.handlerFactory(),
		device.WithObserver(device.LogObserver(logger.With("component", "device"))))
	if err != nil {
		logger.Error("build endpoint", "err", err)
		os.Exit(1)
	}
	logger.Info("endpoint built", "endpoint", dev.Endpoint(),
		"in_clusters", len(dev.InClusters()), "out_clusters", len(dev.OutClusters()),
		"clusters", len(registry.All()))

	// Open store and restore reporting configurations from the previous run.
	db, err := store.NewBoltStore(cfg.Store.Path)
	if err != nil {
		logger.Error("open store", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	storeLogger := logger.With("component", "store")
	restored, err := store.Restore(dev, db, storeLogger)
	if err != nil {
		logger.Error("restore reporting", "err", err)
		os.Exit(1)
	}
	state, err := store.RecordBoot(db, dev, time.Now())
	if err != nil {
		logger.Error("record boot", "err", err)
		os.Exit(1)
	}
	logger.Info("store opened", "path", cfg.Store.Path, "reporting_restored", restored, "boots", state.Boots)
	dev.AddObserver(store.ReportingObserver(db, storeLogger))

	disp := link.NewDispatcher(dev, cfg.Endpoint.MaxPayload)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start serial link
	linkDone := make(chan struct{})
	if cfg.Link.Type == "serial" {
		sl, err := link.Open(cfg.Link.Port, cfg.Link.Baud, disp, logger.With("component", "link"))
		if err != nil {
			logger.Error("open serial link", "err", err)
			os.Exit(1)
		}
		logger.Info("serial link opened", "port", cfg.Link.Port, "baud", cfg.Link.Baud)
		go func() {
			defer close(linkDone)
			if err := sl.Serve(ctx); err != nil {
				logger.Error("serial link stopped", "err", err)
			}
		}()
	} else {
		close(linkDone)
	}

	// Start web server
	var webOpts []web.ServerOption
	if cfg.Web.APIKey != "" {
		webOpts = append(webOpts, web.WithAPIKey(cfg.Web.APIKey))
	}
	if len(cfg.Web.AllowedOrigins) > 0 {
		webOpts = append(webOpts, web.WithAllowedOrigins(cfg.Web.AllowedOrigins))
	}
	webOpts = append(webOpts, web.WithRegistry(registry), web.WithVersion(version))

	webServer := web.NewServer(disp, logger, webOpts...)
	disp.View(func(d *device.Device) { d.AddObserver(webServer.Observer()) })

	httpServer := &http.Server{
		Addr:         cfg.Web.Listen,
		Handler:      webServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("web server starting", "addr", cfg.Web.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
		}
	}()

	// Start MQTT bridge (no-op when built with no_mqtt tag).
	mqtt := initMQTT(disp, cfg, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	signal.Stop(sigCh)
	logger.Info("shutting down", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	cancel()
	<-linkDone
	mqtt.Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "err", err)
	}
	webServer.Stop()
	auto.Stop()

	logger.Info("goodbye")
}
