package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deviceflow/resbroker/internal/logger"
	"github.com/deviceflow/resbroker/internal/telemetry"
	"github.com/deviceflow/resbroker/pkg/broker"
	"github.com/deviceflow/resbroker/pkg/config"
	"github.com/deviceflow/resbroker/pkg/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resource broker and its status server in the foreground",
	Long: `Run the resource broker in the foreground.

serve loads configuration, pre-registers the configured camera resources,
and exposes a read-only status surface over HTTP until interrupted.

Examples:
  # Serve with default config location
  resbrokerd serve

  # Serve with custom config file
  resbrokerd serve --config /etc/resbrokerd/config.yaml

  # Serve with environment variable overrides
  RESBROKER_LOGGING_LEVEL=DEBUG resbrokerd serve`,
	RunE: runServe,
}

var servePidFile string

func init() {
	serveCmd.Flags().StringVar(&servePidFile, "pid-file", "", "write the process PID to this file while serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "resbrokerd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}

	host := broker.NewHost()
	opts, err := config.ToHostOptions(cfg, broker.NewSlogLogger())
	if err != nil {
		return fmt.Errorf("failed to build broker options: %w", err)
	}
	if err := host.Initialize(opts); err != nil {
		return fmt.Errorf("failed to initialize resource broker: %w", err)
	}
	logger.Info("resource broker initialized", "resources", opts.PreRegisterCount)

	configPath := config.ResolveConfigPath(GetConfigFile())
	stopWatch, err := config.Watch(configPath, func(newCfg *config.Config) {
		defaultConfiguration, err := newCfg.Broker.DefaultConfiguration.ToBroker()
		if err != nil {
			logger.Warn("reloaded broker.default_configuration is invalid, ignoring reload", "error", err)
			return
		}
		host.UpdateRuntimeConfig(defaultConfiguration, newCfg.Broker.Timeouts.ToBroker())
		logger.Info("applied reloaded default configuration and timeout profile")
	})
	if err != nil {
		logger.Warn("config hot-reload disabled", "path", configPath, "error", err)
	} else {
		logger.Info("watching configuration file for changes", "path", configPath)
		defer func() {
			if err := stopWatch(); err != nil {
				logger.Error("config watcher shutdown error", "error", err)
			}
		}()
	}

	if servePidFile != "" {
		if err := os.WriteFile(servePidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(servePidFile) }()
	}

	statusServer := httpapi.NewServer(cfg.HTTPAPI, host)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- statusServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("resbrokerd is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := host.Shutdown(shutdownCtx); err != nil {
			logger.Error("resource broker shutdown error", "error", err)
		}

		if err := <-serverDone; err != nil {
			logger.Error("status server shutdown error", "error", err)
			return err
		}
		logger.Info("resbrokerd stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("status server error", "error", err)
			return err
		}
		logger.Info("status server stopped")
	}

	return nil
}
