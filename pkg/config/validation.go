package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
var validLogFormats = map[string]bool{"text": true, "json": true}
var validAdapterTypes = map[string]bool{"stub": true}

// Validate checks a fully-defaulted Config for internally inconsistent or
// out-of-range values. It is not a substitute for ApplyDefaults: call
// ApplyDefaults first so that zero-valued optional fields don't trip
// range checks meant only for explicit operator input.
func Validate(cfg *Config) error {
	var errs []string

	if !validLogLevels[strings.ToUpper(cfg.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level: invalid value %q (must be one of DEBUG, INFO, WARN, ERROR)", cfg.Logging.Level))
	}
	if !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format: invalid value %q (must be one of text, json)", cfg.Logging.Format))
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Endpoint == "" {
			errs = append(errs, "telemetry.endpoint: required when telemetry.enabled is true")
		}
		if cfg.Telemetry.SampleRate < 0 || cfg.Telemetry.SampleRate > 1 {
			errs = append(errs, fmt.Sprintf("telemetry.sample_rate: must be between 0.0 and 1.0, got %v", cfg.Telemetry.SampleRate))
		}
	}

	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout: must be positive")
	}

	if cfg.HTTPAPI.Port < 1 || cfg.HTTPAPI.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http_api.port: must be between 1 and 65535, got %d", cfg.HTTPAPI.Port))
	}

	if cfg.Broker.PreRegisterCount < 0 {
		errs = append(errs, "broker.pre_register_count: must not be negative")
	}
	if !validAdapterTypes[cfg.Broker.AdapterType] {
		errs = append(errs, fmt.Sprintf("broker.adapter_type: unknown adapter type %q", cfg.Broker.AdapterType))
	}
	if _, err := cfg.Broker.DefaultConfiguration.ToBroker(); err != nil {
		errs = append(errs, fmt.Sprintf("broker.default_configuration: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
