package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected default shutdown timeout 15s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_HTTPAPI(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.HTTPAPI.Port != 8090 {
		t.Errorf("expected default status port 8090, got %d", cfg.HTTPAPI.Port)
	}
	if cfg.HTTPAPI.ReadTimeout != 10*time.Second {
		t.Errorf("expected default read timeout 10s, got %v", cfg.HTTPAPI.ReadTimeout)
	}
	if cfg.HTTPAPI.WriteTimeout != 10*time.Second {
		t.Errorf("expected default write timeout 10s, got %v", cfg.HTTPAPI.WriteTimeout)
	}
	if cfg.HTTPAPI.IdleTimeout != 60*time.Second {
		t.Errorf("expected default idle timeout 60s, got %v", cfg.HTTPAPI.IdleTimeout)
	}
}

func TestApplyDefaults_Broker(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Broker.PreRegisterCount != 1 {
		t.Errorf("expected default pre_register_count 1, got %d", cfg.Broker.PreRegisterCount)
	}
	if cfg.Broker.AdapterType != "stub" {
		t.Errorf("expected default adapter_type 'stub', got %q", cfg.Broker.AdapterType)
	}
	if cfg.Broker.DefaultConfiguration.Width != 1280 {
		t.Errorf("expected default width 1280, got %d", cfg.Broker.DefaultConfiguration.Width)
	}
	if cfg.Broker.DefaultConfiguration.PixelFormat != "RGB24" {
		t.Errorf("expected default pixel format 'RGB24', got %q", cfg.Broker.DefaultConfiguration.PixelFormat)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/resbrokerd.log",
		},
		ShutdownTimeout: 60 * time.Second,
		Broker: BrokerConfig{
			PreRegisterCount: 5,
			AdapterType:      "stub",
		},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/resbrokerd.log" {
		t.Errorf("expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 60*time.Second {
		t.Errorf("expected explicit timeout 60s to be preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Broker.PreRegisterCount != 5 {
		t.Errorf("expected explicit pre_register_count to be preserved, got %d", cfg.Broker.PreRegisterCount)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		t.Error("default config missing logging level")
	}
	if cfg.HTTPAPI.Port == 0 {
		t.Error("default config missing status server port")
	}
	if cfg.Broker.AdapterType == "" {
		t.Error("default config missing broker adapter type")
	}
}
