package config

import "time"

// ApplyDefaults fills in zero-valued fields of cfg with sensible defaults.
// Called after unmarshalling a partial config file so that an operator
// only needs to specify the fields they want to override.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownDefaults(cfg)
	applyBrokerDefaults(&cfg.Broker)
	cfg.HTTPAPI.Port = defaultInt(cfg.HTTPAPI.Port, 8090)
	cfg.HTTPAPI.ReadTimeout = defaultDuration(cfg.HTTPAPI.ReadTimeout, 10*time.Second)
	cfg.HTTPAPI.WriteTimeout = defaultDuration(cfg.HTTPAPI.WriteTimeout, 10*time.Second)
	cfg.HTTPAPI.IdleTimeout = defaultDuration(cfg.HTTPAPI.IdleTimeout, 60*time.Second)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

func applyShutdownDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
}

func applyBrokerDefaults(cfg *BrokerConfig) {
	if cfg.PreRegisterCount == 0 {
		cfg.PreRegisterCount = 1
	}
	if cfg.AdapterType == "" {
		cfg.AdapterType = "stub"
	}
	if cfg.DefaultConfiguration.Width == 0 {
		cfg.DefaultConfiguration.Width = 1280
	}
	if cfg.DefaultConfiguration.Height == 0 {
		cfg.DefaultConfiguration.Height = 720
	}
	if cfg.DefaultConfiguration.PixelFormat == "" {
		cfg.DefaultConfiguration.PixelFormat = "RGB24"
	}
	if cfg.DefaultConfiguration.FrameRate == 0 {
		cfg.DefaultConfiguration.FrameRate = 30
	}
	// Timeouts of zero are resolved against broker.DefaultTimeouts() at
	// TimeoutsConfig.ToBroker time, not here.
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func defaultDuration(v, fallback time.Duration) time.Duration {
	if v == 0 {
		return fallback
	}
	return v
}

// GetDefaultConfig returns a fully-populated Config with every default
// applied, suitable as a starting point for `resbrokerd init` and as the
// fallback when no config file is found.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
