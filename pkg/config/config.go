package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/deviceflow/resbroker/pkg/broker"
	"github.com/deviceflow/resbroker/pkg/httpapi"
)

// Config represents the resbrokerd configuration.
//
// This structure captures the static configuration for the resource broker
// daemon: logging, tracing, the status server, and the broker's own
// lifecycle parameters (how many cameras to pre-register, default
// configuration, and per-operation timeouts).
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (RESBROKER_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Metrics controls whether broker operations are exported to
	// Prometheus via the status server's /metrics route.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// HTTPAPI configures the read-only status server.
	HTTPAPI httpapi.Config `mapstructure:"http_api" yaml:"http_api"`

	// Broker configures resource pre-registration, default camera
	// configuration, and per-operation timeouts.
	Broker BrokerConfig `mapstructure:"broker" yaml:"broker"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json.
	Format string `mapstructure:"format" yaml:"format"`

	// Output specifies where logs are written.
	// Valid values: stdout, stderr, or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing. When enabled,
// trace data is exported to an OTLP-compatible collector.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false (opt-in).
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	// Default: "localhost:4317".
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// MetricsConfig toggles Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled controls whether broker operations register Prometheus
	// counters/histograms. The /metrics route is always mounted on the
	// status server; this only controls whether it reports anything
	// beyond Go runtime metrics.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// BrokerConfig configures the broker.Host lifecycle.
type BrokerConfig struct {
	// PreRegisterCount is how many camera resources Initialize creates
	// eagerly, numbered 1..N.
	// Default: 1.
	PreRegisterCount int `mapstructure:"pre_register_count" yaml:"pre_register_count"`

	// AdapterType selects which AdapterFactory the registry builds.
	// Currently only "stub" is implemented.
	// Default: "stub".
	AdapterType string `mapstructure:"adapter_type" yaml:"adapter_type"`

	// DefaultConfiguration is the camera configuration UpdateConfiguration
	// falls back to when a request supplies none.
	DefaultConfiguration CameraConfigValues `mapstructure:"default_configuration" yaml:"default_configuration"`

	// Timeouts is the per-operation timeout profile.
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
}

// CameraConfigValues mirrors broker.CameraConfiguration in a config-file
// friendly shape (plain string for pixel format rather than the typed enum).
type CameraConfigValues struct {
	Width       int    `mapstructure:"width" yaml:"width"`
	Height      int    `mapstructure:"height" yaml:"height"`
	PixelFormat string `mapstructure:"pixel_format" yaml:"pixel_format"`
	FrameRate   int    `mapstructure:"frame_rate" yaml:"frame_rate"`
}

// ToBroker converts the config-file representation into a
// broker.CameraConfiguration, defaulting an unrecognized or empty pixel
// format to RGB24.
func (c CameraConfigValues) ToBroker() (broker.CameraConfiguration, error) {
	format := broker.PixelFormatRGB24
	if strings.EqualFold(c.PixelFormat, "YUV420") {
		format = broker.PixelFormatYUV420
	}
	return broker.NewCameraConfiguration(c.Width, c.Height, format, c.FrameRate)
}

// TimeoutsConfig is the config-file representation of broker.Timeouts.
type TimeoutsConfig struct {
	Start               time.Duration `mapstructure:"start" yaml:"start"`
	Stop                time.Duration `mapstructure:"stop" yaml:"stop"`
	Pause               time.Duration `mapstructure:"pause" yaml:"pause"`
	Resume              time.Duration `mapstructure:"resume" yaml:"resume"`
	UpdateConfiguration time.Duration `mapstructure:"update_configuration" yaml:"update_configuration"`
	Reset               time.Duration `mapstructure:"reset" yaml:"reset"`
	Fallback            time.Duration `mapstructure:"fallback" yaml:"fallback"`
}

// ToBroker converts the config-file representation into broker.Timeouts,
// falling back to broker.DefaultTimeouts() for any zero field.
func (t TimeoutsConfig) ToBroker() broker.Timeouts {
	d := broker.DefaultTimeouts()
	apply := func(field time.Duration, fallback time.Duration) time.Duration {
		if field == 0 {
			return fallback
		}
		return field
	}
	return broker.Timeouts{
		Start:               apply(t.Start, d.Start),
		Stop:                apply(t.Stop, d.Stop),
		Pause:               apply(t.Pause, d.Pause),
		Resume:              apply(t.Resume, d.Resume),
		UpdateConfiguration: apply(t.UpdateConfiguration, d.UpdateConfiguration),
		Reset:               apply(t.Reset, d.Reset),
		Fallback:            apply(t.Fallback, d.Fallback),
	}
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (RESBROKER_*)
//  2. Configuration file
//  3. Default values
//
// When no configuration file is found, Load returns GetDefaultConfig()
// as is; environment variables are not consulted in that case.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the
// requested file does not exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  resbrokerd init\n\n"+
				"Or specify a custom config file:\n"+
				"  resbrokerd <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  resbrokerd init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// ResolveConfigPath returns the path Load/MustLoad would read for the
// given configPath: an empty configPath resolves to the default config
// path, anything else is returned unchanged. Callers that need to know
// which file is actually in effect (for example, to set up a file
// watcher) use this instead of duplicating MustLoad's resolution rule.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		return GetDefaultConfigPath()
	}
	return configPath
}

// SaveConfig saves the configuration to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("RESBROKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "resbrokerd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "resbrokerd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
