package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/deviceflow/resbroker/internal/logger"
	"github.com/deviceflow/resbroker/pkg/broker"
)

// adapterFactoryBuilders maps a BrokerConfig.AdapterType name to a
// constructor for the corresponding broker.AdapterFactory. New adapter
// implementations register themselves here rather than being wired
// directly into BuildAdapterFactory.
var adapterFactoryBuilders = map[string]func() broker.AdapterFactory{
	"stub": func() broker.AdapterFactory { return broker.NewStubAdapterFactory() },
}

// BuildAdapterFactory resolves cfg.AdapterType into a broker.AdapterFactory,
// the same registry-of-named-constructors shape used elsewhere to turn a
// config-file string into a concrete component without a type switch at
// every call site.
func BuildAdapterFactory(cfg *Config) (broker.AdapterFactory, error) {
	build, ok := adapterFactoryBuilders[cfg.Broker.AdapterType]
	if !ok {
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Broker.AdapterType)
	}
	logger.Debug("building adapter factory", "adapter_type", cfg.Broker.AdapterType)
	return build(), nil
}

// ToHostOptions converts cfg into broker.Options, resolving the adapter
// factory and camera configuration defaults along the way.
func ToHostOptions(cfg *Config, log broker.Logger) (broker.Options, error) {
	factory, err := BuildAdapterFactory(cfg)
	if err != nil {
		return broker.Options{}, err
	}

	defaultConfiguration, err := cfg.Broker.DefaultConfiguration.ToBroker()
	if err != nil {
		return broker.Options{}, fmt.Errorf("invalid broker.default_configuration: %w", err)
	}

	return broker.Options{
		PreRegisterCount:     cfg.Broker.PreRegisterCount,
		DefaultConfiguration: defaultConfiguration,
		Timeouts:             cfg.Broker.Timeouts.ToBroker(),
		MetricsEnabled:       cfg.Metrics.Enabled,
		Registry:             prometheus.DefaultRegisterer,
		AdapterFactory:       factory,
		Logger:               log,
		ShutdownTimeout:      cfg.ShutdownTimeout,
	}, nil
}
