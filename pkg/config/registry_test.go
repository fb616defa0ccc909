package config

import (
	"testing"

	"github.com/deviceflow/resbroker/pkg/broker"
)

func TestBuildAdapterFactory_Stub(t *testing.T) {
	cfg := GetDefaultConfig()

	factory, err := BuildAdapterFactory(cfg)
	if err != nil {
		t.Fatalf("BuildAdapterFactory failed: %v", err)
	}
	if factory == nil {
		t.Fatal("expected non-nil adapter factory")
	}

	adapter := factory(broker.NewCameraID(1))
	if adapter == nil {
		t.Fatal("expected factory to produce a non-nil adapter")
	}
}

func TestBuildAdapterFactory_Unknown(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Broker.AdapterType = "does-not-exist"

	if _, err := BuildAdapterFactory(cfg); err == nil {
		t.Fatal("expected error for unknown adapter type")
	}
}

func TestToHostOptions(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Broker.PreRegisterCount = 4

	opts, err := ToHostOptions(cfg, broker.NoopLogger{})
	if err != nil {
		t.Fatalf("ToHostOptions failed: %v", err)
	}

	if opts.PreRegisterCount != 4 {
		t.Errorf("expected PreRegisterCount 4, got %d", opts.PreRegisterCount)
	}
	if opts.AdapterFactory == nil {
		t.Error("expected non-nil AdapterFactory")
	}
	if opts.DefaultConfiguration.Width != cfg.Broker.DefaultConfiguration.Width {
		t.Errorf("expected DefaultConfiguration width %d, got %d", cfg.Broker.DefaultConfiguration.Width, opts.DefaultConfiguration.Width)
	}
}

func TestToHostOptions_InvalidDefaultConfiguration(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Broker.DefaultConfiguration.Width = 0

	if _, err := ToHostOptions(cfg, broker.NoopLogger{}); err == nil {
		t.Fatal("expected error for invalid default_configuration")
	}
}
