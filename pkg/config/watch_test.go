package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeInitialConfig(t *testing.T, path string, preRegisterCount int) {
	t.Helper()
	content := "broker:\n  pre_register_count: " + itoa(preRegisterCount) + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	writeInitialConfig(t, configPath, 1)

	changed := make(chan *Config, 1)
	stop, err := Watch(configPath, func(cfg *Config) { changed <- cfg })
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer func() { _ = stop() }()

	writeInitialConfig(t, configPath, 5)

	select {
	case cfg := <-changed:
		if cfg.Broker.PreRegisterCount != 5 {
			t.Errorf("expected reloaded pre_register_count 5, got %d", cfg.Broker.PreRegisterCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onChange was never invoked after writing the config file")
	}
}

func TestWatch_InvalidReloadIsIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	writeInitialConfig(t, configPath, 1)

	changed := make(chan *Config, 1)
	stop, err := Watch(configPath, func(cfg *Config) { changed <- cfg })
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer func() { _ = stop() }()

	// A negative pre_register_count fails Validate, so onChange must not
	// fire for this write.
	if err := os.WriteFile(configPath, []byte("broker:\n  pre_register_count: -1\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	select {
	case cfg := <-changed:
		t.Fatalf("onChange fired for an invalid reload: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_StopClosesCleanly(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	writeInitialConfig(t, configPath, 1)

	stop, err := Watch(configPath, func(*Config) {})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if err := stop(); err != nil {
		t.Errorf("stop() returned error: %v", err)
	}
}
