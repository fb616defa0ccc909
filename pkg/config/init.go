package config

import (
	"fmt"
	"os"
)

// InitConfig writes a default configuration file to the default location,
// returning the path written. It fails if a file already exists there
// unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path. It fails
// if a file already exists there unless force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()
	return SaveConfig(cfg, path)
}
