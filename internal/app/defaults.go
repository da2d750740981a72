package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - DEDUPE_CONFIG_PATH: config file location (default: ~/.config/dedupe.toml)
//   - DEDUPE_HOME: base directory for dedupe data (default: ~/.local/share/dedupe)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking DEDUPE_CONFIG_PATH env var first,
// then falling back to the default ~/.config/dedupe.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("DEDUPE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "dedupe.toml"), nil
}

// getBaseDir returns the base directory for dedupe data, checking DEDUPE_HOME env var first,
// then falling back to the XDG default ~/.local/share/dedupe.
func getBaseDir() (string, error) {
	if path := os.Getenv("DEDUPE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "dedupe"), nil
}
