package config

import (
	"os"
	"path/filepath"
)

// AntonPath returns the root directory for Anton's state. It uses
// $ANTON_PATH if set, otherwise defaults to ~/.anton.
func AntonPath() string {
	if v := os.Getenv("ANTON_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".anton")
	}
	return filepath.Join(home, ".anton")
}

// ConfigPath returns the path to Anton's config file.
func ConfigPath() string {
	return filepath.Join(AntonPath(), "config.jsonc")
}

// DotenvPath returns the path to Anton's .env file.
func DotenvPath() string {
	return filepath.Join(AntonPath(), ".env")
}

// LockPath returns the path to the Anton process lock file.
func LockPath() string {
	return filepath.Join(AntonPath(), "anton.lock")
}

// VaultDir returns the default vault directory, honoring an explicit
// override from VaultConfig.Dir.
func VaultDir(cfg VaultConfig) string {
	if cfg.Dir != "" {
		return cfg.Dir
	}
	return filepath.Join(AntonPath(), "vault")
}
