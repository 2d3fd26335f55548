package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig locates the per-user data directory
type UserConfig struct {
	BaseDir     string // $HOME/.klein-relay
	ConfigFile  string // $HOME/.klein-relay/config.yaml
	HistoryFile string // $HOME/.klein-relay/console_history
}

// DefaultUserConfig resolves the directory under $HOME and creates it
func DefaultUserConfig() (*UserConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return NewUserConfig(filepath.Join(homeDir, ".klein-relay"))
}

// NewUserConfig uses baseDir as the data directory, creating it if needed
func NewUserConfig(baseDir string) (*UserConfig, error) {
	c := &UserConfig{
		BaseDir:     baseDir,
		ConfigFile:  filepath.Join(baseDir, "config.yaml"),
		HistoryFile: filepath.Join(baseDir, "console_history"),
	}
	if err := os.MkdirAll(c.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", c.BaseDir, err)
	}
	return c, nil
}

// ResolveConfigPath returns explicit when set, otherwise the default config
// file if it exists, otherwise "" (environment only).
func (c *UserConfig) ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(c.ConfigFile); err == nil {
		return c.ConfigFile
	}
	return ""
}
