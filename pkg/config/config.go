/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the cerberus configuration
type Config struct {
	DataDir      string  `yaml:"data_dir"`
	RegistryFile string  `yaml:"registry_file"`
	Codec        Codec   `yaml:"codec"`
	Storage      Storage `yaml:"storage"`
	Logging      Logging `yaml:"logging"`
}

// Codec contains wire decoding limits
type Codec struct {
	MaxFrameBytes int64 `yaml:"max_frame_bytes"`
	MaxDepth      int   `yaml:"max_depth"`
}

// Storage contains value store configuration
type Storage struct {
	SyncWrites bool `yaml:"sync_writes"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:      "./data",
		RegistryFile: "registry.bin",
		Codec: Codec{
			MaxFrameBytes: 64 * 1024 * 1024,
			MaxDepth:      1024,
		},
		Storage: Storage{
			SyncWrites: true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// RegistryPath returns the registry file path. Relative paths are resolved
// against DataDir.
func (c *Config) RegistryPath() string {
	if c.RegistryFile == "" || filepath.IsAbs(c.RegistryFile) {
		return c.RegistryFile
	}
	return filepath.Join(c.DataDir, c.RegistryFile)
}

// StorePath returns the directory of the value store.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "store")
}

// Validate checks the configuration for values the CLI cannot run with
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.Wrap(ErrInvalidConfig, "data_dir cannot be empty")
	}
	if c.Codec.MaxFrameBytes < 0 {
		return errors.Wrapf(ErrInvalidConfig, "codec.max_frame_bytes cannot be negative: %d", c.Codec.MaxFrameBytes)
	}
	if c.Codec.MaxDepth < 0 {
		return errors.Wrapf(ErrInvalidConfig, "codec.max_depth cannot be negative: %d", c.Codec.MaxDepth)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown logging.level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.Newf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "invalid config path")
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// BootstrapConfig writes a default configuration, pointing at dataDir when
// it is set
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, errors.Wrap(err, "failed to save bootstrap config")
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./cerberus.yaml"
	}

	// For Linux/macOS, use ~/.config/cerberus/config.yaml
	configDir := filepath.Join(homeDir, ".config", "cerberus")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
