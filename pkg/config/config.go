/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/rsv/pkg/compress"
)

// Config represents the rsv tool configuration
type Config struct {
	DataDir     string   `yaml:"data_dir" toml:"data_dir"`
	Compression string   `yaml:"compression" toml:"compression"`
	Codec       Codec    `yaml:"codec" toml:"codec"`
	Server      Server   `yaml:"server" toml:"server"`
	Security    Security `yaml:"security" toml:"security"`
	Logging     Logging  `yaml:"logging" toml:"logging"`
}

// Codec contains reader and writer settings
type Codec struct {
	BufferSize int  `yaml:"buffer_size" toml:"buffer_size"`
	Strict     bool `yaml:"strict" toml:"strict"`
}

// Server contains HTTP gateway settings
type Server struct {
	Bind        string   `yaml:"bind" toml:"bind"`
	Port        int      `yaml:"port" toml:"port"`
	CorsOrigins []string `yaml:"cors_origins,omitempty" toml:"cors_origins,omitempty"`
}

// Security contains security-related configuration
type Security struct {
	APIKey     string `yaml:"api_key" toml:"api_key"`
	MaxRowSize int    `yaml:"max_row_size" toml:"max_row_size"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // console or json
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:     "./data",
		Compression: string(compress.None),
		Codec: Codec{
			BufferSize: 4096,
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Security: Security{
			APIKey:     "",
			MaxRowSize: 1 << 20,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from the specified path. Files ending in
// .toml are parsed as TOML, everything else as YAML. Keys missing from the
// file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isTOML(configPath) {
		err = toml.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(configPath) {
		data, err = toml.Marshal(config)
	} else {
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if _, err := compress.ParseAlgorithm(c.Compression); err != nil {
		return fmt.Errorf("compression: %w", err)
	}
	if c.Codec.BufferSize < 0 {
		return fmt.Errorf("codec.buffer_size must not be negative, got %d", c.Codec.BufferSize)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Security.MaxRowSize <= 0 {
		return fmt.Errorf("security.max_row_size must be positive, got %d", c.Security.MaxRowSize)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key and saves it
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	// Use OS-specific default locations
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./rsv.yaml"
	}

	// For Linux/macOS, use ~/.config/rsv/config.yaml
	configDir := filepath.Join(homeDir, ".config", "rsv")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
