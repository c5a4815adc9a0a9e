package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/formatter"
	"github.com/mcncl/jsontree/internal/tree"
)

// Config represents the complete configuration for jsontree
type Config struct {
	Layout tree.LayoutConfig `yaml:"layout" toml:"layout"`
	Output OutputConfig      `yaml:"output" toml:"output"`
	Search SearchConfig      `yaml:"search" toml:"search"`
	Server ServerConfig      `yaml:"server" toml:"server"`
	Dev    DevConfig         `yaml:"dev" toml:"dev"`
}

// OutputConfig controls how trees are written
type OutputConfig struct {
	// Format is used by render when no --format flag is given.
	Format  string `yaml:"format" toml:"format"`
	Color   bool   `yaml:"color" toml:"color"`
	Compact bool   `yaml:"compact" toml:"compact"`
}

// SearchConfig controls the search command
type SearchConfig struct {
	ShowTier bool `yaml:"show_tier" toml:"show_tier"`
	Outline  bool `yaml:"outline" toml:"outline"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr         string `yaml:"addr" toml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug" toml:"debug"`
}

// configNames are searched in order in every directory.
var configNames = []string{".jsontree.yml", ".jsontree.yaml", ".jsontree.toml", "jsontree.yml", "jsontree.yaml", "jsontree.toml"}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Layout: tree.DefaultLayout(),
		Output: OutputConfig{
			Format: string(formatter.FormatSVG),
			Color:  true,
		},
		Search: SearchConfig{
			ShowTier: false,
			Outline:  false,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 10 << 20,
		},
	}
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by
// extension. Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	cfg := NewConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewConfigError("failed to parse config file", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewConfigError("failed to parse config file", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the layout constants, the output format and the server
// settings.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if _, err := formatter.ParseFormat(c.Output.Format); err != nil {
		return errors.NewConfigError(fmt.Sprintf("unknown output format %q", c.Output.Format), errors.ErrUnknownFormat)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.NewConfigError("server.max_body_bytes must be positive", nil)
	}
	return nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// MergeConfigs merges CLI overrides into a base config.
// Non-empty values from override take precedence over base values.
func MergeConfigs(base, override *Config) *Config {
	merged := *base

	if override.Output.Format != "" {
		merged.Output.Format = override.Output.Format
	}
	if override.Server.Addr != "" {
		merged.Server.Addr = override.Server.Addr
	}
	if override.Layout.NodeWidth != 0 {
		merged.Layout.NodeWidth = override.Layout.NodeWidth
	}
	if override.Layout.NodeHeight != 0 {
		merged.Layout.NodeHeight = override.Layout.NodeHeight
	}
	if override.Layout.HorizontalSpacing != 0 {
		merged.Layout.HorizontalSpacing = override.Layout.HorizontalSpacing
	}
	if override.Layout.VerticalSpacing != 0 {
		merged.Layout.VerticalSpacing = override.Layout.VerticalSpacing
	}
	// Booleans can only be switched on from the command line.
	merged.Dev.Debug = base.Dev.Debug || override.Dev.Debug
	merged.Output.Compact = base.Output.Compact || override.Output.Compact

	return &merged
}

// LoadConfigWithCLI loads config with CLI argument precedence:
// CLI > config file > defaults. Zero layout constants in cliLayout leave the
// file or default value in place.
func LoadConfigWithCLI(configPath, cliFormat, cliAddr string, cliLayout tree.LayoutConfig, cliDebug bool) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg = MergeConfigs(cfg, &Config{
		Layout: cliLayout,
		Output: OutputConfig{Format: cliFormat},
		Server: ServerConfig{Addr: cliAddr},
		Dev:    DevConfig{Debug: cliDebug},
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
