// Package config loads minisql settings.
//
// Values are layered, lowest to highest precedence: built-in defaults, the
// YAML config file (minisql.yaml in the working directory, or --config),
// MINISQL_* environment variables, then command-line flags that were
// explicitly set.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/vegasq/minisql/cache"
	"github.com/vegasq/minisql/output"
	"github.com/vegasq/minisql/query"
)

// Default configuration values
const (
	DefaultDataDir     = "data"
	DefaultOutput      = "table"
	DefaultConfigFile  = "minisql.yaml"
	DefaultHistoryName = ".minisql_history"

	envPrefix = "MINISQL_"
)

// ErrInvalidConfig is returned when a loaded value is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the resolved settings
type Config struct {
	DataDir           string `koanf:"data_dir"`
	CacheCapacity     int    `koanf:"cache_capacity"`
	HashJoinThreshold int    `koanf:"hash_join_threshold"`
	Output            string `koanf:"output"`
	Verbose           bool   `koanf:"verbose"`
	HistoryFile       string `koanf:"history_file"`

	// ConfigFile is the file that was loaded, empty if none
	ConfigFile string `koanf:"-"`
}

// findConfigFile returns the explicit path, or minisql.yaml/minisql.yml if
// present in the working directory
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{DefaultConfigFile, "minisql.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load resolves the configuration. flags may be nil; only flags the user
// actually set override lower layers. Flag names are kebab-case versions of
// the config keys, e.g. --data-dir for data_dir.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"data_dir":            DefaultDataDir,
		"cache_capacity":      cache.DefaultCapacity,
		"hash_join_threshold": query.DefaultHashJoinThreshold,
		"output":              DefaultOutput,
		"verbose":             false,
		"history_file":        "",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: MINISQL_DATA_DIR -> data_dir
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = used
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(cfg.DataDir, DefaultHistoryName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalidConfig)
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("%w: cache_capacity must be at least 1, got %d", ErrInvalidConfig, c.CacheCapacity)
	}
	if c.HashJoinThreshold < 1 {
		return fmt.Errorf("%w: hash_join_threshold must be at least 1, got %d", ErrInvalidConfig, c.HashJoinThreshold)
	}
	if _, err := output.New(c.Output, io.Discard); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
