// Package config loads the resrepo configuration from resrepo.yaml, the
// environment (RESREPO_ prefix) and defaults, in that order of precedence
// below explicit overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"resrepo/internal/cache"
)

// FileName is the base name of the optional config file.
const FileName = "resrepo"

// EnvPrefix prefixes every environment override, e.g. RESREPO_CACHE_DIR.
const EnvPrefix = "RESREPO"

// Config represents the resrepo configuration
type Config struct {
	Cache CacheConfig `mapstructure:"cache"`
	Load  LoadConfig  `mapstructure:"load"`
	Log   LogConfig   `mapstructure:"log"`
	Pack  PackConfig  `mapstructure:"pack"`
}

// CacheConfig represents the persistent cache configuration
type CacheConfig struct {
	Dir     string `mapstructure:"dir"`
	Enabled bool   `mapstructure:"enabled"`
	Async   bool   `mapstructure:"async"`
	// CodeVersion is written into snapshot headers. Empty means the build
	// version of the binary.
	CodeVersion string `mapstructure:"code_version"`
}

// LoadConfig represents repository loading configuration
type LoadConfig struct {
	Namespace   string `mapstructure:"namespace"`
	LibraryName string `mapstructure:"library_name"`
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// PackConfig represents prebuilt bundle configuration
type PackConfig struct {
	// MaxAPI drops configurations above this API level. 0 keeps all.
	MaxAPI int `mapstructure:"max_api"`
}

// Load reads the configuration. path names an explicit config file; empty
// looks for resrepo.yaml in the working directory and tolerates its absence.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("cache.dir", cache.DefaultRoot)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.async", true)
	v.SetDefault("cache.code_version", "")
	v.SetDefault("load.namespace", "res-auto")
	v.SetDefault("load.library_name", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("pack.max_api", 0)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Dir) == "" {
		return errors.New("cache.dir must be set when cache.enabled is true")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Pack.MaxAPI < 0 {
		return fmt.Errorf("pack.max_api must be >= 0, got: %d", c.Pack.MaxAPI)
	}
	if strings.ContainsAny(c.Load.Namespace, " \t/:") {
		return fmt.Errorf("load.namespace must be a package name or res-auto, got: %s", c.Load.Namespace)
	}
	return nil
}
