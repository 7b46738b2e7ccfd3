// Package config loads tspstudio settings from tspstudio.toml and
// TSPSTUDIO_* environment variables.
//
// Lookup order, lowest precedence first: built-in defaults, the config
// file (XDG config dir, then the working directory), environment. Command
// flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/matzehuels/tspstudio/pkg/neos"
	"github.com/matzehuels/tspstudio/pkg/store"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

const (
	appName   = "tspstudio"
	envPrefix = "TSPSTUDIO"
	fileName  = "tspstudio"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the effective configuration.
type Config struct {
	Store StoreConfig `mapstructure:"store" toml:"store"`
	Cache CacheConfig `mapstructure:"cache" toml:"cache"`
	NEOS  NEOSConfig  `mapstructure:"neos" toml:"neos"`
}

// StoreConfig selects where studies are persisted.
type StoreConfig struct {
	Backend string `mapstructure:"backend" toml:"backend" validate:"oneof=file redis mongo"`
	Dir     string `mapstructure:"dir" toml:"dir,omitempty"`
	URL     string `mapstructure:"url" toml:"url,omitempty" validate:"required_unless=Backend file"`
	Prefix  string `mapstructure:"prefix" toml:"prefix,omitempty"`
}

// CacheConfig selects where stippling and render results are cached.
type CacheConfig struct {
	Backend string `mapstructure:"backend" toml:"backend" validate:"oneof=file redis none"`
	Dir     string `mapstructure:"dir" toml:"dir,omitempty"`
	URL     string `mapstructure:"url" toml:"url,omitempty" validate:"required_if=Backend redis"`
}

// NEOSConfig holds remote solving settings.
type NEOSConfig struct {
	URL         string        `mapstructure:"url" toml:"url" validate:"required,url"`
	Email       string        `mapstructure:"email" toml:"email,omitempty" validate:"omitempty,email"`
	Delay       time.Duration `mapstructure:"delay" toml:"delay" validate:"gte=0"`
	Requeue     time.Duration `mapstructure:"requeue" toml:"requeue" validate:"gte=0"`
	MaxAttempts int           `mapstructure:"max_attempts" toml:"max_attempts" validate:"gte=0"`
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Config {
	return store.Config{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		URL:     c.Store.URL,
		Prefix:  c.Store.Prefix,
	}
}

// Orchestrator converts the neos section for studio.NewOrchestrator.
func (c *Config) Orchestrator() studio.Config {
	return studio.Config{
		Email:           c.NEOS.Email,
		Delay:           c.NEOS.Delay,
		RequeueInterval: c.NEOS.Requeue,
		MaxAttempts:     c.NEOS.MaxAttempts,
	}
}

// WriteTOML encodes c as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Backend: store.BackendFile},
		Cache: CacheConfig{Backend: CacheFile},
		NEOS: NEOSConfig{
			URL:     neos.DefaultURL,
			Delay:   studio.DefaultDelay,
			Requeue: studio.DefaultRequeueInterval,
		},
	}
}

// Loaded is a configuration together with the file it came from.
type Loaded struct {
	*Config
	File string // empty when no file was found
}

// Load reads the configuration. An explicit path must exist; otherwise a
// missing file is not an error.
func Load(path string) (*Loaded, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, File: v.ConfigFileUsed()}, nil
}

// Every key needs a default so that AutomaticEnv can bind it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.url", d.Store.URL)
	v.SetDefault("store.prefix", d.Store.Prefix)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.url", d.Cache.URL)
	v.SetDefault("neos.url", d.NEOS.URL)
	v.SetDefault("neos.email", d.NEOS.Email)
	v.SetDefault("neos.delay", d.NEOS.Delay)
	v.SetDefault("neos.requeue", d.NEOS.Requeue)
	v.SetDefault("neos.max_attempts", d.NEOS.MaxAttempts)
}

// Dir returns the config directory using the XDG standard
// (~/.config/tspstudio/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName+".toml"), nil
}
