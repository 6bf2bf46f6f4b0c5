package config

import (
	stderrors "errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/vango-dev/vnav/internal/errors"
	"github.com/vango-dev/vnav/pkg/router"
)

const (
	// ConfigName is the config file name without extension.
	ConfigName = "vnav"

	// EnvPrefix prefixes environment overrides, e.g. VNAV_MODE.
	EnvPrefix = "VNAV"

	// DefaultAddr is the default devtools listen address.
	DefaultAddr = "localhost:7070"
)

// Config is the vnav configuration.
type Config struct {
	// Mode is the history mode: hash, history or abstract.
	Mode string `mapstructure:"mode"`

	// Base is the path the app is served under.
	Base string `mapstructure:"base"`

	// Fallback switches history mode to hash mode when the location backend
	// cannot push entries.
	Fallback bool `mapstructure:"fallback"`

	LogLevel string `mapstructure:"log_level"`

	// Routes is the route table file.
	Routes string `mapstructure:"routes"`

	// Watch re-reads the route table when it changes.
	Watch bool `mapstructure:"watch"`

	Serve  ServeConfig  `mapstructure:"serve"`
	Chunks ChunksConfig `mapstructure:"chunks"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServeConfig configures the devtools server.
type ServeConfig struct {
	Addr    string `mapstructure:"addr"`
	Metrics bool   `mapstructure:"metrics"`
}

// ChunksConfig names the S3 bucket lazy views are loaded from.
type ChunksConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

// NewViper returns a viper instance with vnav's defaults and environment
// binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("mode", string(router.ModeHash))
	v.SetDefault("base", "/")
	v.SetDefault("fallback", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("routes", "routes.yaml")
	v.SetDefault("watch", false)
	v.SetDefault("serve.addr", DefaultAddr)
	v.SetDefault("serve.metrics", true)
	v.SetDefault("chunks.bucket", "")
	v.SetDefault("chunks.prefix", "")
	v.SetDefault("chunks.region", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads vnav.{yaml,json,toml} from dir. A missing file is not an
// error; defaults and environment overrides apply.
func Load(dir string) (*Config, error) {
	v := NewViper()
	v.AddConfigPath(dir)
	v.SetConfigName(ConfigName)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.New(errors.CodeConfigRead).Wrap(err)
		}
	}
	return FromViper(v)
}

// LoadFile reads the config file at path. Its extension selects the format.
func LoadFile(path string) (*Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.New(errors.CodeConfigRead).
			WithDetail("Failed to read " + path).
			WithSuggestion("Check that the file exists and is valid YAML, JSON or TOML").
			Wrap(err)
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v. Commands that
// bind flags to v call it after parsing them.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	cfg.configPath = v.ConfigFileUsed()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in values the file set to empty.
func (c *Config) applyDefaults() {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode == "" {
		c.Mode = string(router.ModeHash)
	}
	if c.Base == "" {
		c.Base = "/"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch router.Mode(c.Mode) {
	case router.ModeHash, router.ModeHistory, router.ModeAbstract:
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("Unknown mode " + c.Mode).
			WithSuggestion("Set mode to hash, history or abstract")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("Unknown log_level " + c.LogLevel).
			WithSuggestion("Set log_level to debug, info, warn or error")
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// RoutesPath returns the route table path, resolved against the config
// file's directory.
func (c *Config) RoutesPath() string {
	if c.Routes == "" || filepath.IsAbs(c.Routes) {
		return c.Routes
	}
	return filepath.Join(c.Dir(), c.Routes)
}

// RouterOptions returns the router options the config describes, followed
// by routes.
func (c *Config) RouterOptions(routes ...router.RouteConfig) []router.Option {
	return []router.Option{
		router.WithMode(router.Mode(c.Mode)),
		router.WithBase(c.Base),
		router.WithFallback(c.Fallback),
		router.WithRoutes(routes...),
	}
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	return level, err
}
