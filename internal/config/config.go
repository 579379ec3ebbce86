// Package config loads funnel settings from a YAML file and FUNNEL_*
// environment variables. Flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "FUNNEL_"

// Config is the full runtime configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Store    StoreConfig    `yaml:"store"`
	Funnel   FunnelConfig   `yaml:"funnel"`
	Tracking TrackingConfig `yaml:"tracking"`
}

// ServerConfig covers the HTTP surface.
type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
	JWTSecret string  `yaml:"jwt_secret"`
	Metrics   bool    `yaml:"metrics"`
}

// BackendConfig points at the privileged and public surfaces. With no URLs
// the local Fixtures file (or only the demo campaign) is served.
type BackendConfig struct {
	PrivilegedURL string        `yaml:"privileged_url"`
	PublicURL     string        `yaml:"public_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Fixtures      string        `yaml:"fixtures"`
}

// StoreConfig selects where sessions live.
type StoreConfig struct {
	Driver        string        `yaml:"driver"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl"`
	EncryptionKey string        `yaml:"encryption_key"`
	FallbackKeys  []string      `yaml:"fallback_keys"`
}

// FunnelConfig tunes the review rules.
type FunnelConfig struct {
	ShareThreshold    int    `yaml:"share_threshold"`
	MinFeedbackLength int    `yaml:"min_feedback_length"`
	MaxInputSize      int    `yaml:"max_input_size"`
	Catalog           string `yaml:"catalog"`
}

// TrackingConfig configures the analytics side channel.
type TrackingConfig struct {
	PixelURL     string   `yaml:"pixel_url"`
	Log          bool     `yaml:"log"`
	MaskPatterns []string `yaml:"mask_patterns"`
	QueueSize    int      `yaml:"queue_size"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 10,
			RateBurst: 20,
			Metrics:   true,
		},
		Backend: BackendConfig{
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver: StoreMemory,
			Prefix: "funnel:session:",
			TTL:    24 * time.Hour,
		},
		Funnel: FunnelConfig{
			ShareThreshold:    4,
			MinFeedbackLength: 40,
			MaxInputSize:      4096,
		},
		Tracking: TrackingConfig{
			QueueSize: 256,
		},
	}
}

// Load reads path over the defaults and then applies environment
// overrides. An empty path skips the file; a missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from FUNNEL_* variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &c.LogLevel)

	str("ADDR", &c.Server.Addr)
	float("RATE_LIMIT", &c.Server.RateLimit)
	num("RATE_BURST", &c.Server.RateBurst)
	str("JWT_SECRET", &c.Server.JWTSecret)
	boolean("METRICS", &c.Server.Metrics)

	str("PRIVILEGED_URL", &c.Backend.PrivilegedURL)
	str("PUBLIC_URL", &c.Backend.PublicURL)
	duration("BACKEND_TIMEOUT", &c.Backend.Timeout)
	str("FIXTURES", &c.Backend.Fixtures)

	str("STORE", &c.Store.Driver)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("REDIS_PASSWORD", &c.Store.RedisPassword)
	num("REDIS_DB", &c.Store.RedisDB)
	str("SESSION_PREFIX", &c.Store.Prefix)
	duration("SESSION_TTL", &c.Store.TTL)
	str("ENCRYPTION_KEY", &c.Store.EncryptionKey)
	if v, ok := lookup(EnvPrefix + "FALLBACK_KEYS"); ok {
		c.Store.FallbackKeys = splitList(v)
	}

	num("SHARE_THRESHOLD", &c.Funnel.ShareThreshold)
	num("MIN_FEEDBACK_LENGTH", &c.Funnel.MinFeedbackLength)
	num("MAX_INPUT_SIZE", &c.Funnel.MaxInputSize)
	str("CATALOG", &c.Funnel.Catalog)

	str("PIXEL_URL", &c.Tracking.PixelURL)
	boolean("TRACKING_LOG", &c.Tracking.Log)
	if v, ok := lookup(EnvPrefix + "MASK_PATTERNS"); ok {
		c.Tracking.MaskPatterns = splitList(v)
	}

	return errors.Join(errs...)
}

// Validate rejects settings the funnel cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store: redis driver requires redis_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: unknown driver %q", c.Store.Driver))
	}
	if (c.Backend.PrivilegedURL == "") != (c.Backend.PublicURL == "") {
		errs = append(errs, errors.New("backend: privileged_url and public_url must be set together"))
	}
	if c.Funnel.ShareThreshold < 1 || c.Funnel.ShareThreshold > 5 {
		errs = append(errs, fmt.Errorf("funnel: share_threshold must be between 1 and 5, got %d", c.Funnel.ShareThreshold))
	}
	if c.Funnel.MinFeedbackLength < 0 {
		errs = append(errs, errors.New("funnel: min_feedback_length must not be negative"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server: rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// RemoteBackend reports whether real surfaces are configured.
func (c Config) RemoteBackend() bool {
	return c.Backend.PrivilegedURL != "" && c.Backend.PublicURL != ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
