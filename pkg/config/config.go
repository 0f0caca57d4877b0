// Package config loads export settings from a TOML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/stars-export/pkg/client"
	"github.com/Sternrassler/stars-export/pkg/export"
	"github.com/Sternrassler/stars-export/pkg/logging"
	"github.com/Sternrassler/stars-export/pkg/ratelimit"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full export configuration. Durations are whole seconds.
type Config struct {
	API       APIConfig       `toml:"api"`
	Output    OutputConfig    `toml:"output"`
	Log       LogConfig       `toml:"log"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Cache     CacheConfig     `toml:"cache"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// APIConfig selects and describes the GitHub API endpoint.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	Version        string `toml:"version"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PerPage        int    `toml:"per_page"`
}

// OutputConfig controls where and how exports are written.
type OutputConfig struct {
	Dir      string   `toml:"dir"`
	BaseName string   `toml:"base_name"`
	Formats  []string `toml:"formats"`
}

// LogConfig controls console and file logging.
type LogConfig struct {
	Dir    string `toml:"dir"`
	File   string `toml:"file"`
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// RateLimitConfig tunes the rate governor and the courtesy jitter.
type RateLimitConfig struct {
	Threshold            int    `toml:"threshold"`
	Policy               string `toml:"policy"`
	FallbackPauseSeconds int    `toml:"fallback_pause_seconds"`
	Jitter               bool   `toml:"jitter"`
	JitterMinSeconds     int    `toml:"jitter_min_seconds"`
	JitterMaxSeconds     int    `toml:"jitter_max_seconds"`
}

// CacheConfig enables the Redis page cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr  string `toml:"redis_addr"`
	RedisDB    int    `toml:"redis_db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// MetricsConfig enables a Prometheus textfile dump when TextfilePath is set.
type MetricsConfig struct {
	TextfilePath string `toml:"textfile"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        client.DefaultBaseURL,
			Version:        client.DefaultAPIVersion,
			UserAgent:      client.DefaultUserAgent,
			TimeoutSeconds: 30,
			PerPage:        client.MaxPerPage,
		},
		Output: OutputConfig{
			Dir:      "output",
			BaseName: export.DefaultBaseName,
			Formats:  []string{string(export.FormatJSON), string(export.FormatCSV), string(export.FormatXLSX)},
		},
		Log: LogConfig{
			Dir:    "logs",
			File:   "repositories.log",
			Level:  string(logging.LevelInfo),
			Pretty: true,
		},
		RateLimit: RateLimitConfig{
			Threshold:            ratelimit.DefaultThreshold,
			Policy:               string(ratelimit.PolicyUntilReset),
			FallbackPauseSeconds: int(ratelimit.DefaultFallbackPause / time.Second),
			JitterMinSeconds:     1,
			JitterMaxSeconds:     11,
		},
		Cache: CacheConfig{
			TTLSeconds: 86400,
		},
	}
}

// Load reads path on top of the defaults, then applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Save writes cfg as TOML, creating the parent directory.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// applyEnv overrides file values with STARS_* variables. GITHUB_API_URL is
// honoured for the base URL when STARS_API_URL is unset.
func (c *Config) applyEnv() error {
	c.API.BaseURL = getEnv("STARS_API_URL", getEnv("GITHUB_API_URL", c.API.BaseURL))
	c.API.UserAgent = getEnv("STARS_USER_AGENT", c.API.UserAgent)
	c.Output.Dir = getEnv("STARS_OUTPUT_DIR", c.Output.Dir)
	c.Log.Dir = getEnv("STARS_LOG_DIR", c.Log.Dir)
	c.Log.Level = getEnv("STARS_LOG_LEVEL", c.Log.Level)
	c.RateLimit.Policy = getEnv("STARS_PAUSE_POLICY", c.RateLimit.Policy)
	c.Cache.RedisAddr = getEnv("STARS_REDIS_ADDR", c.Cache.RedisAddr)
	c.Metrics.TextfilePath = getEnv("STARS_METRICS_FILE", c.Metrics.TextfilePath)

	if v := os.Getenv("STARS_FORMATS"); v != "" {
		c.Output.Formats = strings.Split(v, ",")
	}

	threshold, err := getEnvInt("STARS_RATE_THRESHOLD", c.RateLimit.Threshold)
	if err != nil {
		return err
	}
	c.RateLimit.Threshold = threshold

	return nil
}

// Validate checks the configuration for values the exporter cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.API.UserAgent == "" {
		errs = append(errs, errors.New("api.user_agent is required"))
	}
	if c.API.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("api.timeout_seconds must be positive"))
	}
	if c.API.PerPage < 1 || c.API.PerPage > client.MaxPerPage {
		errs = append(errs, fmt.Errorf("api.per_page must be between 1 and %d", client.MaxPerPage))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	if _, err := export.ParseFormats(c.Output.Formats); err != nil {
		errs = append(errs, fmt.Errorf("output.formats: %w", err))
	}
	if c.Log.Dir == "" || c.Log.File == "" {
		errs = append(errs, errors.New("log.dir and log.file are required"))
	}
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.RateLimit.Threshold < 0 {
		errs = append(errs, errors.New("rate_limit.threshold must not be negative"))
	}
	if _, err := ratelimit.ParsePolicy(c.RateLimit.Policy); err != nil {
		errs = append(errs, fmt.Errorf("rate_limit.policy: %w", err))
	}
	if c.RateLimit.FallbackPauseSeconds <= 0 {
		errs = append(errs, errors.New("rate_limit.fallback_pause_seconds must be positive"))
	}
	if c.RateLimit.JitterMinSeconds < 0 || c.RateLimit.JitterMaxSeconds < c.RateLimit.JitterMinSeconds {
		errs = append(errs, errors.New("rate_limit jitter range is invalid"))
	}
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, errors.New("cache.ttl_seconds must be positive"))
	}

	return errors.Join(errs...)
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Governor builds the rate governor described by the configuration.
func (c Config) Governor() (*ratelimit.Governor, error) {
	policy, err := ratelimit.ParsePolicy(c.RateLimit.Policy)
	if err != nil {
		return nil, err
	}

	g := ratelimit.NewGovernor()
	g.Threshold = c.RateLimit.Threshold
	g.Policy = policy
	g.FallbackPause = time.Duration(c.RateLimit.FallbackPauseSeconds) * time.Second
	return g, nil
}

// Jitter returns the courtesy delay range, zero when disabled.
func (c Config) Jitter() ratelimit.Jitter {
	if !c.RateLimit.Jitter {
		return ratelimit.Jitter{}
	}
	return ratelimit.Jitter{
		Min: time.Duration(c.RateLimit.JitterMinSeconds) * time.Second,
		Max: time.Duration(c.RateLimit.JitterMaxSeconds) * time.Second,
	}
}

// CacheTTL returns how long cached pages stay revalidatable.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// LogPath returns the log file location.
func (c Config) LogPath() string {
	return filepath.Join(c.Log.Dir, c.Log.File)
}

// Formats returns the parsed export formats.
func (c Config) Formats() ([]export.Format, error) {
	return export.ParseFormats(c.Output.Formats)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
