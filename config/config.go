// Package config manages application configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ytcatalog/youtube"
)

// FileName is the name of the optional JSON config file.
const FileName = "ytcatalog.json"

// Config holds all application configuration.
type Config struct {
	// APIKey is the YouTube Data API key.
	APIKey string `json:"api_key"`
	// APIEndpoint overrides the Data API base URL (empty = Google's).
	APIEndpoint string `json:"api_endpoint"`
	// RequestTimeout bounds every individual upstream call.
	RequestTimeout Duration `json:"request_timeout"`
	// PageDelay is the courtesy pause between two listing pages.
	PageDelay Duration `json:"page_delay"`
	// MaxResultsPerPage is the listing page size (1..50).
	MaxResultsPerPage int `json:"max_results"`
	// Order is the default listing order.
	Order string `json:"order"`

	// Addr is the HTTP listen address.
	Addr string `json:"addr"`
	// StaticDir is an optional directory with the browser UI.
	StaticDir string `json:"static_dir"`
	// ShutdownTimeout bounds the graceful HTTP shutdown.
	ShutdownTimeout Duration `json:"shutdown_timeout"`

	// OutputDir is where saved catalogs are written.
	OutputDir string `json:"output_dir"`

	// LogLevel is a logrus level name.
	LogLevel string `json:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format"`
}

// Duration is a time.Duration that reads "15s"-style strings from JSON.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return errors.Wrapf(err, "parse duration %q", s)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Errorf("invalid duration %s", b)
	}
	*d = Duration(n)
	return nil
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		RequestTimeout:    Duration(youtube.DefaultRequestTimeout),
		PageDelay:         Duration(youtube.DefaultPageDelay),
		MaxResultsPerPage: youtube.MaxPageSize,
		Order:             string(youtube.OrderDate),
		Addr:              ":3000",
		ShutdownTimeout:   Duration(10 * time.Second),
		OutputDir:         "./output",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults. A .env file in the working
// directory is read into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "load config file")
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytcatalog.json in current directory or home directory.
func (c *Config) loadFromFile() error {
	paths := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ytcatalog", FileName))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}
		log.WithField("path", path).Debug("loaded config file")
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables. Malformed
// numbers and durations are errors rather than silently ignored.
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("YTCATALOG_API_ENDPOINT"); v != "" {
		c.APIEndpoint = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("YTCATALOG_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("YTCATALOG_ORDER"); v != "" {
		c.Order = v
	}
	if v := os.Getenv("YTCATALOG_STATIC_DIR"); v != "" {
		c.StaticDir = v
	}
	if v := os.Getenv("YTCATALOG_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("YTCATALOG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("YTCATALOG_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("YTCATALOG_MAX_RESULTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "YTCATALOG_MAX_RESULTS")
		}
		c.MaxResultsPerPage = n
	}

	durations := []struct {
		env string
		dst *Duration
	}{
		{"YTCATALOG_REQUEST_TIMEOUT", &c.RequestTimeout},
		{"YTCATALOG_PAGE_DELAY", &c.PageDelay},
		{"YTCATALOG_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, d.env)
		}
		*d.dst = Duration(parsed)
	}
	return nil
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.PageDelay < 0 {
		return errors.New("page_delay must be non-negative")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	if c.MaxResultsPerPage < 1 || c.MaxResultsPerPage > youtube.MaxPageSize {
		return errors.Errorf("max_results must be between 1 and %d", youtube.MaxPageSize)
	}
	if _, err := youtube.ParseOrder(c.Order); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// RequireAPIKey reports an error when no API key is configured. Only
// commands that call upstream need one.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("no YouTube Data API key configured: set YOUTUBE_API_KEY or api_key in " + FileName)
	}
	return nil
}

// FetchOptions returns the default fetch options derived from c.
func (c *Config) FetchOptions() youtube.Options {
	opts := youtube.DefaultOptions()
	opts.MaxResultsPerPage = c.MaxResultsPerPage
	opts.Order = youtube.Order(c.Order)
	return opts
}

// ConfigureLogging applies LogLevel and LogFormat to the standard logrus logger.
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrap(err, "log_level")
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
