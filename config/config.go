package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL         string        `yaml:"base_url"`
	Granularity     string        `yaml:"granularity"` // day, week, or month
	DisplayTimezone string        `yaml:"display_timezone"`
	TargetTimezone  string        `yaml:"target_timezone"`
	DetectTimezone  bool          `yaml:"detect_timezone"`
	Timeout         time.Duration `yaml:"timeout"`
	OutputFile      string        `yaml:"output_file"`
	ErrorLogFile    string        `yaml:"error_log_file"`
	UserAgent       string        `yaml:"user_agent"`
	DedupeMaxSize   int           `yaml:"dedupe_max_size"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	Verbose         bool          `yaml:"verbose"`
}

// DefaultConfig returns the defaults for the calendar source. The target
// zone is fixed UTC-5, matching the convention of the downstream price
// archives the catalog is joined against.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://www.forexfactory.com",
		Granularity:     "week",
		DisplayTimezone: "America/New_York",
		TargetTimezone:  "Etc/GMT+5",
		DetectTimezone:  false,
		Timeout:         30 * time.Second,
		OutputFile:      "forex_factory_catalog.csv",
		ErrorLogFile:    "errors.csv",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		DedupeMaxSize:   4096,
		MetricsAddr:     "",
		Verbose:         false,
	}
}

// LoadFile reads a YAML config file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	switch c.Granularity {
	case "day", "week", "month":
	default:
		return fmt.Errorf("granularity must be day, week, or month")
	}
	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("invalid display timezone: %w", err)
	}
	if _, err := time.LoadLocation(c.TargetTimezone); err != nil {
		return fmt.Errorf("invalid target timezone: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.ErrorLogFile == "" {
		return fmt.Errorf("error log file cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}

// DisplayLocation resolves the display time zone.
func (c *Config) DisplayLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("load display timezone: %w", err)
	}
	return loc, nil
}

// TargetLocation resolves the target time zone.
func (c *Config) TargetLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TargetTimezone)
	if err != nil {
		return nil, fmt.Errorf("load target timezone: %w", err)
	}
	return loc, nil
}

// EnvInt reads an integer environment variable. The second return reports
// whether the variable was set.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable.
func EnvString(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
