// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"reviewero/internal/catalog"
	"reviewero/internal/httputil"
	"reviewero/internal/observe"
	"reviewero/internal/review"
)

// Config holds all application configuration.
type Config struct {
	TMDBBase    string  `toml:"tmdb_base"`
	OMDbBase    string  `toml:"omdb_base"`
	GeminiBase  string  `toml:"gemini_base"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	Listen      string  `toml:"listen"`
	RateLimit   float64 `toml:"rate_limit"` // requests per second per client, 0 disables
	RateBurst   int     `toml:"rate_burst"`
	LogCapacity int     `toml:"log_capacity"`
	LogFile     string  `toml:"log_file"`
	Debug       bool    `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TMDBBase:    catalog.DefaultTMDBBase,
		OMDbBase:    catalog.DefaultOMDbBase,
		GeminiBase:  review.DefaultGeminiBase,
		Model:       review.DefaultModel,
		Temperature: review.DefaultTemperature,
		Listen:      "127.0.0.1:7000",
		RateLimit:   1,
		RateBurst:   5,
		LogCapacity: observe.DefaultCapacity,
		LogFile:     "",
		Debug:       false,
	}
}

const appName = "reviewero"

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// dataDir returns the XDG-compliant data directory.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CredentialsPath returns the path to the credential database.
func CredentialsPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.db"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	for name, base := range map[string]string{
		"tmdb_base":   c.TMDBBase,
		"omdb_base":   c.OMDbBase,
		"gemini_base": c.GeminiBase,
	} {
		if err := httputil.ValidateURL(base); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if strings.TrimSpace(c.Model) == "" || strings.ContainsAny(c.Model, "/?# ") {
		return fmt.Errorf("invalid model name %q", c.Model)
	}
	if c.Temperature <= 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range (0, 2]", c.Temperature)
	}

	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1 when rate_limit is set")
	}

	if c.LogCapacity < 1 || c.LogCapacity > 100000 {
		return fmt.Errorf("log_capacity %d out of range (1-100000)", c.LogCapacity)
	}

	return nil
}

// ExpandLogFile resolves ~ in the log file path. An empty path stays empty.
func (c *Config) ExpandLogFile() (string, error) {
	path := c.LogFile
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}
