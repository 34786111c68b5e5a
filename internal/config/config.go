package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "hijrical/internal/log"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

const (
	DefaultListen            = "127.0.0.1:8080"
	DefaultRefreshCron       = "@hourly"
	DefaultMinRefreshMinutes = 60
	DefaultCalculatedURL     = "https://fiqhcouncil.org/calendar/"
	DefaultMoonsightingURL   = "https://hilalcommittee.org/"
	DefaultMaxPosts          = 12
	DefaultFetchMode         = "http"
	DefaultCacheDir          = "./var/fetch-cache"
	DefaultTimeoutSeconds    = 15
	DefaultOverridesPath     = "./var/overrides.json"
	DefaultRemindersPath     = "./var/reminders.json"
)

// CalculatedConfig points at the published calculated calendar.
type CalculatedConfig struct {
	URL string `yaml:"url" json:"url" validate:"required,url"`
	// PDFFallback follows the page's PDF calendar when the page itself has
	// no table. Nil means enabled.
	PDFFallback *bool `yaml:"pdf_fallback,omitempty" json:"pdf_fallback,omitempty"`
}

// PDFFallbackEnabled reports the effective PDFFallback value.
func (c CalculatedConfig) PDFFallbackEnabled() bool {
	return c.PDFFallback == nil || *c.PDFFallback
}

// MoonsightingConfig enables announcements from a moonsighting committee.
type MoonsightingConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	SiteURL  string `yaml:"site_url" json:"site_url" validate:"required_if=Enabled true,omitempty,url"`
	MaxPosts int    `yaml:"max_posts" json:"max_posts" validate:"min=0,max=100"`
}

// AuthorityConfig enables an authority override feed.
type AuthorityConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	FeedURL string `yaml:"feed_url" json:"feed_url" validate:"required_if=Enabled true,omitempty,url"`
}

// ManualConfig enables user-entered overrides.
type ManualConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	StorePath string `yaml:"store_path" json:"store_path" validate:"required"`
}

// RemindersConfig locates the reminder store.
type RemindersConfig struct {
	StorePath string `yaml:"store_path" json:"store_path" validate:"required"`
}

// FetchConfig controls how source pages are retrieved.
type FetchConfig struct {
	// Mode is "http" for plain requests or "browser" to render pages in
	// headless Chromium first.
	Mode              string  `yaml:"mode" json:"mode" validate:"oneof=http browser"`
	CacheDir          string  `yaml:"cache_dir" json:"cache_dir"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds" validate:"min=1,max=600"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" validate:"min=0"`
	UserAgent         string  `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
}

// Timeout returns TimeoutSeconds as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" validate:"required"`

	// Timezone is the IANA timezone civil dates are read in (e.g. "America/New_York").
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "0 * * * *" or
	// "@hourly") used for periodic refresh.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"required"`

	// MinRefreshMinutes is how long a successful refresh stays fresh;
	// scheduled refreshes inside this window are skipped.
	MinRefreshMinutes int `yaml:"min_refresh_minutes" json:"min_refresh_minutes" validate:"min=0"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info error"`

	Calculated   CalculatedConfig   `yaml:"calculated" json:"calculated"`
	Moonsighting MoonsightingConfig `yaml:"moonsighting" json:"moonsighting"`
	Authority    AuthorityConfig    `yaml:"authority" json:"authority"`
	Manual       ManualConfig       `yaml:"manual" json:"manual"`
	Reminders    RemindersConfig    `yaml:"reminders" json:"reminders"`
	Fetch        FetchConfig        `yaml:"fetch" json:"fetch"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            DefaultListen,
		RefreshCron:       DefaultRefreshCron,
		MinRefreshMinutes: DefaultMinRefreshMinutes,
		LogLevel:          "info",
		Calculated:        CalculatedConfig{URL: DefaultCalculatedURL},
		Moonsighting: MoonsightingConfig{
			SiteURL:  DefaultMoonsightingURL,
			MaxPosts: DefaultMaxPosts,
		},
		Manual: ManualConfig{
			Enabled:   true,
			StorePath: DefaultOverridesPath,
		},
		Reminders: RemindersConfig{StorePath: DefaultRemindersPath},
		Fetch: FetchConfig{
			Mode:           DefaultFetchMode,
			CacheDir:       DefaultCacheDir,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if c.MinRefreshMinutes <= 0 {
		c.MinRefreshMinutes = DefaultMinRefreshMinutes
	}
	switch c.LogLevel {
	case "debug", "info", "error":
		// ok
	default:
		c.LogLevel = "info"
	}
	if c.Calculated.URL == "" {
		c.Calculated.URL = DefaultCalculatedURL
	}
	if c.Moonsighting.SiteURL == "" {
		c.Moonsighting.SiteURL = DefaultMoonsightingURL
	}
	if c.Moonsighting.MaxPosts <= 0 {
		c.Moonsighting.MaxPosts = DefaultMaxPosts
	}
	if c.Manual.StorePath == "" {
		c.Manual.StorePath = DefaultOverridesPath
	}
	if c.Reminders.StorePath == "" {
		c.Reminders.StorePath = DefaultRemindersPath
	}
	if c.Fetch.Mode == "" {
		c.Fetch.Mode = DefaultFetchMode
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

var validate = validator.New()

// Validate checks field constraints, the timezone name and the refresh
// schedule.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
		}
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.RefreshCron, err)
	}
	return nil
}

// Location returns the configured timezone, falling back to time.Local
// when it is empty or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// MinRefreshInterval returns MinRefreshMinutes as a duration.
func (c *Config) MinRefreshInterval() time.Duration {
	return time.Duration(c.MinRefreshMinutes) * time.Minute
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".hijrical-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
