package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone in which all naive local timestamps in
	// term payloads are interpreted (e.g. "America/New_York").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday anchors the default preview week.
	// Supported values:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// Palette is the ordered list of display colors assigned to courses that
	// carry no explicit color, cycled by course position.
	Palette []string `yaml:"palette" json:"palette"`

	// ParserURL is the base URL of the upstream document-parsing service.
	// Empty disables the /api/parse proxy.
	ParserURL string `yaml:"parser_url" json:"parser_url"`

	// CacheDir is where parse responses are cached on disk.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// SessionTTLMinutes is how long a stored term session stays retrievable.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" json:"session_ttl_minutes"`

	// SweepCron is a cron-style schedule string (e.g. "*/15 * * * *") used
	// for expired-session eviction.
	SweepCron string `yaml:"sweep" json:"sweep"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultPalette matches the preview palette shipped with the web UI.
var DefaultPalette = []string{
	"#2563EB", "#16A34A", "#DB2777", "#F59E0B",
	"#0EA5E9", "#8B5CF6", "#EF4444", "#10B981",
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "America/New_York",
		WeekStart:         "sunday",
		Palette:           append([]string(nil), DefaultPalette...),
		ParserURL:         "",
		CacheDir:          "/var/lib/termcal/parse-cache",
		SessionTTLMinutes: 24 * 60,
		SweepCron:         "*/15 * * * *",
		BasicAuth:         nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	switch c.WeekStart {
	case "sunday", "monday":
		// ok
	case "":
		c.WeekStart = "sunday"
	default:
		// Unknown value; fall back to sunday to avoid surprising windows.
		c.WeekStart = "sunday"
	}
	if len(c.Palette) == 0 {
		c.Palette = append([]string(nil), DefaultPalette...)
	}
	if c.CacheDir == "" {
		c.CacheDir = "/var/lib/termcal/parse-cache"
	}
	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = 24 * 60
	}
	if c.SweepCron == "" {
		c.SweepCron = "*/15 * * * *"
	}
}

// Location resolves the configured timezone, falling back to time.Local on
// failure.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
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
//   - normalize defaults
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
	tmp, err := os.CreateTemp(dir, ".termcal-config-*.tmp")
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

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
