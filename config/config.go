// ABOUTME: Configuration for the activity service, store and surfaces
// ABOUTME: Reads an XDG config file, an optional .env file and CRMACTIVITY_* overrides
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName names the XDG config and data directories.
	AppName = "crmactivity"

	// ConfigFileName is the config file inside the XDG config directory.
	ConfigFileName = "config.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CRMACTIVITY_"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheBadger = "badger"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Duration is a time.Duration that reads and writes as "5m" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Plain nanosecond counts are accepted too.
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid duration %s", data)
		}
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds every tunable of the tool.
type Config struct {
	DatabasePath       string   `json:"database_path"`
	CacheBackend       string   `json:"cache_backend"`
	CacheDir           string   `json:"cache_dir"`
	RedisAddr          string   `json:"redis_addr,omitempty"`
	CacheTTL           Duration `json:"cache_ttl"`
	SlowQueryThreshold Duration `json:"slow_query_threshold"`
	RefreshInterval    Duration `json:"refresh_interval"`
	PageSize           int      `json:"page_size"`
	MaxSelections      int      `json:"max_selections"`
	FenceRequests      bool     `json:"fence_requests"`
	LogLevel           string   `json:"log_level"`
	LogFormat          string   `json:"log_format"`
	HTTPAddr           string   `json:"http_addr"`
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:       filepath.Join(xdg.DataHome, AppName, "crm.db"),
		CacheBackend:       CacheMemory,
		CacheDir:           filepath.Join(xdg.CacheHome, AppName),
		CacheTTL:           Duration(5 * time.Minute),
		SlowQueryThreshold: Duration(time.Second),
		RefreshInterval:    Duration(30 * time.Second),
		PageSize:           20,
		LogLevel:           "info",
		LogFormat:          "text",
		HTTPAddr:           ":8080",
	}
}

// DefaultPath returns the XDG config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// LoadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the config file at path (DefaultPath when empty), fills in
// defaults for missing fields and applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.fillDefaults()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fillDefaults restores defaults for fields a config file left empty.
func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	if c.CacheBackend == "" {
		c.CacheBackend = d.CacheBackend
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = d.HTTPAddr
	}
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"DB_PATH":       &c.DatabasePath,
		"CACHE_BACKEND": &c.CacheBackend,
		"CACHE_DIR":     &c.CacheDir,
		"REDIS_ADDR":    &c.RedisAddr,
		"LOG_LEVEL":     &c.LogLevel,
		"LOG_FORMAT":    &c.LogFormat,
		"HTTP_ADDR":     &c.HTTPAddr,
	}
	for name, dest := range strs {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dest = v
		}
	}

	durations := map[string]*Duration{
		"CACHE_TTL":            &c.CacheTTL,
		"SLOW_QUERY_THRESHOLD": &c.SlowQueryThreshold,
		"REFRESH_INTERVAL":     &c.RefreshInterval,
	}
	for name, dest := range durations {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dest = Duration(d)
	}

	ints := map[string]*int{
		"PAGE_SIZE":      &c.PageSize,
		"MAX_SELECTIONS": &c.MaxSelections,
	}
	for name, dest := range ints {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dest = n
	}

	if v := os.Getenv(EnvPrefix + "FENCE_REQUESTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sFENCE_REQUESTS: %w", EnvPrefix, err)
		}
		c.FenceRequests = b
	}

	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("cache_ttl must be positive"))
	}
	if c.SlowQueryThreshold <= 0 {
		errs = append(errs, errors.New("slow_query_threshold must be positive"))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, errors.New("refresh_interval must be positive"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New("page_size must be positive"))
	}
	if c.MaxSelections < 0 {
		errs = append(errs, errors.New("max_selections must not be negative"))
	}
	switch strings.ToLower(c.CacheBackend) {
	case CacheMemory, CacheBadger, CacheNone:
	case CacheRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis_addr is required for the redis cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache_backend %q", c.CacheBackend))
	}
	return errors.Join(errs...)
}

// Save writes the config to path with restricted permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
