// Package config loads the server configuration from a TOML file with
// environment variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// DefaultPath is used when BINGO_CONFIG is not set
const DefaultPath = "bingo.toml"

// Config is the complete server configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Auth    AuthConfig    `toml:"auth"`
	Board   BoardConfig   `toml:"board"`
	History HistoryConfig `toml:"history"`
	Ingest  IngestConfig  `toml:"ingest"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	PublicURL   string   `toml:"public_url"`   // External base URL, used for webhook links
	CORSOrigins []string `toml:"cors_origins"` // Allowed origins ("*" allows any)
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type       string `toml:"type"` // memory, redis or sqlite
	RedisURL   string `toml:"redis_url"`
	SQLitePath string `toml:"sqlite_path"`
}

// AuthConfig configures admin login and plugin ingest keys
type AuthConfig struct {
	AdminPassword string `toml:"admin_password"`
	IngestAPIKey  string `toml:"ingest_api_key"`
	TokenSecret   string `toml:"token_secret"`
	TokenTTL      string `toml:"token_ttl"` // e.g. "12h"
}

// BoardConfig bounds board sizes
type BoardConfig struct {
	DefaultSize int `toml:"default_size"`
	MaxSize     int `toml:"max_size"`
}

// HistoryConfig tunes drop history behaviour
type HistoryConfig struct {
	DedupeWindow string `toml:"dedupe_window"` // e.g. "5s"
	DefaultLimit int    `toml:"default_limit"`
	MaxLimit     int    `toml:"max_limit"`
}

// IngestConfig rate limits the plugin ingest routes per client
type IngestConfig struct {
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For is believed
	TrustedProxies []string `toml:"trusted_proxies"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn or error
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Type:       StorageMemory,
			SQLitePath: "data/bingo.db",
		},
		Auth: AuthConfig{
			TokenTTL: "12h",
		},
		Board: BoardConfig{
			DefaultSize: 5,
			MaxSize:     10,
		},
		History: HistoryConfig{
			DedupeWindow: "5s",
			DefaultLimit: 100,
			MaxLimit:     1000,
		},
		Ingest: IngestConfig{
			RatePerSecond: 5,
			Burst:         20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Path returns the config file path from BINGO_CONFIG, or DefaultPath
func Path() string {
	if p := os.Getenv("BINGO_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the config file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as TOML to path
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables looked up with lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strOverrides := map[string]*string{
		"STORAGE_TYPE":   &c.Storage.Type,
		"REDIS_URL":      &c.Storage.RedisURL,
		"SQLITE_PATH":    &c.Storage.SQLitePath,
		"ADMIN_PASSWORD": &c.Auth.AdminPassword,
		"INGEST_API_KEY": &c.Auth.IngestAPIKey,
		"TOKEN_SECRET":   &c.Auth.TokenSecret,
		"PUBLIC_URL":     &c.Server.PublicURL,
		"LOG_LEVEL":      &c.Log.Level,
	}
	for name, field := range strOverrides {
		if v, ok := lookup(name); ok && v != "" {
			*field = v
		}
	}

	if v, ok := lookup("TRUSTED_PROXIES"); ok && v != "" {
		c.Ingest.TrustedProxies = nil
		for _, proxy := range strings.Split(v, ",") {
			if proxy = strings.TrimSpace(proxy); proxy != "" {
				c.Ingest.TrustedProxies = append(c.Ingest.TrustedProxies, proxy)
			}
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// TrustedProxies parses the trusted proxy list. A bare address is a single-host prefix.
func (c *Config) TrustedProxies() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.Ingest.TrustedProxies))
	for _, entry := range c.Ingest.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis_url is required when storage type is %q", StorageRedis)
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required when storage type is %q", StorageSQLite)
		}
	default:
		return fmt.Errorf("invalid storage type %q: must be memory, redis or sqlite", c.Storage.Type)
	}

	if _, err := c.TokenTTL(); err != nil {
		return err
	}
	if _, err := c.DedupeWindow(); err != nil {
		return err
	}

	if c.Board.DefaultSize < 1 {
		return fmt.Errorf("board default size must be at least 1: %d", c.Board.DefaultSize)
	}
	if c.Board.MaxSize < c.Board.DefaultSize {
		return fmt.Errorf("board max size %d is smaller than default size %d", c.Board.MaxSize, c.Board.DefaultSize)
	}

	if c.History.DefaultLimit < 1 {
		return fmt.Errorf("history default limit must be at least 1: %d", c.History.DefaultLimit)
	}
	if c.History.MaxLimit < c.History.DefaultLimit {
		return fmt.Errorf("history max limit %d is smaller than default limit %d", c.History.MaxLimit, c.History.DefaultLimit)
	}

	if c.Ingest.RatePerSecond < 0 {
		return fmt.Errorf("ingest rate cannot be negative: %v", c.Ingest.RatePerSecond)
	}
	if c.Ingest.Burst < 0 {
		return fmt.Errorf("ingest burst cannot be negative: %d", c.Ingest.Burst)
	}
	if _, err := c.TrustedProxies(); err != nil {
		return err
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// TokenTTL returns the parsed admin token lifetime
func (c *Config) TokenTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid token TTL %q: %w", c.Auth.TokenTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("token TTL must be positive: %s", d)
	}
	return d, nil
}

// DedupeWindow returns the parsed duplicate drop window
func (c *Config) DedupeWindow() (time.Duration, error) {
	d, err := time.ParseDuration(c.History.DedupeWindow)
	if err != nil {
		return 0, fmt.Errorf("invalid dedupe window %q: %w", c.History.DedupeWindow, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("dedupe window cannot be negative: %s", d)
	}
	return d, nil
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}
