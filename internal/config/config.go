package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
)

// DefaultFile is read when present and silently skipped when missing.
const DefaultFile = "nbaquant.toml"

type Config struct {
	LogLevel string         `toml:"log_level"`
	LogFile  string         `toml:"log_file"`
	API      APIConfig      `toml:"api"`
	Query    QueryConfig    `toml:"query"`
	Files    FilesConfig    `toml:"files"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
}

type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	Key            string `toml:"key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// RequestsPerMinute throttles the stats client; 0 disables throttling.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

type QueryConfig struct {
	Seasons   []int `toml:"seasons"`
	PerPage   int   `toml:"per_page"`
	PlayerIDs []int `toml:"player_ids"`
}

type FilesConfig struct {
	Raw         string `toml:"raw"`
	Spreadsheet string `toml:"spreadsheet"`
	Sheet       string `toml:"sheet"`
}

// DatabaseConfig enables the Postgres export sink when DSN is set.
type DatabaseConfig struct {
	DSN string `toml:"dsn"`
}

// RedisConfig enables export notifications when URL is set.
type RedisConfig struct {
	URL string `toml:"url"`
}

type ServerConfig struct {
	RESTPort string `toml:"rest_port"`
	WSPort   string `toml:"ws_port"`
	// RefreshMinutes re-runs the pipeline on a timer; 0 disables it.
	RefreshMinutes int `toml:"refresh_minutes"`
}

// Default queries Giannis Antetokounmpo's 2023 season and writes file.json
// and giannis_rebounds.xlsx.
func Default() *Config {
	q := balldontlie.DefaultStatsQuery()
	return &Config{
		LogLevel: "info",
		API: APIConfig{
			BaseURL:        balldontlie.BaseURL,
			TimeoutSeconds: int(balldontlie.DefaultTimeout / time.Second),
		},
		Query: QueryConfig{
			Seasons:   q.Seasons,
			PerPage:   q.PerPage,
			PlayerIDs: q.PlayerIDs,
		},
		Files: FilesConfig{
			Raw:         export.DefaultInputPath,
			Spreadsheet: export.DefaultOutputPath,
			Sheet:       export.DefaultSheet,
		},
		Server: ServerConfig{
			RESTPort: "8080",
			WSPort:   "8081",
		},
	}
}

// Load reads path (TOML), fills unset fields from Default and applies
// environment overrides. An empty path, or a missing DefaultFile, yields the
// defaults.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !(errors.Is(err, fs.ErrNotExist) && path == DefaultFile) {
				return nil, fmt.Errorf("loading config %s: %w", path, err)
			}
		}
	}

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, fmt.Errorf("merging config defaults: %w", err)
	}

	applyEnv(cfg, getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	cfg.API.Key = envOr(getenv, "BALLDONTLIE_API_KEY", cfg.API.Key)
	cfg.API.BaseURL = envOr(getenv, "BALLDONTLIE_BASE_URL", cfg.API.BaseURL)
	cfg.Database.DSN = envOr(getenv, "NBAQUANT_DSN", cfg.Database.DSN)
	cfg.Redis.URL = envOr(getenv, "NBAQUANT_REDIS_URL", cfg.Redis.URL)
	cfg.Server.RESTPort = envOr(getenv, "NBAQUANT_PORT", cfg.Server.RESTPort)
	cfg.LogLevel = envOr(getenv, "LOG_LEVEL", cfg.LogLevel)
}

func envOr(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate rejects settings the API cannot serve.
func (c *Config) Validate() error {
	if c.Query.PerPage < 1 || c.Query.PerPage > 100 {
		return fmt.Errorf("query.per_page must be between 1 and 100, got %d", c.Query.PerPage)
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds must not be negative, got %d", c.API.TimeoutSeconds)
	}
	if c.API.RequestsPerMinute < 0 {
		return fmt.Errorf("api.requests_per_minute must not be negative, got %d", c.API.RequestsPerMinute)
	}
	if c.Server.RefreshMinutes < 0 {
		return fmt.Errorf("server.refresh_minutes must not be negative, got %d", c.Server.RefreshMinutes)
	}
	return nil
}

// StatsQuery converts the query section to a client query.
func (c *Config) StatsQuery() balldontlie.StatsQuery {
	return balldontlie.StatsQuery{
		Seasons:   append([]int{}, c.Query.Seasons...),
		PerPage:   c.Query.PerPage,
		PlayerIDs: append([]int{}, c.Query.PlayerIDs...),
	}
}

// Timeout is the HTTP timeout for the stats client.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// RefreshInterval is how often the server re-runs the pipeline.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Server.RefreshMinutes) * time.Minute
}
