// Package config
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	CORS     CORSConfig     `yaml:"cors"`
	Database DatabaseConfig `yaml:"database"`
	GitHub   GitHubConfig   `yaml:"github"`
	Cache    CacheConfig    `yaml:"cache"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAgeSeconds  int      `yaml:"max_age_seconds"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"ssl_mode"`
}

type GitHubConfig struct {
	Token           string `yaml:"token"`
	SearchQuery     string `yaml:"search_query"`
	PageSize        int    `yaml:"page_size"`
	RetryAttempts   int    `yaml:"retry_attempts"`
	RetryBaseWaitMS int    `yaml:"retry_base_wait_ms"`
}

type CacheConfig struct {
	Directory string `yaml:"directory"`
	TTLHours  int    `yaml:"ttl_hours"`
}

type IndexerConfig struct {
	CooldownHours  int  `yaml:"cooldown_hours"`
	ScheduleHours  int  `yaml:"schedule_hours"`
	LegacyFallback bool `yaml:"legacy_fallback"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from file and applies environment variable overrides
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate ensures all required configuration values are set
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("PLUGDEX_GITHUB_TOKEN is required")
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host and dbname are required")
	}

	if c.Cache.Directory == "" {
		return fmt.Errorf("cache directory is required")
	}

	return nil
}

// applyEnvOverrides checks for environment variables with PLUGDEX_ prefix
func applyEnvOverrides(cfg *Config) {
	// Database overrides
	if v := os.Getenv("PLUGDEX_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PLUGDEX_DATABASE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PLUGDEX_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	// GitHub overrides
	if v := os.Getenv("PLUGDEX_GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("PLUGDEX_GITHUB_SEARCH_QUERY"); v != "" {
		cfg.GitHub.SearchQuery = v
	}

	// Cache overrides
	if v := os.Getenv("PLUGDEX_CACHE_DIRECTORY"); v != "" {
		cfg.Cache.Directory = v
	}
}

// GetReadTimeout returns the read timeout as a duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// GetWriteTimeout returns the write timeout as a duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

// GetDSN returns the PostgreSQL connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// GetRetryBaseWait returns the retry backoff base as a duration
func (g *GitHubConfig) GetRetryBaseWait() time.Duration {
	return time.Duration(g.RetryBaseWaitMS) * time.Millisecond
}

// GetTTL returns the cache entry lifetime as a duration
func (c *CacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// GetCooldown returns the per-repository re-index cooldown as a duration
func (i *IndexerConfig) GetCooldown() time.Duration {
	return time.Duration(i.CooldownHours) * time.Hour
}

// GetSchedule returns the interval between scheduled runs as a duration
func (i *IndexerConfig) GetSchedule() time.Duration {
	return time.Duration(i.ScheduleHours) * time.Hour
}

// IsLogLevelValid checks if the log level is valid
func (l *LoggingConfig) IsLogLevelValid() bool {
	validLevels := []string{"debug", "info", "warn", "error"}
	return slices.Contains(validLevels, strings.ToLower(l.Level))
}
