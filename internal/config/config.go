// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Pool     PoolConfig     `toml:"pool"`
	Builds   BuildsConfig   `toml:"builds"`
	Search   SearchConfig   `toml:"search"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type PoolConfig struct {
	Size           int64    `toml:"size"`
	AcquireTimeout duration `toml:"acquire_timeout"`
}

type BuildsConfig struct {
	// Timeout is how long a build may stay queued or in progress before
	// the janitor marks it failed.
	Timeout         duration `toml:"timeout"`
	JanitorInterval duration `toml:"janitor_interval"`
}

type SearchConfig struct {
	Limit int `toml:"limit"`
}

// duration lets TOML carry values like "30s" or "2h".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the value as a time.Duration.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(string(data))
}

// Parse parses configuration from TOML text.
func Parse(content string) (*Config, error) {
	// Substitute environment variables
	content = substituteEnvVars(content)

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", errs[0])
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/cratedocs.db"
	}
	if c.Pool.Size == 0 {
		c.Pool.Size = 16
	}
	if c.Pool.AcquireTimeout == 0 {
		c.Pool.AcquireTimeout = duration(5 * time.Second)
	}
	if c.Builds.Timeout == 0 {
		c.Builds.Timeout = duration(2 * time.Hour)
	}
	if c.Builds.JanitorInterval == 0 {
		c.Builds.JanitorInterval = duration(10 * time.Minute)
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = 30
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
