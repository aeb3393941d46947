package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Pool.Size < 1 {
		errs = append(errs, fmt.Sprintf("pool.size: must be positive, got %d", c.Pool.Size))
	}
	if c.Pool.AcquireTimeout < 0 {
		errs = append(errs, "pool.acquire_timeout: must not be negative")
	}
	if c.Builds.Timeout < 0 {
		errs = append(errs, "builds.timeout: must not be negative")
	}
	if c.Search.Limit < 1 {
		errs = append(errs, fmt.Sprintf("search.limit: must be positive, got %d", c.Search.Limit))
	}

	return errs
}
