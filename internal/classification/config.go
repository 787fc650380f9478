package classification

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds classification engine settings.
type Config struct {
	// BatchTimeout bounds one classification transaction. Exceeding it
	// aborts the whole batch; retrying is always safe.
	BatchTimeout string `toml:"batch_timeout"`
	// MaxBatchSize caps operations per batch.
	MaxBatchSize int `toml:"max_batch_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BatchTimeout string
	MaxBatchSize string
}

// BatchTimeoutDuration returns BatchTimeout as a time.Duration.
func (c *Config) BatchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BatchTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BatchTimeout != "" {
		c.BatchTimeout = overlay.BatchTimeout
	}
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}
}

func (c *Config) loadDefaults() {
	if c.BatchTimeout == "" {
		c.BatchTimeout = "10s"
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 100
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BatchTimeout != "" {
		if v := os.Getenv(env.BatchTimeout); v != "" {
			c.BatchTimeout = v
		}
	}
	if env.MaxBatchSize != "" {
		if v := os.Getenv(env.MaxBatchSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxBatchSize = n
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.BatchTimeout); err != nil {
		return fmt.Errorf("invalid batch_timeout: %w", err)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}
