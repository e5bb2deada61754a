package config

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goOracled/internal/storage"
	"github.com/LeJamon/goOracled/internal/storage/compression"
	"go.uber.org/zap/zapcore"
)

var knownSinks = map[string]bool{
	"log":       true,
	"sqlite":    true,
	"postgres":  true,
	"redis":     true,
	"websocket": true,
}

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Oracle.Validate(); err != nil {
		return fmt.Errorf("oracle validation failed: %w", err)
	}
	if err := config.Fee.Validate(); err != nil {
		return fmt.Errorf("fee validation failed: %w", err)
	}
	if err := config.Storage.Validate(); err != nil {
		return fmt.Errorf("storage validation failed: %w", err)
	}
	if err := config.Events.Validate(); err != nil {
		return fmt.Errorf("events validation failed: %w", err)
	}
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	return nil
}

// Validate checks the oracle section. Assets are optional here because only
// initialization needs them.
func (c *OracleConfig) Validate() error {
	settings, err := c.Settings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if _, err := c.ParsedAssets(); err != nil {
		return fmt.Errorf("assets: %w", err)
	}
	if c.Protocol != 0 && !c.ProtocolVersion().Supported() {
		return fmt.Errorf("unsupported protocol version %d", c.Protocol)
	}
	return nil
}

// Validate checks the fee section when a token is set.
func (c *FeeConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return c.ToFeed().Validate()
}

// Validate checks the storage section.
func (c *StorageConfig) Validate() error {
	known := false
	for _, b := range storage.Backends() {
		if c.Backend == b {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown backend %q (supported: %s)", c.Backend, strings.Join(storage.Backends(), ", "))
	}
	if c.Backend != storage.BackendMemory && c.Path == "" {
		return fmt.Errorf("path is required for backend %s", c.Backend)
	}
	if c.Compression != "" {
		if _, err := compression.Get(c.Compression); err != nil {
			return err
		}
	}
	if c.PruneLimit < 0 {
		return fmt.Errorf("prune_limit must not be negative")
	}
	return nil
}

// Validate checks the events section.
func (c *EventsConfig) Validate() error {
	for _, s := range c.Sinks {
		if !knownSinks[s] {
			return fmt.Errorf("unknown sink %q", s)
		}
	}
	if c.HasSink("sqlite") && c.HasSink("postgres") {
		return fmt.Errorf("sqlite and postgres sinks share sql_dsn; configure one")
	}
	if (c.HasSink("sqlite") || c.HasSink("postgres")) && c.SQLDSN == "" {
		return fmt.Errorf("sql_dsn is required for SQL sinks")
	}
	if c.HasSink("redis") && c.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required for the redis sink")
	}
	return nil
}

// Validate checks the server section.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ReadTimeout < 0 || c.PruneInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// Validate checks the log section.
func (c *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return err
	}
	switch c.Encoding {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("unknown encoding %q", c.Encoding)
}
