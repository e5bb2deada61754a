package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/LeJamon/goOracled/internal/core/protocol"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "oracled.toml"

// Config represents the complete oracled configuration
type Config struct {
	Oracle  OracleConfig  `toml:"oracle" mapstructure:"oracle"`
	Fee     FeeConfig     `toml:"fee" mapstructure:"fee"`
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`
	Events  EventsConfig  `toml:"events" mapstructure:"events"`
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`

	configPath string `toml:"-" mapstructure:"-"`
}

// OracleConfig holds the settings written at initialization plus the
// operational knobs that may change later.
type OracleConfig struct {
	BaseAsset  string `toml:"base_asset" mapstructure:"base_asset"`
	Decimals   uint32 `toml:"decimals" mapstructure:"decimals"`
	Resolution uint64 `toml:"resolution" mapstructure:"resolution"` // seconds

	// HistoryRetentionPeriod is how long snapshots stay reachable, in seconds
	HistoryRetentionPeriod uint64 `toml:"history_retention_period" mapstructure:"history_retention_period"`

	CacheSize uint32 `toml:"cache_size" mapstructure:"cache_size"`

	// IngestGrace is added to the expiration of every asset an update touches, in seconds
	IngestGrace uint64 `toml:"ingest_grace" mapstructure:"ingest_grace"`

	InitialExpirationDays uint32 `toml:"initial_expiration_days" mapstructure:"initial_expiration_days"`

	// Admin is the caller allowed to initialize, register and ingest
	Admin string `toml:"admin" mapstructure:"admin"`

	// Assets are registered at initialization, e.g. "BTC" or "native:G..."
	Assets []string `toml:"assets" mapstructure:"assets"`

	// Protocol is the layout already present in the store; 0 means latest
	Protocol uint32 `toml:"protocol" mapstructure:"protocol"`
}

// FeeConfig configures expiration extension. An empty token disables it.
type FeeConfig struct {
	Token         string `toml:"token" mapstructure:"token"`
	Rate          uint64 `toml:"rate" mapstructure:"rate"`
	ExtensionUnit uint64 `toml:"extension_unit" mapstructure:"extension_unit"`
}

// StorageConfig selects the key-value backend
type StorageConfig struct {
	Backend     string `toml:"backend" mapstructure:"backend"`
	Path        string `toml:"path" mapstructure:"path"`
	Compression string `toml:"compression" mapstructure:"compression"`
	PruneLimit  int    `toml:"prune_limit" mapstructure:"prune_limit"`
}

// EventsConfig lists the sinks receiving price update events
type EventsConfig struct {
	Sinks []string `toml:"sinks" mapstructure:"sinks"`

	SQLDSN string `toml:"sql_dsn" mapstructure:"sql_dsn"`

	RedisAddr     string `toml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `toml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `toml:"redis_db" mapstructure:"redis_db"`
	RedisStream   string `toml:"redis_stream" mapstructure:"redis_stream"`
	RedisMaxLen   int64  `toml:"redis_max_len" mapstructure:"redis_max_len"`
}

// ServerConfig configures the HTTP query API
type ServerConfig struct {
	Bind          string        `toml:"bind" mapstructure:"bind"`
	Port          int           `toml:"port" mapstructure:"port"`
	ReadTimeout   time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	PruneInterval time.Duration `toml:"prune_interval" mapstructure:"prune_interval"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level    string `toml:"level" mapstructure:"level"`
	Encoding string `toml:"encoding" mapstructure:"encoding"`
}

// ConfigPathFromDir returns the configuration path for a specific directory
func ConfigPathFromDir(configDir string) string {
	return filepath.Join(configDir, DefaultConfigFile)
}

// GetConfigPath returns the path the configuration was loaded from
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Settings converts the oracle section into initialization settings.
func (c *OracleConfig) Settings() (feed.Settings, error) {
	base, err := feed.ParseAsset(c.BaseAsset)
	if err != nil {
		return feed.Settings{}, fmt.Errorf("base_asset: %w", err)
	}
	return feed.Settings{
		BaseAsset:       base,
		Decimals:        c.Decimals,
		Resolution:      c.Resolution,
		RetentionPeriod: c.HistoryRetentionPeriod,
		CacheSize:       c.CacheSize,
	}, nil
}

// ParsedAssets returns the configured initial assets.
func (c *OracleConfig) ParsedAssets() ([]feed.Asset, error) {
	return feed.ParseAssets(c.Assets)
}

// ProtocolVersion returns the configured starting layout version.
func (c *OracleConfig) ProtocolVersion() protocol.Version {
	return protocol.Version(c.Protocol)
}

// Enabled reports whether a fee token is configured.
func (c *FeeConfig) Enabled() bool {
	return c.Token != ""
}

// ToFeed returns the fee configuration stored by the oracle.
func (c *FeeConfig) ToFeed() feed.FeeConfig {
	if !c.Enabled() {
		return feed.FeeConfig{}
	}
	return feed.FeeConfig{Token: c.Token, Rate: c.Rate, ExtensionUnit: c.ExtensionUnit}
}

// HasSink reports whether name is among the configured sinks.
func (c *EventsConfig) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// Address returns the listen address of the HTTP server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
