package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers a default for every key so environment overrides
// apply even when the file omits a section.
func setDefaults(v *viper.Viper) {
	// Oracle
	v.SetDefault("oracle.base_asset", "USD")
	v.SetDefault("oracle.decimals", 14)
	v.SetDefault("oracle.resolution", 300)
	v.SetDefault("oracle.history_retention_period", 300*256)
	v.SetDefault("oracle.cache_size", 64)
	v.SetDefault("oracle.ingest_grace", 300)
	v.SetDefault("oracle.initial_expiration_days", 0)
	v.SetDefault("oracle.admin", "")
	v.SetDefault("oracle.assets", []string{})
	v.SetDefault("oracle.protocol", 0)

	// Fee (disabled until a token is set)
	v.SetDefault("fee.token", "")
	v.SetDefault("fee.rate", 0)
	v.SetDefault("fee.extension_unit", 86400)

	// Storage
	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "./data/oracled")
	v.SetDefault("storage.compression", "lz4")
	v.SetDefault("storage.prune_limit", 512)

	// Events
	v.SetDefault("events.sinks", []string{"log"})
	v.SetDefault("events.sql_dsn", "")
	v.SetDefault("events.redis_addr", "127.0.0.1:6379")
	v.SetDefault("events.redis_password", "")
	v.SetDefault("events.redis_db", 0)
	v.SetDefault("events.redis_stream", "oracled:prices")
	v.SetDefault("events.redis_max_len", 10000)

	// Server
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 8545)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.prune_interval", time.Minute)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
}
