package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LeJamon/goOracled/internal/core/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[oracle]
base_asset = "USDC"
decimals = 7
resolution = 60
history_retention_period = 3600
admin = "operator"
assets = ["BTC", "ETH"]

[fee]
token = "XRF"
rate = 1000

[storage]
backend = "leveldb"
path = "/tmp/oracled-test"

[events]
sinks = ["log", "redis"]

[server]
port = 9000
read_timeout = "3s"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.GetConfigPath())

	settings, err := config.Oracle.Settings()
	require.NoError(t, err)
	assert.Equal(t, feed.Settings{
		BaseAsset:       feed.Other("USDC"),
		Decimals:        7,
		Resolution:      60,
		RetentionPeriod: 3600,
		CacheSize:       64,
	}, settings)

	assets, err := config.Oracle.ParsedAssets()
	require.NoError(t, err)
	assert.Equal(t, []feed.Asset{feed.Other("BTC"), feed.Other("ETH")}, assets)
	assert.Equal(t, "operator", config.Oracle.Admin)

	assert.Equal(t, feed.FeeConfig{Token: "XRF", Rate: 1000, ExtensionUnit: 86400}, config.Fee.ToFeed())
	assert.Equal(t, "leveldb", config.Storage.Backend)
	assert.Equal(t, "lz4", config.Storage.Compression)
	assert.True(t, config.Events.HasSink("redis"))
	assert.False(t, config.Events.HasSink("sqlite"))
	assert.Equal(t, "127.0.0.1:9000", config.Server.Address())
	assert.Equal(t, 3*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, time.Minute, config.Server.PruneInterval)
	assert.Equal(t, "info", config.Log.Level)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, uint64(300), config.Oracle.Resolution)
	assert.Equal(t, uint64(300), config.Oracle.IngestGrace)
	assert.Equal(t, "pebble", config.Storage.Backend)
	assert.False(t, config.Fee.Enabled())
	assert.Equal(t, feed.FeeConfig{}, config.Fee.ToFeed())
	assert.Equal(t, []string{"log"}, config.Events.Sinks)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("ORACLED_STORAGE_BACKEND", "memory")
	t.Setenv("ORACLED_ORACLE_DECIMALS", "18")
	t.Setenv("ORACLED_ORACLE_ADMIN", "env-admin")

	config, err := LoadConfig(writeConfig(t, "[oracle]\ndecimals = 7\n"))
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Storage.Backend)
	assert.Equal(t, uint32(18), config.Oracle.Decimals)
	assert.Equal(t, "env-admin", config.Oracle.Admin)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		config, err := LoadConfig("")
		require.NoError(t, err)
		return config
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero resolution", func(c *Config) { c.Oracle.Resolution = 0 }},
		{"decimals too large", func(c *Config) { c.Oracle.Decimals = 19 }},
		{"retention shorter than resolution", func(c *Config) { c.Oracle.HistoryRetentionPeriod = 1 }},
		{"bad base asset", func(c *Config) { c.Oracle.BaseAsset = "not an asset" }},
		{"bad asset", func(c *Config) { c.Oracle.Assets = []string{"BTC", "$$$"} }},
		{"unsupported protocol", func(c *Config) { c.Oracle.Protocol = 7 }},
		{"fee without rate", func(c *Config) { c.Fee = FeeConfig{Token: "XRF", ExtensionUnit: 1} }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "rocksdb" }},
		{"pebble without path", func(c *Config) { c.Storage.Path = "" }},
		{"unknown compression", func(c *Config) { c.Storage.Compression = "zstd" }},
		{"unknown sink", func(c *Config) { c.Events.Sinks = []string{"kafka"} }},
		{"sql sink without dsn", func(c *Config) { c.Events.Sinks = []string{"sqlite"} }},
		{"both sql sinks", func(c *Config) {
			c.Events.Sinks = []string{"sqlite", "postgres"}
			c.Events.SQLDSN = "x"
		}},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log encoding", func(c *Config) { c.Log.Encoding = "xml" }},
	}

	require.NoError(t, ValidateConfig(valid()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			assert.Error(t, ValidateConfig(config))
		})
	}
}
