package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := Component(FromZap(zap.New(core)), "ingest")

	l.Info("snapshot stored", "timestamp", uint64(600), "assets", 2)
	l.Debug("mask advanced", "elapsed", 1)

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "snapshot stored", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "ingest", fields["component"])
	assert.Equal(t, uint64(600), fields["timestamp"])
	assert.Equal(t, int64(2), fields["assets"])
}

func TestBuildLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		_, err := New(Options{Level: level, Encoding: "console"})
		assert.NoError(t, err, level)
	}
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)

	Nop().Error("discarded", "k", "v")
}
