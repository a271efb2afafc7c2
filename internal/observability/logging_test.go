package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/arpgcore/internal/config"
	"github.com/cory-johannsen/arpgcore/internal/observability"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := observability.NewLogger(config.LoggingConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.True(t, logger.Core().Enabled(zap.DebugLevel), format)
	}
}

func TestNewLogger_LevelGates(t *testing.T) {
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestNewLogger_Rejects(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "trace", Format: "json"})
	assert.Error(t, err)
	_, err = observability.NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	observability.Component(zap.New(core), "world").Info("tick")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "world", logs.All()[0].LoggerName)

	assert.NotPanics(t, func() { observability.Component(nil, "x").Info("dropped") })
}
