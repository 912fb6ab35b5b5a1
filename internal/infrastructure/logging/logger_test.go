package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, err := New(Config{Level: level, OutputPaths: []string{"stderr"}})
			require.NoError(t, err)
			assert.NotNil(t, logger.Logger)
		})
	}
}

func TestPresetConfigs(t *testing.T) {
	for name, cfg := range map[string]Config{"default": DefaultConfig(), "development": DevelopmentConfig()} {
		t.Run(name, func(t *testing.T) {
			logger, err := New(cfg)
			require.NoError(t, err)
			assert.NotNil(t, logger.Logger)
		})
	}
	assert.Equal(t, "info", DefaultConfig().Level)
	assert.True(t, DevelopmentConfig().Development)
}

func TestNopAndWrapNeverReturnNil(t *testing.T) {
	assert.NotNil(t, Nop())
	assert.NotNil(t, Wrap(nil))
}

func TestComponentCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := Wrap(zap.New(core))

	child := logger.Component("context", zap.String("context_id", "ctx_1"))
	child.Debug("initialized")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "context", entries[0].LoggerName)
	assert.Equal(t, "ctx_1", entries[0].ContextMap()["context_id"])
}

func TestEncodingFormat(t *testing.T) {
	assert.Equal(t, "console", encodingFormat(true))
	assert.Equal(t, "json", encodingFormat(false))
}
