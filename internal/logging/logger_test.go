package logging

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger(t *testing.T) {
	err := InitLogger()
	require.NoError(t, err)
	assert.NotNil(t, Logger)
}

func TestInitLogger_RespectsLogLevel(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Unsetenv("LOG_LEVEL")

	err := InitLogger()
	require.NoError(t, err)
	assert.NotNil(t, Logger)
}

func TestSafeLogger_NilLogger(t *testing.T) {
	logger := &SafeLogger{logger: nil}

	// None of these should panic
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
	assert.NoError(t, logger.Sync())
	assert.Equal(t, logger, logger.With(zap.String("k", "v")))
	assert.Equal(t, logger, logger.Named("sub"))
}

func TestSafeLogger_NilReceiver(t *testing.T) {
	var logger *SafeLogger

	logger.Info("should not panic")
	logger.Error("should not panic")
	assert.NoError(t, logger.Sync())
}

func TestSafeLogger_With(t *testing.T) {
	logger := NewSafeLogger(zap.NewNop())

	child := logger.With(zap.String("component", "test"))
	require.NotNil(t, child)
	assert.NotSame(t, logger, child)
	child.Info("message with fields")
}
