package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewConfig(t *testing.T) {
	conf, err := NewConfig("debug", "")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, conf.Level.Level())
	assert.Equal(t, []string{"stderr"}, conf.OutputPaths)

	conf, err = NewConfig("verbose", "out.log")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, conf.Level.Level())
	assert.Contains(t, conf.OutputPaths, "out.log")

	conf, err = NewConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, conf.Level.Level())

	_, err = NewConfig("loud", "")
	assert.Error(t, err)
}

func TestInitWithConfigWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	restore := zap.L()
	defer zap.ReplaceGlobals(restore)

	logger, err := InitWithConfig("info", path)
	require.NoError(t, err)
	zap.L().Info("hello", zap.String("ticker", "AAPL"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ticker":"AAPL"`)
}
