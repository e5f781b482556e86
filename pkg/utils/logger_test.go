package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, err := InitLogger(LogOptions{Dir: dir, File: "app.log", App: "yamdb", Console: &console})
	require.NoError(t, err)

	logger.Info("hello", zap.String("k", "v"))
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), `"msg":"hello"`)
	assert.Contains(t, console.String(), `"app":"yamdb"`)
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestInitLogger_LevelOverride(t *testing.T) {
	var console bytes.Buffer
	level := zapcore.ErrorLevel

	logger, err := InitLogger(LogOptions{Debug: true, Level: &level, Console: &console})
	require.NoError(t, err)

	logger.Warn("skipped row")
	logger.Error("broken")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, console.String(), "skipped row")
	assert.Contains(t, console.String(), "broken")
}
