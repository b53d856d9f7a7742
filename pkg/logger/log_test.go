package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_Levels(t *testing.T) {
	quiet, err := NewLogger(false, "")
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zap.DebugLevel))
	assert.True(t, quiet.Core().Enabled(zap.InfoLevel))

	verbose, err := NewLogger(true, "")
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zap.DebugLevel))
}

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")

	l, err := NewLogger(false, path)
	require.NoError(t, err)
	l.Info("[SYNC] проверка", zap.String("uid", "akelly"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[SYNC] проверка")
	assert.Contains(t, string(data), "akelly")
}
