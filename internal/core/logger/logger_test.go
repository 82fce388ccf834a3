package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-feed-api/internal/core/config"
)

func TestFromConfig_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	l, cleanup := FromConfig(config.Log{
		Level: "debug",
		JSON:  true,
		File:  config.LogFile{Filename: path, MaxSizeMB: 1},
	})
	l.Info("post created")
	cleanup()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "post created")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, cleanup := New("chatty", false)
	defer cleanup()
	assert.False(t, l.Core().Enabled(-1)) // debug
	assert.True(t, l.Core().Enabled(0))   // info
}
