package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/menutree/internal/config"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "menutree.log")
	log, err := New(config.LogConfig{Level: "debug", File: path})
	require.NoError(t, err)

	log.Debug("menu initialized")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "menu initialized")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty"})
	require.ErrorContains(t, err, "log level")
}
