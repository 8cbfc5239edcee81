package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MENUTREE_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.Host.NativeShell)
	require.True(t, cfg.Menu.WatchCatalog)
	require.Equal(t, 50, cfg.Recent.Keep)
	require.Equal(t, 64, cfg.Transport.QueueSize)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	t.Setenv("MENUTREE_CONFIG", path)
	require.NoError(t, os.WriteFile(path, []byte(`
[host]
native_shell = true
shell_path = "/opt/shell/bin/shell"
shell_args = ["--menu-ipc"]

[menu]
series = "cnc"
`), 0o600))
	t.Setenv("MENUTREE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Host.NativeShell)
	require.Equal(t, "/opt/shell/bin/shell", cfg.Host.ShellPath)
	require.Equal(t, []string{"--menu-ipc"}, cfg.Host.ShellArgs)
	require.Equal(t, "cnc", cfg.Menu.Series)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv("MENUTREE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Menu.Series = "laser"
	cfg.Recent.Keep = 12
	cfg.Host.Developer = true
	require.NoError(t, Save(cfg))

	back, err := Load()
	require.NoError(t, err)
	require.Equal(t, "laser", back.Menu.Series)
	require.Equal(t, 12, back.Recent.Keep)
	require.True(t, back.Host.Developer)
}

func TestLoad_RejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("MENUTREE_CONFIG", path)
	require.NoError(t, os.WriteFile(path, []byte("[host\n"), 0o600))
	_, err := Load()
	require.ErrorContains(t, err, "read config")
}
