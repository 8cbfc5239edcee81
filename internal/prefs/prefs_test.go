package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeriesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	p, err := Load()
	require.NoError(t, err)
	require.Empty(t, p.Series)

	require.NoError(t, SaveSeries("cnc"))
	p, err = Load()
	require.NoError(t, err)
	require.Equal(t, "cnc", p.Series)

	_, err = os.Stat(filepath.Join(dir, "menutree", prefsFile+".tmp"))
	require.True(t, os.IsNotExist(err))
}

func TestLoad_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "menutree"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "menutree", prefsFile), []byte("{"), 0o600))

	_, err := Load()
	require.Error(t, err)
}
