package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, "info", s.Log.Level)
	assert.True(t, s.Halal.Strict)
	assert.Equal(t, "halal", s.Halal.UnknownDefault)
	assert.Equal(t, 2, s.Scan.MinIngredients)
	assert.Equal(t, 15*time.Second, s.Parser.Timeout)
	assert.Equal(t, "default", s.Loader().Name)
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puremark.yaml")
	body := "halal:\n  strict: false\n  unknown_default: mushbooh\nkb:\n  dir: /srv/kb\nparser:\n  timeout: 30s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("PUREMARK_SCAN_WORKERS", "9")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.False(t, s.Halal.Strict)
	assert.Equal(t, "mushbooh", s.Halal.UnknownDefault)
	assert.Equal(t, "/srv/kb", s.KB.Dir)
	assert.Equal(t, 9, s.Scan.Workers)
	assert.Equal(t, 30*time.Second, s.Parser.Timeout)
}

func TestLoadSettingsValidation(t *testing.T) {
	t.Setenv("PUREMARK_HALAL_UNKNOWN_DEFAULT", "maybe")
	_, err := LoadSettings("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
