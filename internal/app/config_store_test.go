package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

func TestLoadConfigStore_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	store, err := LoadConfigStore(path)
	require.NoError(t, err)

	// File materialized with defaults.
	_, err = os.Stat(path)
	require.NoError(t, err)

	config := store.Get()
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "yt-dlp", config.Tool.Binary)
	assert.NotEmpty(t, config.DownloadDirectory)
}

func TestConfigStore_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := LoadConfigStore(path)
	require.NoError(t, err)

	next := store.Get()
	next.Server.Port = 9090
	next.DownloadDirectory = t.TempDir()
	next.Tool.Binary = "/usr/local/bin/yt-dlp"
	require.NoError(t, store.Update(next))

	assert.Equal(t, 9090, store.Get().Server.Port)
	assert.Equal(t, next.DownloadDirectory, store.DownloadDir())

	// A fresh load sees the persisted values.
	reloaded, err := LoadConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, reloaded.Get().Server.Port)
	assert.Equal(t, "/usr/local/bin/yt-dlp", reloaded.Get().Tool.Binary)
}

func TestConfigStore_UpdateRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := LoadConfigStore(path)
	require.NoError(t, err)

	before := store.Get()

	next := before
	next.Server.Port = -1
	err = store.Update(next)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// Rejected update leaves both memory and disk untouched.
	assert.Equal(t, before, store.Get())
	reloaded, err := LoadConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, before.Server.Port, reloaded.Get().Server.Port)
}

func TestConfigStore_ExpandsHomeInDownloadDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := LoadConfigStore(path)
	require.NoError(t, err)

	next := store.Get()
	next.DownloadDirectory = "~/Videos"
	require.NoError(t, store.Update(next))

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Videos"), store.DownloadDir())
}
