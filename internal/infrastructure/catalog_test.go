package infrastructure

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
}

func TestFileCatalog_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "song.mp3"))
	writeFile(t, filepath.Join(root, "channel", "video.mp4"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	catalog := NewFileCatalog()
	files, err := catalog.List(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"song.mp3", "channel/video.mp4"}, files)
}

func TestFileCatalog_ListMissingRoot(t *testing.T) {
	catalog := NewFileCatalog()
	files, err := catalog.List(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileCatalog_Resolve(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "channel", "video.mp4"))

	catalog := NewFileCatalog()
	resolved, err := catalog.Resolve(root, "channel/video.mp4")
	require.NoError(t, err)

	data, err := os.ReadFile(resolved)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestFileCatalog_ResolveMissingFile(t *testing.T) {
	catalog := NewFileCatalog()
	_, err := catalog.Resolve(t.TempDir(), "nope.mp4")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFileCatalog_ResolveTraversalRejected(t *testing.T) {
	root := t.TempDir()
	catalog := NewFileCatalog()

	for _, raw := range []string{"../outside.mp4", "/etc/passwd", "a/../../outside.mp4"} {
		_, err := catalog.Resolve(root, raw)
		assert.True(t, errors.Is(err, domain.ErrPathViolation), "path %q", raw)
	}
}

func TestFileCatalog_ResolveSymlinkEscapeRejected(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.txt"))

	root := t.TempDir()
	link := filepath.Join(root, "leak.txt")
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	catalog := NewFileCatalog()
	_, err := catalog.Resolve(root, "leak.txt")
	assert.True(t, errors.Is(err, domain.ErrPathViolation))
}

func TestFileCatalog_ResolveDirectoryRejected(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	catalog := NewFileCatalog()
	_, err := catalog.Resolve(root, "sub")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

