package infrastructure

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// FileCatalog lists and resolves files under the configured download
// directory. Resolution is the trust boundary for serving: every requested
// path is normalized and its real location checked against the root before
// any file handle is opened.
type FileCatalog struct{}

func NewFileCatalog() *FileCatalog {
	return &FileCatalog{}
}

// List walks root and returns the relative paths of all regular files,
// using forward slashes. A missing root is an empty catalog, not an error:
// nothing has been downloaded yet.
func (c *FileCatalog) List(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return []string{}, nil
	}

	files := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list download directory: %w", err)
	}
	return files, nil
}

// Resolve maps a client-supplied relative path to an absolute path inside
// root. Symlinks are resolved on both sides before the containment check so
// a link pointing outside the root cannot smuggle a file in.
func (c *FileCatalog) Resolve(root, raw string) (string, error) {
	rel, err := domain.NormalizeRelative(raw)
	if err != nil {
		return "", err
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("download directory unavailable: %w", err)
	}

	candidate := filepath.Join(realRoot, filepath.FromSlash(rel))
	realPath, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, rel)
		}
		return "", fmt.Errorf("failed to resolve %s: %w", rel, err)
	}

	if realPath != realRoot && !strings.HasPrefix(realPath, realRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s escapes the download directory", domain.ErrPathViolation, rel)
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, rel)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a file", domain.ErrNotFound, rel)
	}

	return realPath, nil
}
