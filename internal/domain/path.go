package domain

import (
	"fmt"
	"path"
	"strings"
)

// NormalizeRelative validates and normalizes a caller-supplied path for
// serving. Absolute paths, empty paths, and paths escaping upward are
// rejected. This is the strict half of the path sandbox: download
// destinations may be absolute, served files never are.
func NormalizeRelative(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	value = strings.ReplaceAll(value, "\\", "/")
	if value == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathViolation)
	}
	if strings.HasPrefix(value, "/") {
		return "", fmt.Errorf("%w: absolute path %q", ErrPathViolation, raw)
	}

	cleaned := path.Clean(value)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q escapes the download root", ErrPathViolation, raw)
	}
	return cleaned, nil
}
