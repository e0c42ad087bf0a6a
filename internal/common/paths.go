package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CleanPath sanitizes a file path and resolves it to an absolute path
func CleanPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("invalid path: empty")
	}

	cleaned := filepath.Clean(path)

	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains directory traversal")
	}

	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}

	return cleaned, nil
}

// OutputPath joins name onto dir, creating dir when it does not exist yet.
// The returned path is always inside dir.
func OutputPath(dir, name string) (string, error) {
	if dir == "" {
		dir = "."
	}
	base, err := CleanPath(dir)
	if err != nil {
		return "", err
	}
	if name == "" || strings.ContainsRune(name, os.PathSeparator) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid output file name %q", name)
	}

	if err := os.MkdirAll(base, DirPermissionNormal); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	return filepath.Join(base, name), nil
}

// ReplaceExt swaps the extension of name for ext (given without the dot)
func ReplaceExt(name, ext string) string {
	trimmed := strings.TrimSuffix(name, filepath.Ext(name))
	return trimmed + "." + strings.TrimPrefix(ext, ".")
}
