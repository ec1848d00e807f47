// Package security guards the paths the command writes to.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory reports an error when path, after cleaning and
// symlink resolution, lies outside dir. path need not exist yet; its nearest
// existing ancestor is resolved instead, so a symlinked parent cannot be used
// to escape dir.
func ValidatePathWithinDirectory(path, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalDir, resolveExisting(absPath))
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}

// resolveExisting resolves symlinks in the longest existing prefix of an
// absolute path and re-appends the rest.
func resolveExisting(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	for p := absPath; ; {
		parent := filepath.Dir(p)
		if parent == p {
			return absPath
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rest, _ := filepath.Rel(parent, absPath)
			return filepath.Join(resolved, rest)
		}
		p = parent
	}
}

// ValidateOutputDir accepts a frame output directory only when it lies under
// the working directory or the system temp directory.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output directory is empty")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	for _, allowed := range []string{cwd, os.TempDir()} {
		if err := ValidatePathWithinDirectory(dir, allowed); err == nil {
			return nil
		}
	}
	return fmt.Errorf("output directory %s must be under %s or %s", dir, cwd, os.TempDir())
}
