// Package sandbox enforces filesystem restrictions on verification:
// file-check paths and command working directories are validated
// against allowed/denied path lists before any backend touches them.
package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cgast/vouch/pkg/check"
)

// Sandbox holds resolved path restrictions. It satisfies the guard
// interface the verification runner consults before file access.
type Sandbox struct {
	allowedPaths []string
	deniedPaths  []string
	maxFileSize  int64 // bytes, 0 means unlimited
}

// Config holds the sandbox configuration.
type Config struct {
	AllowedPaths []string
	DeniedPaths  []string
	MaxFileSize  string // e.g. "10MB", "1GB", "500KB"
}

// New creates a Sandbox from the given configuration.
// Allowed and denied paths are resolved to absolute paths.
func New(cfg Config) (*Sandbox, error) {
	s := &Sandbox{}

	for _, p := range cfg.AllowedPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("sandbox: resolve allowed path %q: %w", p, err)
		}
		s.allowedPaths = append(s.allowedPaths, abs)
	}

	for _, p := range cfg.DeniedPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("sandbox: resolve denied path %q: %w", p, err)
		}
		s.deniedPaths = append(s.deniedPaths, abs)
	}

	if cfg.MaxFileSize != "" {
		size, err := check.ParseSize(cfg.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("sandbox: parse max_file_size %q: %w", cfg.MaxFileSize, err)
		}
		s.maxFileSize = size
	}

	return s, nil
}

// CheckPath validates that the given path is allowed by the sandbox.
// The path is resolved to an absolute path before checking.
// Returns nil if the path is allowed, or an error describing why it's denied.
func (s *Sandbox) CheckPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("sandbox: resolve path %q: %w", path, err)
	}

	// Check denied paths first (deny takes precedence).
	for _, denied := range s.deniedPaths {
		if abs == denied || strings.HasPrefix(abs, denied+string(filepath.Separator)) {
			return fmt.Errorf("sandbox: path %q is under denied path %q", abs, denied)
		}
	}

	// If no allowed paths are configured, all non-denied paths are allowed.
	if len(s.allowedPaths) == 0 {
		return nil
	}

	// Check if path is under an allowed path.
	for _, allowed := range s.allowedPaths {
		if abs == allowed || strings.HasPrefix(abs, allowed+string(filepath.Separator)) {
			return nil
		}
	}

	return fmt.Errorf("sandbox: path %q is not under any allowed path %v", abs, s.allowedPaths)
}

// CheckFileSize validates that the given size in bytes does not exceed
// the sandbox's maximum file size. Returns nil if the size is within limits
// or if no limit is configured.
func (s *Sandbox) CheckFileSize(size int64) error {
	if s.maxFileSize <= 0 {
		return nil
	}
	if size > s.maxFileSize {
		return fmt.Errorf("sandbox: file size %d bytes exceeds maximum %d bytes (%s)",
			size, s.maxFileSize, check.FormatSize(s.maxFileSize))
	}
	return nil
}

// MaxFileSize returns the configured maximum file size in bytes.
// Returns 0 if no limit is configured.
func (s *Sandbox) MaxFileSize() int64 {
	return s.maxFileSize
}

// AllowedPaths returns the list of allowed absolute paths.
func (s *Sandbox) AllowedPaths() []string {
	return s.allowedPaths
}

// DeniedPaths returns the list of denied absolute paths.
func (s *Sandbox) DeniedPaths() []string {
	return s.deniedPaths
}
