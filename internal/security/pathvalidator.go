package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrProtected is wrapped by every refusal caused by the protected path list
var ErrProtected = errors.New("protected")

// PathValidator handles secure path validation for file operations
type PathValidator struct {
	protectedPaths []string
	cache          *PathValidatorCache
}

// DefaultProtectedPaths are system locations that are never deleted and
// whose direct children are never deleted either.
var DefaultProtectedPaths = []string{
	// Unix system directories
	"/",
	"/bin",
	"/boot",
	"/dev",
	"/etc",
	"/lib",
	"/lib64",
	"/proc",
	"/root",
	"/sbin",
	"/sys",
	"/usr",
	"/var",
	// macOS system directories
	"/System",
	"/Applications",
	"/Library/System",
}

// NewPathValidator creates a new PathValidator with default protected paths
// plus any extra paths supplied by configuration
func NewPathValidator(extra ...string) *PathValidator {
	pv := &PathValidator{
		protectedPaths: append([]string(nil), DefaultProtectedPaths...),
	}
	for _, p := range extra {
		pv.AddProtectedPath(p)
	}
	return pv
}

// ValidatePathForDeletion performs comprehensive validation on a path before deletion
// This is the single source of truth for all path validation in the application
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	// Step 1: Path must be absolute
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	// Step 2: Control characters never appear in names worth deleting
	if strings.ContainsFunc(path, unicode.IsControl) {
		return fmt.Errorf("path contains dangerous characters: %q", path)
	}

	// Step 3: Reject paths that are not in canonical form (../, //, trailing /)
	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	// Step 4: Resolve symlinks in the parent so ~/cache/../../etc style
	// tricks through linked directories are caught. The final element is
	// left alone: deleting a symlink removes the link, not its target.
	parent, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}
		parent = filepath.Dir(path)
	}
	resolved := filepath.Join(parent, filepath.Base(path))

	// Step 5: Check against protected paths, both as given and as resolved
	if err := pv.checkProtectedPaths(path); err != nil {
		return err
	}
	return pv.checkProtectedPaths(resolved)
}

// checkProtectedPaths validates that a path is not in a protected system directory
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		// Exact match
		if cleanPath == protected {
			return fmt.Errorf("refusing to delete protected path: %s: %w", cleanPath, ErrProtected)
		}

		// Directly under a protected directory: /usr/foo is refused,
		// /usr/local/cache/foo is allowed
		prefix := protected
		if prefix != "/" {
			prefix += "/"
		}
		if strings.HasPrefix(cleanPath, prefix) {
			rel, _ := filepath.Rel(protected, cleanPath)
			if !strings.Contains(rel, "/") && protected != "/" {
				return fmt.Errorf("refusing to delete critical system path: %s: %w", cleanPath, ErrProtected)
			}
		}
	}

	return nil
}

// IsProtectedPath checks if a path is a protected system path or lives
// anywhere below one (other than "/")
func (pv *PathValidator) IsProtectedPath(path string) bool {
	cleanPath := filepath.Clean(path)
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return true
		}
		if protected != "/" && strings.HasPrefix(cleanPath, protected+"/") {
			return true
		}
	}
	return false
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	cleanPath := filepath.Clean(path)
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
	if pv.cache != nil {
		pv.cache.Clear()
	}
}

// ProtectedPaths returns a copy of the configured protected paths
func (pv *PathValidator) ProtectedPaths() []string {
	return append([]string(nil), pv.protectedPaths...)
}
