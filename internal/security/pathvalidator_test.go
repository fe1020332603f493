package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidatePathForDeletion(t *testing.T) {
	pv := NewPathValidator()
	dir := t.TempDir()

	tests := []struct {
		name        string
		setup       func() string // Returns actual path to test
		shouldError bool
		errorMsg    string
	}{
		{
			name:  "absolute path - valid",
			setup: func() string { return filepath.Join(dir, "file.txt") },
		},
		{
			name:  "duplicate-style name with parens - valid",
			setup: func() string { return filepath.Join(dir, "photo (1).jpg") },
		},
		{
			name:        "relative path - invalid",
			setup:       func() string { return "relative/path.txt" },
			shouldError: true,
			errorMsg:    "path must be absolute",
		},
		{
			name: "symlink to valid location",
			setup: func() string {
				target := filepath.Join(dir, "target.txt")
				os.WriteFile(target, []byte("test"), 0644)
				link := filepath.Join(dir, "link.txt")
				os.Symlink(target, link)
				return link
			},
		},
		{
			name: "symlink to protected file - link itself is deletable",
			setup: func() string {
				link := filepath.Join(dir, "hosts-link")
				os.Symlink("/etc/hosts", link)
				return link
			},
		},
		{
			name:        "path with null bytes - invalid",
			setup:       func() string { return "/tmp/test\x00malicious" },
			shouldError: true,
			errorMsg:    "dangerous characters",
		},
		{
			name:        "path with newline - invalid",
			setup:       func() string { return "/tmp/test\nmalicious" },
			shouldError: true,
			errorMsg:    "dangerous characters",
		},
		{
			name:        "empty path - invalid",
			setup:       func() string { return "" },
			shouldError: true,
			errorMsg:    "path must be absolute",
		},
		{
			name:        "root directory - protected",
			setup:       func() string { return "/" },
			shouldError: true,
			errorMsg:    "protected path",
		},
		{
			name:        "/bin directory - protected",
			setup:       func() string { return "/bin" },
			shouldError: true,
			errorMsg:    "refusing to delete protected path",
		},
		{
			name:        "/etc/direct-child - protected",
			setup:       func() string { return "/etc/newfile" },
			shouldError: true,
			errorMsg:    "critical system path",
		},
		{
			name:        "/usr/newdir - protected (1 level)",
			setup:       func() string { return "/usr/newdir" },
			shouldError: true,
			errorMsg:    "critical system path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForDeletion(tt.setup())

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error containing '%s', got nil", tt.errorMsg)
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfiguredProtectedPaths(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep")
	pv := NewPathValidator(keep + "/")

	if err := pv.ValidatePathForDeletion(keep); err == nil {
		t.Error("configured protected path should be refused")
	}
	if err := pv.ValidatePathForDeletion(filepath.Join(keep, "child.txt")); err == nil {
		t.Error("direct child of configured protected path should be refused")
	}
	if err := pv.ValidatePathForDeletion(filepath.Join(keep, "sub", "deep.txt")); err != nil {
		t.Errorf("deep path should be allowed, got %v", err)
	}

	found := false
	for _, p := range pv.ProtectedPaths() {
		if p == keep {
			found = true
		}
	}
	if !found {
		t.Errorf("ProtectedPaths() missing cleaned %s", keep)
	}
}

func TestIsProtectedPath(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name        string
		path        string
		isProtected bool
	}{
		{"root directory", "/", true},
		{"etc directory", "/etc", true},
		{"usr directory", "/usr", true},
		{"bin directory", "/bin", true},
		{"sbin directory", "/sbin", true},
		{"boot directory", "/boot", true},
		{"system directory (macOS)", "/System", true},
		{"applications directory (macOS)", "/Applications", true},
		{"file in etc", "/etc/hosts", true},
		{"file in System", "/System/Library/test", true},
		{"file in usr", "/usr/bin/ls", true},
		{"temp file", "/tmp/test.txt", false},
		{"var cache", "/var/cache/test", true},
		{"user cache", "/Users/test/.cache/test", false},
		{"home user subdir", "/home/user/Downloads/test", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pv.IsProtectedPath(tt.path)
			if result != tt.isProtected {
				t.Errorf("IsProtectedPath(%s) = %v, want %v", tt.path, result, tt.isProtected)
			}
		})
	}
}

func TestPathCleaning(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name        string
		path        string
		shouldError bool
	}{
		{"path with dot segments", "/tmp/../var/test.txt", true},
		{"path with double slashes", "/tmp//test//file.txt", true},
		{"path with trailing slash", "/tmp/test/", true},
		{"clean absolute path", "/tmp/test.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForDeletion(tt.path)

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error for path '%s', got nil", tt.path)
				} else if !strings.Contains(err.Error(), "suspicious elements") {
					t.Errorf("Expected suspicious elements error, got '%s'", err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error for path '%s', got: %v", tt.path, err)
			}
		})
	}
}

func TestValidateCached(t *testing.T) {
	pv := NewPathValidator()

	if err := pv.ValidateCached("/etc/passwd"); err == nil {
		t.Fatal("expected protected path error")
	}
	if pv.cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", pv.cache.Len())
	}

	// Cached result is returned on the second call
	first := pv.ValidateCached("/etc/passwd")
	if first == nil || !strings.Contains(first.Error(), "critical system path") {
		t.Errorf("cached result = %v", first)
	}

	// Adding a protected path invalidates earlier allow decisions
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	if err := pv.ValidateCached(target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pv.AddProtectedPath(dir)
	if err := pv.ValidateCached(target); err == nil {
		t.Error("expected refusal after protecting parent directory")
	}
}

func TestPathValidatorCacheEviction(t *testing.T) {
	c := NewPathValidatorCache(2, time.Minute)
	c.Set("/a", nil)
	c.Set("/b", errors.New("b"))
	c.Set("/c", nil)

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get("/c"); !ok {
		t.Error("most recent entry should be present")
	}
}

func TestPathValidatorCacheExpiry(t *testing.T) {
	c := NewPathValidatorCache(10, -time.Second)
	c.Set("/a", nil)
	if _, ok := c.Get("/a"); ok {
		t.Error("expired entry should not be returned")
	}
	if _, ok := c.Get("/a/../a"); ok {
		t.Error("expired entry should not be returned for equivalent path")
	}
}
