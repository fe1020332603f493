package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		path      string
		reason    ErrorReason
		retryable bool
	}{
		{"EACCES - permission denied", syscall.EACCES, "/protected/file.txt", ErrorPermissionDenied, false},
		{"EPERM - operation not permitted", syscall.EPERM, "/system/file.txt", ErrorPermissionDenied, false},
		{"ENOENT - file not found", syscall.ENOENT, "/missing/file.txt", ErrorFileNotFound, false},
		{"EBUSY - resource busy", syscall.EBUSY, "/open/file.txt", ErrorFileInUse, true},
		{"EISDIR - is directory", syscall.EISDIR, "/some/dir", ErrorIsDirectory, false},
		{"wrapped EACCES", fmt.Errorf("failed to remove: %w", syscall.EACCES), "/wrapped/file.txt", ErrorPermissionDenied, false},
		{"os.PathError with EACCES", &os.PathError{Op: "remove", Path: "/test/file.txt", Err: syscall.EACCES}, "/test/file.txt", ErrorPermissionDenied, false},
		{"os.IsNotExist error", os.ErrNotExist, "/not/exist.txt", ErrorFileNotFound, false},
		{"os.IsPermission error", os.ErrPermission, "/perm/denied.txt", ErrorPermissionDenied, false},
		{"generic error", errors.New("unknown error"), "/some/file.txt", ErrorUnknown, false},
		{"nil error", nil, "/nil/error/file.txt", ErrorUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delErr := CategorizeError(tt.path, tt.err)

			if tt.err == nil {
				if delErr != nil {
					t.Errorf("CategorizeError(nil) should return nil, got %v", delErr)
				}
				return
			}

			if delErr.Reason != tt.reason {
				t.Errorf("CategorizeError(%v) reason = %v, want %v", tt.err, delErr.Reason, tt.reason)
			}
			if delErr.Retryable != tt.retryable {
				t.Errorf("CategorizeError(%v) retryable = %v, want %v", tt.err, delErr.Retryable, tt.retryable)
			}
			if delErr.Path != tt.path {
				t.Errorf("CategorizeError(%v) path = %s, want %s", tt.err, delErr.Path, tt.path)
			}
		})
	}
}

func TestDeletionErrorUnwrap(t *testing.T) {
	pathErr := &os.PathError{Op: "remove", Path: "/test/wrapped.txt", Err: syscall.EBUSY}
	delErr := CategorizeError("/test/wrapped.txt", fmt.Errorf("failed: %w", pathErr))

	if delErr.Reason != ErrorFileInUse {
		t.Error("Expected error unwrapping through PathError to find EBUSY")
	}
	if !errors.Is(delErr, syscall.EBUSY) {
		t.Error("errors.Is should see the original errno through DeletionError")
	}

	var target *os.PathError
	if !errors.As(delErr, &target) || target.Op != "remove" {
		t.Error("errors.As should reach the wrapped *os.PathError")
	}
}

func TestDeletionError_Error(t *testing.T) {
	delErr := &DeletionError{
		Path:     "/test/file.txt",
		Reason:   ErrorPermissionDenied,
		Original: os.ErrPermission,
	}

	msg := delErr.Error()
	for _, want := range []string{"/test/file.txt", "Permission denied"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %s, should contain %s", msg, want)
		}
	}
}

func TestFormatErrorSummary(t *testing.T) {
	delErrors := []*DeletionError{
		{Path: "/test/file1.txt", Reason: ErrorPermissionDenied, Original: os.ErrPermission},
		{Path: "/test/file2.txt", Reason: ErrorPermissionDenied, Original: os.ErrPermission},
		{Path: "/test/file3.txt", Reason: ErrorFileInUse, Original: errors.New("busy"), Retryable: true},
		{Path: "/etc/file4.txt", Reason: ErrorProtectedPath, Original: errors.New("protected")},
		{Path: "/test/file5.txt", Reason: ErrorUnknown, Original: errors.New("unknown")},
	}

	summary := FormatErrorSummary(delErrors)

	for _, want := range []string{"Permission denied: 2 files", "File in use: 1 files", "Protected paths: 1 items", "Other errors: 1 files"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	if got := FormatErrorSummary(nil); got != "" {
		t.Errorf("Expected empty summary for nil errors, got: %s", got)
	}
}

func TestErrorReasonString(t *testing.T) {
	tests := []struct {
		reason   ErrorReason
		expected string
	}{
		{ErrorPermissionDenied, "Permission denied"},
		{ErrorFileNotFound, "File not found"},
		{ErrorFileInUse, "File is in use"},
		{ErrorIsDirectory, "Is a directory"},
		{ErrorInvalidPath, "Invalid path"},
		{ErrorProtectedPath, "Protected path"},
		{ErrorUnknown, "Unknown error"},
		{ErrorReason(99), "Unspecified error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.reason.String(); result != tt.expected {
				t.Errorf("ErrorReason(%d).String() = %s, want %s", tt.reason, result, tt.expected)
			}
		})
	}
}

func TestGroupErrors(t *testing.T) {
	delErrors := []*DeletionError{
		{Reason: ErrorPermissionDenied, Path: "/a", Original: os.ErrPermission},
		{Reason: ErrorPermissionDenied, Path: "/b", Original: os.ErrPermission},
		{Reason: ErrorFileInUse, Path: "/c", Original: errors.New("busy")},
		{Reason: ErrorFileNotFound, Path: "/d", Original: os.ErrNotExist},
		{Reason: ErrorFileInUse, Path: "/e", Original: errors.New("busy")},
	}

	grouped := GroupErrors(delErrors)

	if len(grouped[ErrorPermissionDenied]) != 2 {
		t.Errorf("Expected 2 permission errors, got %d", len(grouped[ErrorPermissionDenied]))
	}
	if len(grouped[ErrorFileInUse]) != 2 {
		t.Errorf("Expected 2 busy errors, got %d", len(grouped[ErrorFileInUse]))
	}
	if len(grouped[ErrorFileNotFound]) != 1 {
		t.Errorf("Expected 1 not found error, got %d", len(grouped[ErrorFileNotFound]))
	}
	if len(grouped[ErrorUnknown]) != 0 {
		t.Errorf("Expected 0 unknown errors, got %d", len(grouped[ErrorUnknown]))
	}
}

func TestDeletionError_UserMessage(t *testing.T) {
	tests := []struct {
		name          string
		delErr        *DeletionError
		shouldContain string
	}{
		{"permission denied", &DeletionError{Path: "/test/file.txt", Reason: ErrorPermissionDenied, Original: os.ErrPermission}, "Permission denied"},
		{"file in use", &DeletionError{Path: "/test/open.txt", Reason: ErrorFileInUse, Original: errors.New("busy")}, "being used"},
		{"file not found", &DeletionError{Path: "/test/missing.txt", Reason: ErrorFileNotFound, Original: os.ErrNotExist}, "Already deleted"},
		{"protected", &DeletionError{Path: "/etc/x", Reason: ErrorProtectedPath, Original: errors.New("protected")}, "Protected path"},
		{"unknown", &DeletionError{Path: "/x", Reason: ErrorUnknown, Original: errors.New("disk on fire")}, "disk on fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.delErr.UserMessage(); !strings.Contains(result, tt.shouldContain) {
				t.Errorf("UserMessage() = %s, should contain %s", result, tt.shouldContain)
			}
		})
	}
}
