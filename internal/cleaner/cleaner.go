package cleaner

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/progress"
	"github.com/fenilsonani/reclaim/internal/security"
)

// Target is one path the caller wants removed
type Target struct {
	Path     string
	Size     int64
	Category string
}

// CleanResult represents the result of a best-effort Clean
type CleanResult struct {
	DeletedFiles []string
	DeletedSize  int64
	Errors       []*DeletionError
	DryRun       bool
}

// Options configures an Executor
type Options struct {
	DryRun    bool
	Validator *security.PathValidator
	Progress  *progress.ProgressReporter
	Logger    *slog.Logger
}

// Executor removes files and directories from disk. It never retries and
// never follows symlinks.
type Executor struct {
	dryRun    bool
	validator *security.PathValidator
	progress  *progress.ProgressReporter
	manifest  *DeletionManifest
	log       *slog.Logger
}

// New creates a new Executor
func New(opts Options) *Executor {
	e := &Executor{
		dryRun:    opts.DryRun,
		validator: opts.Validator,
		progress:  opts.Progress,
		manifest:  NewDeletionManifest(),
		log:       opts.Logger,
	}
	if e.validator == nil {
		e.validator = security.NewPathValidator()
	}
	if e.log == nil {
		e.log = logging.L("cleaner")
	}
	return e
}

// DryRun reports whether the executor leaves the disk untouched
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// DeleteExplicit deletes paths in the given order and stops at the first
// failure. It returns the paths that were removed (or were already gone)
// before the failure, and a *DeletionError naming the failing path.
// Paths after the failing one are left untouched. Directories are refused
// with ErrorIsDirectory.
func (e *Executor) DeleteExplicit(paths []string) ([]string, error) {
	deleted := make([]string, 0, len(paths))
	var freed int64
	start := time.Now()

	for _, path := range paths {
		e.reportCleanProgress(progress.PhaseCleaning, path, len(deleted), len(paths), freed, start, nil)

		size, delErr := e.deleteOne(path, "", false)
		if delErr != nil {
			e.log.Warn("deletion failed", logging.KeyPath, path, "reason", delErr.Reason.String(), logging.Err(delErr.Original))
			e.reportCleanProgress(progress.PhaseError, path, len(deleted), len(paths), freed, start, delErr)
			return deleted, delErr
		}
		deleted = append(deleted, path)
		freed += size
	}

	e.reportCleanProgress(progress.PhaseComplete, "", len(deleted), len(paths), freed, start, nil)
	e.log.Info("deletion batch finished", "count", len(deleted), "bytes", freed, "dryRun", e.dryRun)
	return deleted, nil
}

// Clean removes every target, continuing past failures
func (e *Executor) Clean(targets []Target) *CleanResult {
	result := &CleanResult{
		DeletedFiles: []string{},
		Errors:       []*DeletionError{},
		DryRun:       e.dryRun,
	}
	start := time.Now()

	for _, t := range targets {
		e.reportCleanProgress(progress.PhaseCleaning, t.Path, len(result.DeletedFiles), len(targets), result.DeletedSize, start, nil)

		size, delErr := e.deleteOne(t.Path, t.Category, true)
		if delErr != nil {
			e.log.Warn("deletion failed", logging.KeyPath, t.Path, "reason", delErr.Reason.String(), logging.Err(delErr.Original))
			result.Errors = append(result.Errors, delErr)
			continue
		}
		if size == 0 {
			size = t.Size
		}
		result.DeletedFiles = append(result.DeletedFiles, t.Path)
		result.DeletedSize += size
	}

	e.reportCleanProgress(progress.PhaseComplete, "", len(result.DeletedFiles), len(targets), result.DeletedSize, start, nil)
	return result
}

// deleteOne removes a single path. A path that is already gone counts as
// deleted with size 0. Directories are removed recursively only when
// allowDir is set.
func (e *Executor) deleteOne(path, category string, allowDir bool) (int64, *DeletionError) {
	if err := e.validator.ValidateCached(path); err != nil {
		reason := ErrorInvalidPath
		if errors.Is(err, security.ErrProtected) {
			reason = ErrorProtectedPath
		}
		return 0, &DeletionError{Path: path, Reason: reason, Original: err}
	}

	// Lstat so a symlink is removed rather than its target
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			e.log.Debug("already absent", logging.KeyPath, path)
			return 0, nil
		}
		return 0, CategorizeError(path, err)
	}

	if special, err := isSpecialMode(info.Mode()); special {
		return 0, &DeletionError{
			Path:     path,
			Reason:   ErrorInvalidPath,
			Original: fmt.Errorf("refusing to delete special file: %w", err),
		}
	}

	if info.IsDir() && !allowDir {
		return 0, &DeletionError{
			Path:     path,
			Reason:   ErrorIsDirectory,
			Original: errors.New("expected a file, found a directory"),
		}
	}

	size := info.Size()
	if info.IsDir() {
		size = 0
	}

	if e.dryRun {
		e.log.Info("dry run: would delete", logging.KeyPath, path)
		return size, nil
	}

	// RemoveAll for directories (cache folders); Remove for files and links
	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, CategorizeError(path, err)
	}

	e.manifest.Add(path, size, category)
	e.log.Debug("deleted", logging.KeyPath, path, "bytes", size)
	return size, nil
}

// GetManifest returns the deletion manifest
func (e *Executor) GetManifest() *DeletionManifest {
	return e.manifest
}

// SaveManifest saves the deletion manifest to a file
func (e *Executor) SaveManifest(path string) error {
	return e.manifest.Save(path)
}

func (e *Executor) reportCleanProgress(phase progress.Phase, currentFile string, deletedFiles, totalFiles int, deletedSize int64, startTime time.Time, err error) {
	if e.progress == nil {
		return
	}

	e.progress.UpdateCleanProgress(&progress.CleanProgress{
		Phase:        phase,
		CurrentFile:  currentFile,
		DeletedFiles: deletedFiles,
		TotalFiles:   totalFiles,
		DeletedSize:  deletedSize,
		StartTime:    startTime,
		Error:        err,
	})
}

// DeletionManifest keeps track of deleted files
type DeletionManifest struct {
	Files     []DeletedFileInfo
	Timestamp time.Time
	TotalSize int64
}

// DeletedFileInfo represents information about a deleted file
type DeletedFileInfo struct {
	Path      string
	Size      int64
	Category  string
	DeletedAt time.Time
}

// NewDeletionManifest creates a new DeletionManifest
func NewDeletionManifest() *DeletionManifest {
	return &DeletionManifest{
		Files:     []DeletedFileInfo{},
		Timestamp: time.Now(),
	}
}

// Add adds a file to the manifest
func (m *DeletionManifest) Add(path string, size int64, category string) {
	m.Files = append(m.Files, DeletedFileInfo{
		Path:      path,
		Size:      size,
		Category:  category,
		DeletedAt: time.Now(),
	})
	m.TotalSize += size
}

// Save saves the manifest to a file
func (m *DeletionManifest) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "Deletion Manifest\n")
	fmt.Fprintf(file, "Created: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(file, "Total Size: %d bytes\n", m.TotalSize)
	fmt.Fprintf(file, "Total Files: %d\n\n", len(m.Files))

	for _, f := range m.Files {
		category := f.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(file, "%s | %d bytes | %s | %s\n",
			f.Path, f.Size, category, f.DeletedAt.Format(time.RFC3339))
	}

	return file.Close()
}
