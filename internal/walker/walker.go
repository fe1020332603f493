// Package walker enumerates a directory tree as a lazy, cancelable sequence.
//
// The walk is pre-order and depth-first. Hidden entries (names starting with
// ".") are skipped together with their subtrees, symbolic links are reported
// but never followed, and per-entry failures below the root only drop the
// affected entry or subtree. A failure at the root is returned to the caller
// before any entry is produced.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrRootUnreadable is returned when the walk root cannot be stat'ed or listed.
var ErrRootUnreadable = errors.New("walk root unreadable")

// Entry describes one filesystem entry reached by the walk.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode
	IsDir   bool
}

// IsRegular reports whether the entry is a regular file.
func (e Entry) IsRegular() bool {
	return e.Mode.IsRegular()
}

// IsHidden reports whether a base name follows the dot-file convention.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Walk validates root and returns a sequence over every entry beneath it,
// root included. The sequence can be ranged over once; cancelling ctx stops
// it at the next entry without an error.
func Walk(ctx context.Context, root string) (iter.Seq[Entry], error) {
	root = filepath.Clean(root)

	// The root itself may be a symlink (e.g. /tmp on macOS); follow it
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootUnreadable, root, err)
	}

	var children []os.DirEntry
	if info.IsDir() {
		children, err = os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRootUnreadable, root, err)
		}
	}

	w := &walk{ctx: ctx}
	rootEntry := newEntry(root, info)

	return func(yield func(Entry) bool) {
		if w.used {
			return
		}
		w.used = true

		if !w.emit(rootEntry, yield) {
			return
		}
		if rootEntry.IsDir {
			w.descend(root, children, yield)
		}
	}, nil
}

// walk carries the state of one traversal.
type walk struct {
	ctx     context.Context
	used    bool
	stopped bool
}

// emit yields e unless the walk was cancelled or the consumer stopped.
func (w *walk) emit(e Entry, yield func(Entry) bool) bool {
	if w.stopped {
		return false
	}
	if w.ctx.Err() != nil || !yield(e) {
		w.stopped = true
		return false
	}
	return true
}

func (w *walk) descend(dir string, children []os.DirEntry, yield func(Entry) bool) bool {
	for _, child := range children {
		if IsHidden(child.Name()) {
			continue
		}

		path := filepath.Join(dir, child.Name())

		// Lstat so symlinks are reported as links, never traversed
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}

		entry := newEntry(path, info)
		if !w.emit(entry, yield) {
			return false
		}

		if !entry.IsDir {
			continue
		}

		grandchildren, err := os.ReadDir(path)
		if err != nil && len(grandchildren) == 0 {
			// Unlistable subtree: the directory itself was reported, its
			// contents are omitted
			continue
		}
		if !w.descend(path, grandchildren, yield) {
			return false
		}
	}
	return true
}

func newEntry(path string, info fs.FileInfo) Entry {
	return Entry{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
		IsDir:   info.IsDir(),
	}
}

// DirSize sums the sizes of the regular files under path. Hidden entries are
// skipped, matching Walk. A cancelled walk returns the partial sum and
// ctx.Err().
func DirSize(ctx context.Context, path string) (int64, error) {
	entries, err := Walk(ctx, path)
	if err != nil {
		return 0, err
	}

	var total int64
	for e := range entries {
		if e.IsRegular() {
			total += e.Size
		}
	}

	return total, ctx.Err()
}
