// Package dupes finds groups of byte-identical files under a directory tree
// and resolves them by deleting redundant copies.
//
// A Finder performs one scan synchronously. A Coordinator wraps the Finder in
// a small state machine owned by a single goroutine: scans, cancellation and
// deletions are requests marshaled onto that goroutine, and readers only ever
// see immutable snapshots.
package dupes

import (
	"errors"
	"time"
)

var (
	// ErrWalkRootUnreadable means the scan root does not exist or cannot be listed.
	ErrWalkRootUnreadable = errors.New("scan root unreadable")
	// ErrScanInProgress is returned for deletions requested while a scan runs.
	ErrScanInProgress = errors.New("scan in progress")
	// ErrGroupNotFound means no published group carries the requested digest.
	ErrGroupNotFound = errors.New("duplicate group not found")
	// ErrKeepNotInGroup means the path to keep is not a member of the group.
	ErrKeepNotInGroup = errors.New("keep path is not a member of the group")
	// ErrCoordinatorStopped is returned once Run has exited.
	ErrCoordinatorStopped = errors.New("coordinator stopped")
)

// FileRecord is one hashed file. Size is the byte count that was hashed.
type FileRecord struct {
	Path    string    `json:"path" yaml:"path"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	Size    int64     `json:"size" yaml:"size"`
}

// Group is a set of two or more files sharing one digest. Files are in
// traversal order; the first one is the keep candidate.
type Group struct {
	Digest string       `json:"digest" yaml:"digest"`
	Size   int64        `json:"size" yaml:"size"`
	Files  []FileRecord `json:"files" yaml:"files"`
}

// WastedSpace is the space held by every copy except one
func (g Group) WastedSpace() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Files)-1)
}

// Keep returns the keep candidate
func (g Group) Keep() FileRecord {
	return g.Files[0]
}

// Paths returns member paths in group order
func (g Group) Paths() []string {
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = f.Path
	}
	return paths
}

// Contains reports whether path is a member
func (g Group) Contains(path string) bool {
	for _, f := range g.Files {
		if f.Path == path {
			return true
		}
	}
	return false
}

// TotalWastedSpace sums WastedSpace over groups
func TotalWastedSpace(groups []Group) int64 {
	var total int64
	for _, g := range groups {
		total += g.WastedSpace()
	}
	return total
}

// Outcome is how a scan ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the output of one scan. A cancelled scan still carries the
// groups built from the files indexed before it stopped.
type Result struct {
	Root        string
	Groups      []Group
	Outcome     Outcome
	FilesSeen   int
	FilesHashed int
	BytesHashed int64
	Duration    time.Duration
}

// WastedSpace sums the wasted space of every group
func (r *Result) WastedSpace() int64 {
	return TotalWastedSpace(r.Groups)
}

// Progress is reported while a scan runs. Fraction is an estimate that stays
// below 1 until the scan completes.
type Progress struct {
	FilesSeen   int
	FilesHashed int
	BytesHashed int64
	CurrentPath string
	Fraction    float64
}
