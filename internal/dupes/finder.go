package dupes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fenilsonani/reclaim/internal/hasher"
	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/progress"
	"github.com/fenilsonani/reclaim/internal/walker"
)

// progressEvery is how many regular files pass between progress callbacks
const progressEvery = 100

// Option configures a Finder
type Option func(*Finder)

// WithHasher replaces the default SHA-256 hasher
func WithHasher(h hasher.Hasher) Option {
	return func(f *Finder) {
		f.hasher = h
	}
}

// WithVerify makes the Finder confirm every group member byte for byte
// against the keep candidate before returning groups
func WithVerify(verify bool) Option {
	return func(f *Finder) {
		f.verify = verify
	}
}

// WithLogger sets the logger used for scan lifecycle and per-file failures
func WithLogger(l *slog.Logger) Option {
	return func(f *Finder) {
		f.log = l
	}
}

// Finder runs duplicate scans. A Finder holds no per-scan state and may be
// reused, but each call to Find is serial: one file is hashed at a time.
type Finder struct {
	hasher hasher.Hasher
	verify bool
	log    *slog.Logger
}

// NewFinder returns a Finder using SHA-256 unless overridden
func NewFinder(opts ...Option) *Finder {
	f := &Finder{hasher: hasher.SHA256{}}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logging.L("dupes")
	}
	return f
}

// Find walks root, hashes every non-empty regular file and returns the
// duplicate groups. If ctx is cancelled the walk stops at the next entry and
// the groups indexed so far are returned with OutcomeCancelled. A root that
// cannot be read yields ErrWalkRootUnreadable and no result. onProgress may
// be nil.
func (f *Finder) Find(ctx context.Context, root string, onProgress func(Progress)) (*Result, error) {
	start := time.Now()
	log := f.log.With(logging.KeyRoot, root)

	entries, err := walker.Walk(ctx, root)
	if err != nil {
		log.Warn("scan failed", logging.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrWalkRootUnreadable, err)
	}
	log.Info("scan started")

	ix := NewIndex()
	var p Progress

	for entry := range entries {
		if !entry.IsRegular() {
			continue
		}
		p.FilesSeen++
		p.CurrentPath = entry.Path

		if entry.Size > 0 {
			digest, err := f.hasher.HashFile(entry.Path)
			if err != nil {
				log.Debug("skipping file", logging.KeyPath, entry.Path, logging.Err(err))
			} else {
				ix.Add(digest.Sum, FileRecord{Path: entry.Path, ModTime: entry.ModTime, Size: digest.Size})
				p.FilesHashed++
				p.BytesHashed += digest.Size
			}
		}

		if onProgress != nil && p.FilesSeen%progressEvery == 0 {
			p.Fraction = progress.EstimateFraction(p.FilesSeen)
			onProgress(p)
		}
	}

	outcome := OutcomeCompleted
	if ctx.Err() != nil {
		outcome = OutcomeCancelled
	}

	groups := ix.Groups()
	if f.verify {
		groups = f.verifyGroups(groups, log)
	}

	result := &Result{
		Root:        root,
		Groups:      groups,
		Outcome:     outcome,
		FilesSeen:   p.FilesSeen,
		FilesHashed: p.FilesHashed,
		BytesHashed: p.BytesHashed,
		Duration:    time.Since(start),
	}

	if onProgress != nil {
		p.CurrentPath = ""
		p.Fraction = progress.EstimateFraction(p.FilesSeen)
		if outcome == OutcomeCompleted {
			p.Fraction = 1
		}
		onProgress(p)
	}

	log.Info("scan finished",
		"outcome", outcome.String(),
		"files", p.FilesSeen,
		"hashed", p.FilesHashed,
		"groups", len(groups),
		"wasted", result.WastedSpace(),
		logging.KeyDurationMs, result.Duration.Milliseconds())

	return result, nil
}

// verifyGroups drops members whose bytes differ from the keep candidate
func (f *Finder) verifyGroups(groups []Group, log *slog.Logger) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		keep := g.Files[0]
		files := []FileRecord{keep}
		for _, other := range g.Files[1:] {
			same, err := hasher.SameContent(keep.Path, other.Path)
			if err != nil || !same {
				log.Warn("content mismatch behind equal digest",
					logging.KeyDigest, g.Digest,
					logging.KeyPath, other.Path,
					logging.Err(err))
				continue
			}
			files = append(files, other)
		}
		if len(files) < 2 {
			continue
		}
		g.Files = files
		out = append(out, g)
	}
	sortByWaste(out)
	return out
}
