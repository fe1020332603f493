// Package scanner finds oversized files and reclaimable cache and log
// directories. Both scans reuse the directory walker used by the duplicate
// finder.
package scanner

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/platform"
	"github.com/fenilsonani/reclaim/internal/progress"
	"github.com/fenilsonani/reclaim/internal/walker"
)

// DefaultMinLargeFileSize is the large-file threshold when none is configured
const DefaultMinLargeFileSize int64 = 100 * 1024 * 1024

// reportEvery is how many entries pass between progress updates
const reportEvery = 100

// Scanner runs the large-file and cache scans
type Scanner struct {
	platformInfo     *platform.Info
	progressReporter *progress.ProgressReporter
	log              *slog.Logger
}

// New creates a new Scanner
func New(platformInfo *platform.Info) *Scanner {
	return &Scanner{
		platformInfo: platformInfo,
		log:          logging.L("scanner"),
	}
}

// SetProgressReporter sets a custom progress reporter
func (s *Scanner) SetProgressReporter(pr *progress.ProgressReporter) {
	s.progressReporter = pr
}

// ScanLargeFiles returns every regular, non-hidden file under root whose
// size is at least minSize, largest first. When ctx is cancelled the files
// found so far are returned together with ctx.Err().
func (s *Scanner) ScanLargeFiles(ctx context.Context, root string, minSize int64) ([]FileInfo, error) {
	if minSize <= 0 {
		minSize = DefaultMinLargeFileSize
	}

	entries, err := walker.Walk(ctx, root)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	files := []FileInfo{}
	seen := 0

	for entry := range entries {
		seen++
		if seen%reportEvery == 0 {
			s.reportScanProgress(progress.PhaseScanning, root, entry.Path, seen, start)
		}
		if !entry.IsRegular() || entry.Size < minSize {
			continue
		}
		files = append(files, FileInfo{Path: entry.Path, Size: entry.Size, ModTime: entry.ModTime})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Size > files[j].Size
	})

	if err := ctx.Err(); err != nil {
		s.reportScanProgress(progress.PhaseCancelled, root, "", seen, start)
		return files, err
	}

	s.reportScanProgress(progress.PhaseComplete, root, "", seen, start)
	s.log.Info("large file scan finished", logging.KeyRoot, root, "found", len(files), logging.KeyDurationMs, time.Since(start).Milliseconds())
	return files, nil
}

// reportScanProgress reports scan progress to listeners
func (s *Scanner) reportScanProgress(phase progress.Phase, root, currentPath string, seen int, startTime time.Time) {
	if s.progressReporter == nil {
		return
	}

	fraction := progress.EstimateFraction(seen)
	if phase == progress.PhaseComplete {
		fraction = 1
	}
	s.progressReporter.UpdateScanProgress(&progress.ScanProgress{
		Phase:       phase,
		Root:        root,
		CurrentPath: currentPath,
		FilesSeen:   seen,
		Fraction:    fraction,
		StartTime:   startTime,
	})
}
