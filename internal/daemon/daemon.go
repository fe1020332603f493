// Package daemon runs scheduled duplicate scans in the background. Every run
// writes a YAML report; the daemon never deletes anything.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fenilsonani/reclaim/internal/config"
	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/reporter"
)

var (
	ErrNotEnabled  = errors.New("daemon not enabled in configuration")
	ErrNoSchedules = errors.New("no schedules configured")
)

// reportTimeLayout is used in report file names
const reportTimeLayout = "20060102-150405"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Scanner finds duplicate groups under a root
type Scanner interface {
	Find(ctx context.Context, root string, onProgress func(dupes.Progress)) (*dupes.Result, error)
}

// Daemon owns the scheduler and writes one report per scheduled scan
type Daemon struct {
	cfg       *config.Config
	scanner   Scanner
	scheduler *Scheduler
	pidPath   string
	reportDir string
	log       *slog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	running bool
	runCtx  context.Context
}

// New creates a daemon for cfg. The configuration must enable the daemon
// and name at least one schedule.
func New(cfg *config.Config, scanner Scanner) (*Daemon, error) {
	if !cfg.Daemon.Enabled {
		return nil, ErrNotEnabled
	}
	if len(cfg.Daemon.Schedules) == 0 {
		return nil, ErrNoSchedules
	}

	d := &Daemon{
		cfg:       cfg,
		scanner:   scanner,
		pidPath:   config.ExpandPath(cfg.Daemon.PidFile),
		reportDir: config.ExpandPath(cfg.Daemon.ReportDir),
		log:       logging.L("daemon"),
		now:       time.Now,
		runCtx:    context.Background(),
	}

	d.scheduler = NewScheduler(d.runScheduled, d.log)
	for _, schedule := range cfg.Daemon.Schedules {
		if err := d.scheduler.AddJob(schedule); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Run takes the PID file, starts the scheduler and blocks until ctx is done.
// Scans still running at shutdown are cancelled and report partial results.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	pid, err := AcquirePidFile(d.pidPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := pid.Release(); err != nil {
			d.log.Warn("failed to remove pid file", logging.KeyPath, pid.Path(), logging.Err(err))
		}
	}()

	if err := os.MkdirAll(d.reportDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.mu.Lock()
	d.runCtx = runCtx
	d.mu.Unlock()

	if err := d.scheduler.Start(); err != nil {
		return err
	}
	d.log.Info("daemon started", "pid", os.Getpid(), "reports", d.reportDir)

	<-ctx.Done()

	d.log.Info("daemon shutting down")
	cancel()
	d.scheduler.Stop()
	return nil
}

// IsRunning reports whether Run is active
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Jobs lists the registered schedules with their next firing times
func (d *Daemon) Jobs() []JobInfo {
	return d.scheduler.ListJobs()
}

func (d *Daemon) runScheduled(schedule config.ScanSchedule) {
	d.mu.RLock()
	ctx := d.runCtx
	d.mu.RUnlock()

	if _, err := d.RunScan(ctx, schedule); err != nil {
		d.log.Error("scheduled scan failed", "job", schedule.Name, logging.Err(err))
	}
}

// RunScan scans the schedule's root and writes a YAML report. It returns
// the report path.
func (d *Daemon) RunScan(ctx context.Context, schedule config.ScanSchedule) (string, error) {
	root := config.ExpandPath(schedule.Root)
	if root == "" {
		root = d.cfg.ResolvedScanRoot()
	}

	log := d.log.With("job", schedule.Name, logging.KeyRoot, root)
	started := d.now()

	result, err := d.scanner.Find(ctx, root, nil)
	if err != nil {
		return "", fmt.Errorf("scan failed: %w", err)
	}

	if err := os.MkdirAll(d.reportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(d.reportDir, ReportName(schedule.Name, started))
	if err := reporter.SaveToFile(result, path, reporter.FormatYAML); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	log.Info("report written",
		logging.KeyPath, path,
		"outcome", result.Outcome.String(),
		"groups", len(result.Groups),
		"wasted", result.WastedSpace())
	return path, nil
}

// ReportName builds the report file name for a run of job started at t
func ReportName(job string, t time.Time) string {
	name := unsafeName.ReplaceAllString(job, "_")
	if name == "" {
		name = "scan"
	}
	return fmt.Sprintf("%s-%s.yaml", name, t.UTC().Format(reportTimeLayout))
}
