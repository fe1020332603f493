package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fenilsonani/reclaim/internal/cleaner"
	"github.com/fenilsonani/reclaim/internal/config"
	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/platform"
	"github.com/fenilsonani/reclaim/internal/progress"
	"github.com/fenilsonani/reclaim/internal/security"
	"github.com/fenilsonani/reclaim/internal/ui"
)

// session wires a coordinator to a deletion executor and runs it until
// close is called
type session struct {
	coord    *dupes.Coordinator
	executor *cleaner.Executor
	progress *progress.ProgressReporter

	cancel context.CancelFunc
	done   chan error
}

func newSession(cfg *config.Config, dryRun bool) *session {
	pr := progress.NewProgressReporter()
	executor := cleaner.New(cleaner.Options{
		DryRun:    dryRun,
		Validator: newValidator(cfg),
		Progress:  pr,
	})
	finder := dupes.NewFinder(dupes.WithVerify(cfg.VerifyContent))

	// The coordinator outlives the command context so a Ctrl+C can still
	// publish the cancelled scan
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		coord:    dupes.NewCoordinator(finder, executor, dupes.CoordinatorOptions{Progress: pr}),
		executor: executor,
		progress: pr,
		cancel:   cancel,
		done:     make(chan error, 1),
	}
	go func() { s.done <- s.coord.Run(ctx) }()
	return s
}

func (s *session) close() {
	s.cancel()
	<-s.done
}

// scan runs a scan of root to completion, showing live progress on stderr.
// Cancelling ctx stops the scan; the partial snapshot is still returned.
func (s *session) scan(ctx context.Context, root string) (*dupes.Snapshot, error) {
	stopProgress := ui.NewLiveProgress(os.Stderr).Watch(s.progress)
	defer stopProgress()

	if err := s.coord.StartScan(root); err != nil {
		return nil, err
	}

	stopCancel := context.AfterFunc(ctx, func() { s.coord.Cancel() })
	defer stopCancel()

	snap, err := s.coord.WaitFor(context.Background(), func(s *dupes.Snapshot) bool {
		return s.State.Terminal()
	})
	if err != nil {
		return nil, err
	}
	if snap.State == dupes.StateFailed {
		return nil, fmt.Errorf("scan failed: %w", snap.Err)
	}
	return snap, nil
}

// newValidator protects the built-in system paths, the platform's own list
// and the configured extras
func newValidator(cfg *config.Config) *security.PathValidator {
	extra := make([]string, 0, len(cfg.ProtectedPaths))
	for _, p := range cfg.ProtectedPaths {
		extra = append(extra, config.ExpandPath(p))
	}
	if info, err := platform.GetInfo(); err == nil {
		extra = append(extra, info.ProtectedPaths...)
	}
	return security.NewPathValidator(extra...)
}

// rootArg returns the first argument or the configured scan root
func rootArg(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return config.ExpandPath(args[0])
	}
	return cfg.ResolvedScanRoot()
}
