package dupes

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fenilsonani/reclaim/internal/cleaner"
	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/progress"
	"github.com/fenilsonani/reclaim/internal/testutil"
)

func startCoordinator(t *testing.T, finder *Finder, pr *progress.ProgressReporter) *Coordinator {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewCoordinator(finder, cleaner.New(cleaner.Options{Logger: logging.Discard()}), CoordinatorOptions{
		Progress: pr,
		Logger:   logging.Discard(),
	})

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c
}

func waitFor(t *testing.T, c *Coordinator, cond func(*Snapshot) bool) *Snapshot {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := c.WaitFor(ctx, cond)
	if err != nil {
		t.Fatalf("waiting for coordinator: %v (state %v)", err, s.State)
	}
	return s
}

func terminal(s *Snapshot) bool { return s.State.Terminal() }

func TestCoordinatorStartsIdle(t *testing.T) {
	c := NewCoordinator(newTestFinder(), nil, CoordinatorOptions{Logger: logging.Discard()})
	s := c.Snapshot()
	if s.State != StateIdle || len(s.Groups) != 0 || s.Progress != 0 {
		t.Errorf("initial snapshot = %+v", s)
	}
}

func TestCoordinatorCompletedScan(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates(make([]byte, 1000), "a/x.bin", "b/x.bin")
	f.CreateFilledFile("c/y.bin", 1000, 7)

	pr := progress.NewProgressReporter()
	c := startCoordinator(t, newTestFinder(), pr)
	if err := c.StartScan(f.RootDir); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	s := waitFor(t, c, terminal)
	if s.State != StateCompleted {
		t.Fatalf("state = %v, want completed (err %v)", s.State, s.Err)
	}
	if s.Progress != 1 {
		t.Errorf("progress = %f, want 1", s.Progress)
	}
	if len(s.Groups) != 1 || s.WastedSpace() != 1000 {
		t.Errorf("groups = %+v", s.Groups)
	}
	if s.Root != f.RootDir || s.FinishedAt.Before(s.StartedAt) {
		t.Errorf("root/timestamps = %s %v %v", s.Root, s.StartedAt, s.FinishedAt)
	}
	if p := pr.GetScanProgress(); p == nil || p.Phase != progress.PhaseComplete {
		t.Errorf("reported progress = %+v, want complete phase", p)
	}
}

func TestCoordinatorFailedScan(t *testing.T) {
	f := testutil.NewFixture(t)
	c := startCoordinator(t, newTestFinder(), nil)

	if err := c.StartScan(f.Path("missing")); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	s := waitFor(t, c, terminal)
	if s.State != StateFailed {
		t.Fatalf("state = %v, want failed", s.State)
	}
	if !errors.Is(s.Err, ErrWalkRootUnreadable) {
		t.Errorf("Err = %v, want ErrWalkRootUnreadable", s.Err)
	}
	if s.Groups != nil {
		t.Errorf("groups = %+v, want none published", s.Groups)
	}
}

func TestCoordinatorRescanWipesPriorState(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates([]byte("dup"), "one/a", "one/b")
	f.CreateFile("two/solo", []byte("solo"))

	c := startCoordinator(t, newTestFinder(), nil)

	c.StartScan(f.Path("missing"))
	if s := waitFor(t, c, terminal); s.State != StateFailed {
		t.Fatalf("first scan state = %v", s.State)
	}

	c.StartScan(f.Path("one"))
	s := waitFor(t, c, func(s *Snapshot) bool { return s.Root == f.Path("one") && s.State.Terminal() })
	if s.State != StateCompleted || s.Err != nil || len(s.Groups) != 1 {
		t.Fatalf("second scan = %+v", s)
	}

	c.StartScan(f.Path("two"))
	s = waitFor(t, c, func(s *Snapshot) bool { return s.Root == f.Path("two") && s.State.Terminal() })
	if s.State != StateCompleted || len(s.Groups) != 0 {
		t.Fatalf("third scan = %+v", s)
	}
}

func TestCoordinatorCancelPublishesPartialGroups(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates([]byte("early duplicate"), "a/1.bin", "a/2.bin")
	for i := 0; i < 10; i++ {
		f.CreateFilledFile("z/"+string(rune('a'+i))+".bin", 32, byte(i))
	}

	gate := newGateHasher(3)
	t.Cleanup(gate.Release)
	c := startCoordinator(t, newTestFinder(WithHasher(gate)), nil)

	c.StartScan(f.RootDir)
	<-gate.reached

	if s := c.Snapshot(); s.State != StateScanning {
		t.Fatalf("state = %v, want scanning", s.State)
	}
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// Requests are handled in order, so this reply proves the cancel was applied
	if _, err := c.DeleteExplicit(context.Background(), nil); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("DeleteExplicit during scan = %v, want ErrScanInProgress", err)
	}
	gate.Release()

	s := waitFor(t, c, terminal)
	if s.State != StateCancelled {
		t.Fatalf("state = %v, want cancelled", s.State)
	}
	if len(s.Groups) != 1 {
		t.Errorf("got %d groups, want the partial group", len(s.Groups))
	}
	if s.Progress >= 1 {
		t.Errorf("progress = %f, cancelled scan should stay below 1", s.Progress)
	}
}

func TestCoordinatorResolveGroup(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("triplicate"), "a", "b", "c")
	other := f.CreateDuplicates([]byte("pair"), "p", "q")

	c := startCoordinator(t, newTestFinder(), nil)
	c.StartScan(f.RootDir)
	s := waitFor(t, c, terminal)
	if len(s.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(s.Groups))
	}

	var digest string
	for _, g := range s.Groups {
		if g.Contains(paths[0]) {
			digest = g.Digest
		}
	}

	deleted, err := c.ResolveGroup(context.Background(), digest, "")
	if err != nil {
		t.Fatalf("ResolveGroup: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted = %v, want 2 paths", deleted)
	}

	f.AssertFileExists(paths[0])
	f.AssertFileNotExists(paths[1])
	f.AssertFileNotExists(paths[2])
	f.AssertFileExists(other[0])
	f.AssertFileExists(other[1])

	s = c.Snapshot()
	if _, ok := FindGroup(s.Groups, digest); ok {
		t.Error("resolved group still published")
	}
	if len(s.Groups) != 1 {
		t.Errorf("got %d groups, want 1 remaining", len(s.Groups))
	}
}

func TestCoordinatorResolveGroupKeepPath(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("pick me"), "1", "2", "3")

	c := startCoordinator(t, newTestFinder(), nil)
	c.StartScan(f.RootDir)
	s := waitFor(t, c, terminal)
	digest := s.Groups[0].Digest

	if _, err := c.ResolveGroup(context.Background(), digest, f.Path("stranger")); !errors.Is(err, ErrKeepNotInGroup) {
		t.Fatalf("err = %v, want ErrKeepNotInGroup", err)
	}
	for _, p := range paths {
		f.AssertFileExists(p)
	}

	if _, err := c.ResolveGroup(context.Background(), "no-such-digest", ""); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("err = %v, want ErrGroupNotFound", err)
	}

	if _, err := c.ResolveGroup(context.Background(), digest, paths[1]); err != nil {
		t.Fatalf("ResolveGroup: %v", err)
	}
	f.AssertFileNotExists(paths[0])
	f.AssertFileExists(paths[1])
	f.AssertFileNotExists(paths[2])
	if len(c.Snapshot().Groups) != 0 {
		t.Error("group should be gone")
	}
}

func TestCoordinatorResolveGroupLeavesReplacedDirectory(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("stale index"), "a", "b", "c")

	c := startCoordinator(t, newTestFinder(), nil)
	c.StartScan(f.RootDir)
	s := waitFor(t, c, terminal)
	digest := s.Groups[0].Digest

	// b turns into a directory after the scan
	if err := os.Remove(paths[1]); err != nil {
		t.Fatal(err)
	}
	inner := f.CreateFile("b/inner.txt", []byte("keep me"))

	deleted, err := c.ResolveGroup(context.Background(), digest, "")
	var delErr *cleaner.DeletionError
	if !errors.As(err, &delErr) || delErr.Reason != cleaner.ErrorIsDirectory || delErr.Path != paths[1] {
		t.Fatalf("err = %v, want directory refusal for %s", err, paths[1])
	}
	if len(deleted) != 0 {
		t.Errorf("deleted = %v, want none", deleted)
	}

	f.AssertFileExists(paths[0])
	f.AssertFileExists(inner)
	f.AssertFileExists(paths[2])

	if _, ok := FindGroup(c.Snapshot().Groups, digest); !ok {
		t.Error("group should stay listed after a failed resolution")
	}
}

func TestCoordinatorDeleteExplicitShrinksGroups(t *testing.T) {
	f := testutil.NewFixture(t)
	trio := f.CreateDuplicates([]byte("trio"), "t1", "t2", "t3")
	pair := f.CreateDuplicates([]byte("pair"), "p1", "p2")

	c := startCoordinator(t, newTestFinder(), nil)
	c.StartScan(f.RootDir)
	waitFor(t, c, terminal)

	deleted, err := c.DeleteExplicit(context.Background(), []string{trio[2], pair[0]})
	if err != nil {
		t.Fatalf("DeleteExplicit: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted = %v", deleted)
	}

	s := c.Snapshot()
	if len(s.Groups) != 1 {
		t.Fatalf("got %d groups, want only the shrunk trio", len(s.Groups))
	}
	if g := s.Groups[0]; len(g.Files) != 2 || g.Contains(trio[2]) {
		t.Errorf("trio group = %v", g.Paths())
	}
	f.AssertFileExists(pair[1])

	// Idempotent
	if _, err := c.DeleteExplicit(context.Background(), []string{trio[2]}); err != nil {
		t.Errorf("second delete of the same path: %v", err)
	}
}

func TestCoordinatorDeleteFailurePrunesPrefix(t *testing.T) {
	testutil.SkipIfRoot(t)

	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("quad"), "a/1", "a/2", "ro/3", "z/4")
	f.CreateReadOnlyDir("ro")

	c := startCoordinator(t, newTestFinder(), nil)
	c.StartScan(f.RootDir)
	waitFor(t, c, terminal)

	deleted, err := c.DeleteExplicit(context.Background(), []string{paths[1], paths[2], paths[3]})
	var delErr *cleaner.DeletionError
	if !errors.As(err, &delErr) || delErr.Path != paths[2] {
		t.Fatalf("err = %v, want DeletionError for %s", err, paths[2])
	}
	if len(deleted) != 1 || deleted[0] != paths[1] {
		t.Errorf("deleted = %v, want [%s]", deleted, paths[1])
	}
	f.AssertFileExists(paths[3])

	g := c.Snapshot().Groups[0]
	if len(g.Files) != 3 || g.Contains(paths[1]) {
		t.Errorf("group after partial delete = %v", g.Paths())
	}
}

func TestCoordinatorStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCoordinator(newTestFinder(), nil, CoordinatorOptions{Logger: logging.Discard()})

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()
	<-done

	if _, err := c.DeleteExplicit(context.Background(), []string{"/x"}); !errors.Is(err, ErrCoordinatorStopped) {
		t.Errorf("DeleteExplicit after stop = %v, want ErrCoordinatorStopped", err)
	}
	if err := c.Run(context.Background()); err == nil {
		t.Error("second Run should fail")
	}
}

func TestSnapshotResult(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	groups := []Group{{Digest: "d", Size: 5, Files: []FileRecord{{Path: "/a"}, {Path: "/b"}}}}

	s := &Snapshot{
		State:       StateCancelled,
		Root:        "/r",
		Groups:      groups,
		FilesSeen:   9,
		FilesHashed: 7,
		StartedAt:   start,
		FinishedAt:  start.Add(1500 * time.Millisecond),
	}
	r := s.Result()
	if r.Outcome != OutcomeCancelled || r.Root != "/r" || r.FilesSeen != 9 || r.FilesHashed != 7 {
		t.Errorf("result = %+v", r)
	}
	if r.Duration != 1500*time.Millisecond || r.WastedSpace() != 5 {
		t.Errorf("duration = %v, wasted = %d", r.Duration, r.WastedSpace())
	}

	s.State = StateCompleted
	s.FinishedAt = time.Time{}
	if r := s.Result(); r.Outcome != OutcomeCompleted || r.Duration != 0 {
		t.Errorf("unfinished snapshot result = %+v", r)
	}
}
