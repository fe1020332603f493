package dupes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/progress"
)

// State is the coordinator's scan state.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no scan is running and one has finished
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Deleter removes paths in order, stopping at the first failure. It returns
// the paths removed before the failure.
type Deleter interface {
	DeleteExplicit(paths []string) ([]string, error)
}

// Snapshot is an immutable view of the coordinator state. Callers must not
// modify Groups.
type Snapshot struct {
	State       State
	Root        string
	Groups      []Group
	Progress    float64
	FilesSeen   int
	FilesHashed int
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time

	superseded chan struct{}
}

// Superseded is closed once a newer snapshot has been published
func (s *Snapshot) Superseded() <-chan struct{} {
	return s.superseded
}

// WastedSpace sums the wasted space of the published groups
func (s *Snapshot) WastedSpace() int64 {
	return TotalWastedSpace(s.Groups)
}

// Result converts a finished snapshot into a scan result. Groups resolved
// since the scan ended are already gone from it.
func (s *Snapshot) Result() *Result {
	outcome := OutcomeCompleted
	if s.State == StateCancelled {
		outcome = OutcomeCancelled
	}

	var duration time.Duration
	if !s.FinishedAt.IsZero() {
		duration = s.FinishedAt.Sub(s.StartedAt)
	}

	return &Result{
		Root:        s.Root,
		Groups:      s.Groups,
		Outcome:     outcome,
		FilesSeen:   s.FilesSeen,
		FilesHashed: s.FilesHashed,
		Duration:    duration,
	}
}

// CoordinatorOptions configures a Coordinator
type CoordinatorOptions struct {
	Progress *progress.ProgressReporter
	Logger   *slog.Logger
}

// Coordinator owns the published duplicate groups. Run must be called
// exactly once; every other method may be called from any goroutine.
type Coordinator struct {
	finder   *Finder
	deleter  Deleter
	progress *progress.ProgressReporter
	log      *slog.Logger

	requests chan any
	stopped  chan struct{}
	snap     atomic.Pointer[Snapshot]
	runOnce  sync.Once

	// owned by the Run goroutine
	state  Snapshot
	scanID uint64
	cancel context.CancelFunc
}

type startRequest struct{ root string }

type cancelRequest struct{}

type deleteRequest struct {
	paths []string
	reply chan deleteReply
}

type resolveRequest struct {
	digest string
	keep   string
	reply  chan deleteReply
}

type deleteReply struct {
	deleted []string
	err     error
}

type scanProgress struct {
	id uint64
	p  Progress
}

type scanDone struct {
	id     uint64
	result *Result
	err    error
}

// NewCoordinator returns an idle coordinator
func NewCoordinator(finder *Finder, deleter Deleter, opts CoordinatorOptions) *Coordinator {
	c := &Coordinator{
		finder:   finder,
		deleter:  deleter,
		progress: opts.Progress,
		log:      opts.Logger,
		requests: make(chan any, 16),
		stopped:  make(chan struct{}),
	}
	if c.log == nil {
		c.log = logging.L("coordinator")
	}
	c.state = Snapshot{State: StateIdle}
	c.publish()
	return c
}

// Snapshot returns the latest published state
func (c *Coordinator) Snapshot() *Snapshot {
	return c.snap.Load()
}

// WaitFor blocks until cond holds for a published snapshot or ctx is done
func (c *Coordinator) WaitFor(ctx context.Context, cond func(*Snapshot) bool) (*Snapshot, error) {
	for {
		s := c.Snapshot()
		if cond(s) {
			return s, nil
		}
		select {
		case <-s.Superseded():
		case <-ctx.Done():
			return s, ctx.Err()
		case <-c.stopped:
			return c.Snapshot(), ErrCoordinatorStopped
		}
	}
}

// StartScan resets all results and scans root. A running scan is cancelled
// and its results discarded.
func (c *Coordinator) StartScan(root string) error {
	return c.send(startRequest{root: root})
}

// Cancel asks the running scan to stop at its next walk step. Groups indexed
// so far are published with StateCancelled. It is a no-op when idle.
func (c *Coordinator) Cancel() error {
	return c.send(cancelRequest{})
}

// DeleteExplicit deletes paths in order and prunes them from the published
// groups. On failure the paths removed before it are still pruned and the
// returned error identifies the failing path.
func (c *Coordinator) DeleteExplicit(ctx context.Context, paths []string) ([]string, error) {
	req := deleteRequest{paths: paths, reply: make(chan deleteReply, 1)}
	return c.roundTrip(ctx, req, req.reply)
}

// ResolveGroup deletes every member of the group except keepPath, which
// defaults to the group's first member, and removes the group.
func (c *Coordinator) ResolveGroup(ctx context.Context, digest, keepPath string) ([]string, error) {
	req := resolveRequest{digest: digest, keep: keepPath, reply: make(chan deleteReply, 1)}
	return c.roundTrip(ctx, req, req.reply)
}

func (c *Coordinator) send(req any) error {
	select {
	case c.requests <- req:
		return nil
	case <-c.stopped:
		return ErrCoordinatorStopped
	}
}

func (c *Coordinator) roundTrip(ctx context.Context, req any, reply chan deleteReply) ([]string, error) {
	select {
	case c.requests <- req:
	case <-c.stopped:
		return nil, ErrCoordinatorStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Once accepted the request runs to completion; wait for it even if ctx
	// ends so the caller learns what was deleted.
	select {
	case r := <-reply:
		return r.deleted, r.err
	case <-c.stopped:
		return nil, ErrCoordinatorStopped
	}
}

// Run processes requests until ctx is done. It is the only writer of the
// published state.
func (c *Coordinator) Run(ctx context.Context) error {
	started := false
	c.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("coordinator already running")
	}
	defer close(c.stopped)
	defer func() {
		if c.cancel != nil {
			c.cancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-c.requests:
			c.handle(ctx, req)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, req any) {
	switch r := req.(type) {
	case startRequest:
		c.startScan(ctx, r.root)
	case cancelRequest:
		if c.state.State == StateScanning && c.cancel != nil {
			c.log.Info("cancelling scan", logging.KeyRoot, c.state.Root)
			c.cancel()
		}
	case scanProgress:
		c.onProgress(r)
	case scanDone:
		c.onDone(r)
	case deleteRequest:
		deleted, err := c.deleteExplicit(r.paths)
		r.reply <- deleteReply{deleted: deleted, err: err}
	case resolveRequest:
		deleted, err := c.resolveGroup(r.digest, r.keep)
		r.reply <- deleteReply{deleted: deleted, err: err}
	}
}

func (c *Coordinator) startScan(ctx context.Context, root string) {
	if c.cancel != nil {
		c.cancel()
	}

	c.scanID++
	id := c.scanID
	scanCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.state = Snapshot{
		State:     StateScanning,
		Root:      root,
		StartedAt: time.Now(),
	}
	c.publish()
	c.reportProgress(progress.PhaseScanning, Progress{}, nil)

	go func() {
		result, err := c.finder.Find(scanCtx, root, func(p Progress) {
			c.post(scanProgress{id: id, p: p})
		})
		c.post(scanDone{id: id, result: result, err: err})
	}()
}

// post delivers a message from a scan goroutine back to Run
func (c *Coordinator) post(msg any) {
	select {
	case c.requests <- msg:
	case <-c.stopped:
	}
}

func (c *Coordinator) onProgress(m scanProgress) {
	if m.id != c.scanID || c.state.State != StateScanning {
		return
	}
	fraction := m.p.Fraction
	if fraction >= 1 {
		// 1 is only published with the completed state
		fraction = c.state.Progress
	}
	if fraction > c.state.Progress {
		c.state.Progress = fraction
	}
	c.state.FilesSeen = m.p.FilesSeen
	c.state.FilesHashed = m.p.FilesHashed
	c.publish()
	c.reportProgress(progress.PhaseScanning, m.p, nil)
}

func (c *Coordinator) onDone(m scanDone) {
	if m.id != c.scanID {
		return
	}
	c.cancel()
	c.cancel = nil
	c.state.FinishedAt = time.Now()

	if m.err != nil {
		c.state.State = StateFailed
		c.state.Err = m.err
		c.state.Groups = nil
		c.state.Progress = 0
		c.publish()
		c.reportProgress(progress.PhaseError, Progress{}, m.err)
		return
	}

	c.state.Groups = m.result.Groups
	c.state.FilesSeen = m.result.FilesSeen
	c.state.FilesHashed = m.result.FilesHashed
	p := Progress{FilesSeen: m.result.FilesSeen, FilesHashed: m.result.FilesHashed, BytesHashed: m.result.BytesHashed}

	if m.result.Outcome == OutcomeCancelled {
		c.state.State = StateCancelled
		c.publish()
		c.reportProgress(progress.PhaseCancelled, p, nil)
		return
	}

	c.state.State = StateCompleted
	c.state.Progress = 1
	c.publish()
	c.reportProgress(progress.PhaseComplete, p, nil)
}

func (c *Coordinator) deleteExplicit(paths []string) ([]string, error) {
	if c.state.State == StateScanning {
		return nil, ErrScanInProgress
	}

	deleted, err := c.deleter.DeleteExplicit(paths)
	if len(deleted) > 0 {
		c.state.Groups = Prune(c.state.Groups, deleted)
		c.publish()
	}
	return deleted, err
}

func (c *Coordinator) resolveGroup(digest, keep string) ([]string, error) {
	if c.state.State == StateScanning {
		return nil, ErrScanInProgress
	}

	group, ok := FindGroup(c.state.Groups, digest)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, digest)
	}
	if keep == "" {
		keep = group.Keep().Path
	}
	if !group.Contains(keep) {
		return nil, fmt.Errorf("%w: %s", ErrKeepNotInGroup, keep)
	}

	victims := make([]string, 0, len(group.Files)-1)
	for _, f := range group.Files {
		if f.Path != keep {
			victims = append(victims, f.Path)
		}
	}

	deleted, err := c.deleter.DeleteExplicit(victims)
	groups := Prune(c.state.Groups, deleted)
	if err == nil {
		groups = Without(groups, digest)
	}
	c.state.Groups = groups
	c.publish()

	c.log.Info("group resolved", logging.KeyDigest, digest, "kept", keep, "deleted", len(deleted), logging.Err(err))
	return deleted, err
}

// publish stores a copy of the working state and wakes waiters on the
// previous snapshot
func (c *Coordinator) publish() {
	next := c.state
	next.superseded = make(chan struct{})
	prev := c.snap.Swap(&next)
	if prev != nil {
		close(prev.superseded)
	}
}

func (c *Coordinator) reportProgress(phase progress.Phase, p Progress, err error) {
	if c.progress == nil {
		return
	}
	fraction := c.state.Progress
	c.progress.UpdateScanProgress(&progress.ScanProgress{
		Phase:       phase,
		Root:        c.state.Root,
		CurrentPath: p.CurrentPath,
		FilesSeen:   p.FilesSeen,
		FilesHashed: p.FilesHashed,
		BytesHashed: p.BytesHashed,
		Fraction:    fraction,
		StartTime:   c.state.StartedAt,
		Error:       err,
	})
}
