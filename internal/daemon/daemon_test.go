package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/reclaim/internal/config"
	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/reporter"
	"github.com/fenilsonani/reclaim/internal/testutil"
)

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.GetDefault()
	cfg.Daemon.Enabled = true
	cfg.Daemon.PidFile = filepath.Join(dir, "run", "reclaimd.pid")
	cfg.Daemon.ReportDir = filepath.Join(dir, "reports")
	cfg.Daemon.Schedules = []config.ScanSchedule{
		{Name: "nightly home", Schedule: "0 3 * * *", Root: root},
	}
	return cfg
}

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()

	d, err := New(cfg, dupes.NewFinder(dupes.WithLogger(logging.Discard())))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	d.log = logging.Discard()
	d.scheduler.log = logging.Discard()
	return d
}

func TestNewRequiresEnabledDaemon(t *testing.T) {
	cfg := testConfig(t, "/")
	cfg.Daemon.Enabled = false
	if _, err := New(cfg, dupes.NewFinder()); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("error = %v, want ErrNotEnabled", err)
	}

	cfg = testConfig(t, "/")
	cfg.Daemon.Schedules = nil
	if _, err := New(cfg, dupes.NewFinder()); !errors.Is(err, ErrNoSchedules) {
		t.Errorf("error = %v, want ErrNoSchedules", err)
	}
}

func TestNewRegistersSchedules(t *testing.T) {
	cfg := testConfig(t, "/")
	cfg.Daemon.Schedules = append(cfg.Daemon.Schedules, config.ScanSchedule{Name: "weekly", Schedule: "@weekly", Root: "/"})

	d := newTestDaemon(t, cfg)
	jobs := d.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("jobs = %+v", jobs)
	}
}

func TestRunScanWritesReport(t *testing.T) {
	fixture := testutil.NewFixture(t)
	fixture.CreateDuplicates([]byte("same content"), "one.txt", "sub/two.txt")
	fixture.CreateRandomFile("unique.bin", 4096)

	cfg := testConfig(t, fixture.RootDir)
	d := newTestDaemon(t, cfg)
	d.now = func() time.Time { return time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC) }

	path, err := d.RunScan(context.Background(), cfg.Daemon.Schedules[0])
	if err != nil {
		t.Fatalf("RunScan() error = %v", err)
	}

	want := filepath.Join(cfg.Daemon.ReportDir, "nightly_home-20240501-030000.yaml")
	if path != want {
		t.Errorf("report path = %s, want %s", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var report reporter.DuplicateReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not valid YAML: %v", err)
	}

	if report.Root != fixture.RootDir || report.Outcome != "completed" {
		t.Errorf("report = %+v", report)
	}
	if report.GroupCount != 1 || len(report.Groups[0].Files) != 2 {
		t.Fatalf("groups = %+v", report.Groups)
	}
	if rel := fixture.RelPath(report.Groups[0].Files[1].Path); rel != filepath.Join("sub", "two.txt") {
		t.Errorf("second member = %s", rel)
	}
	if report.WastedSpace != int64(len("same content")) {
		t.Errorf("wasted = %d", report.WastedSpace)
	}

	// Report-only: nothing was deleted
	fixture.AssertFileExists(fixture.Path("one.txt"))
	fixture.AssertFileExists(fixture.Path("sub/two.txt"))
}

func TestRunScanMissingRoot(t *testing.T) {
	fixture := testutil.NewFixture(t)
	cfg := testConfig(t, fixture.Path("missing"))
	d := newTestDaemon(t, cfg)

	_, err := d.RunScan(context.Background(), cfg.Daemon.Schedules[0])
	if !errors.Is(err, dupes.ErrWalkRootUnreadable) {
		t.Errorf("error = %v, want ErrWalkRootUnreadable", err)
	}
	if entries, _ := os.ReadDir(cfg.Daemon.ReportDir); len(entries) != 0 {
		t.Errorf("no report expected, found %d", len(entries))
	}
}

func TestRunHoldsPidFileUntilCancelled(t *testing.T) {
	cfg := testConfig(t, "/")
	d := newTestDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !d.IsRunning() || !fileExists(cfg.Daemon.PidFile) {
		if time.Now().After(deadline) {
			t.Fatal("daemon did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := AcquirePidFile(cfg.Daemon.PidFile); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second AcquirePidFile() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if fileExists(cfg.Daemon.PidFile) {
		t.Error("pid file should be removed on shutdown")
	}
	if d.IsRunning() {
		t.Error("daemon still marked running")
	}
}

func TestAcquirePidFileReplacesStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reclaimd.pid")
	// Above any real pid_max, so no such process exists
	if err := os.WriteFile(path, []byte("2147483000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	pid, err := AcquirePidFile(path)
	if err != nil {
		t.Fatalf("AcquirePidFile() error = %v", err)
	}

	recorded, running := ReadPid(path)
	if recorded != os.Getpid() || !running {
		t.Errorf("ReadPid() = %d, %v; want own pid", recorded, running)
	}

	if err := pid.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := pid.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}

func TestReadPid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantPid int
	}{
		{"garbage", "not a pid", 0},
		{"negative", "-4", 0},
		{"self", strconv.Itoa(os.Getpid()), os.Getpid()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if pid, _ := ReadPid(path); pid != tt.wantPid {
				t.Errorf("ReadPid() = %d, want %d", pid, tt.wantPid)
			}
		})
	}

	if pid, running := ReadPid(filepath.Join(dir, "absent")); pid != 0 || running {
		t.Error("missing pid file should read as not running")
	}
}

func TestReportName(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		job  string
		want string
	}{
		{"weekly-home", "weekly-home-20240102-030405.yaml"},
		{"photos/raw", "photos_raw-20240102-030405.yaml"},
		{"", "scan-20240102-030405.yaml"},
	}

	for _, tt := range tests {
		if got := ReportName(tt.job, at); got != tt.want {
			t.Errorf("ReportName(%q) = %s, want %s", tt.job, got, tt.want)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
