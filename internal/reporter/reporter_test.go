package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/scanner"
	"github.com/fenilsonani/reclaim/internal/storage"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleResult() *dupes.Result {
	mod := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	return &dupes.Result{
		Root:        "/data",
		Outcome:     dupes.OutcomeCompleted,
		FilesSeen:   10,
		FilesHashed: 8,
		Duration:    1500 * time.Millisecond,
		Groups: []dupes.Group{
			{Digest: "aaa", Size: 1024, Files: []dupes.FileRecord{
				{Path: "/data/a/x.bin", Size: 1024, ModTime: mod},
				{Path: "/data/b/x.bin", Size: 1024, ModTime: mod},
				{Path: "/data/c/x.bin", Size: 1024, ModTime: mod},
			}},
			{Digest: "bbb", Size: 10, Files: []dupes.FileRecord{
				{Path: "/data/one.txt", Size: 10, ModTime: mod},
				{Path: "/data/two.txt", Size: 10, ModTime: mod},
			}},
		},
	}
}

func newTestReporter(buf *bytes.Buffer, format OutputFormat) *Reporter {
	r := New(buf, format)
	r.now = func() time.Time { return fixedTime }
	return r
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"table", "JSON", "yaml", "summary"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestReportSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter(&buf, FormatSummary).Report(sampleResult()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Root: /data",
		"Files Scanned: 10 (8 hashed)",
		"Duplicate Groups: 2",
		"Wasted Space: 2.0 KiB",
		"3 copies of /data/a/x.bin",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "partial") {
		t.Error("completed scan should not be marked partial")
	}
}

func TestReportSummaryCancelled(t *testing.T) {
	result := sampleResult()
	result.Outcome = dupes.OutcomeCancelled

	var buf bytes.Buffer
	if err := newTestReporter(&buf, FormatSummary).Report(result); err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if !strings.Contains(buf.String(), "results are partial") {
		t.Errorf("cancelled scan not flagged:\n%s", buf.String())
	}
}

func TestReportTable(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter(&buf, FormatTable).Report(sampleResult()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "#1") || !strings.Contains(out, "#2") {
		t.Errorf("group labels missing:\n%s", out)
	}
	if strings.Count(out, "/data/") != 5 {
		t.Errorf("expected 5 member rows:\n%s", out)
	}
	if strings.ContainsRune(out, 0) {
		t.Error("table contains NUL bytes")
	}
	if !strings.Contains(out, "Total: 2 groups") {
		t.Errorf("total line missing:\n%s", out)
	}
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter(&buf, FormatJSON).Report(sampleResult()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	var report DuplicateReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("Timestamp = %s", report.Timestamp)
	}
	if report.GroupCount != 2 || report.WastedSpace != 2058 || report.Outcome != "completed" {
		t.Errorf("report = %+v", report)
	}
	if report.DurationMs != 1500 {
		t.Errorf("DurationMs = %d", report.DurationMs)
	}
	if len(report.Groups[0].Files) != 3 || report.Groups[0].Files[0].Path != "/data/a/x.bin" {
		t.Errorf("groups = %+v", report.Groups)
	}
}

func TestReportYAMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestReporter(&buf, FormatYAML).Report(&dupes.Result{Root: "/empty"}); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	var report DuplicateReport
	if err := yaml.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if report.Root != "/empty" || report.GroupCount != 0 {
		t.Errorf("report = %+v", report)
	}
	if !strings.Contains(buf.String(), "groups: []") {
		t.Errorf("empty groups should encode as a list:\n%s", buf.String())
	}
}

func TestReportUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, OutputFormat("xml"))
	if err := r.Report(sampleResult()); err == nil {
		t.Error("expected error for unsupported format")
	}
	if err := r.ReportCaches(nil); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestReportLargeFiles(t *testing.T) {
	files := []scanner.FileInfo{
		{Path: "/data/movie.mkv", Size: 3 << 30, ModTime: fixedTime},
		{Path: "/data/" + strings.Repeat("x", 80) + ".iso", Size: 1 << 30, ModTime: fixedTime},
	}

	var buf bytes.Buffer
	if err := newTestReporter(&buf, FormatTable).ReportLargeFiles(files); err != nil {
		t.Fatalf("ReportLargeFiles failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "3.0 GiB") || !strings.Contains(out, "Total: 2 files, 4.0 GiB") {
		t.Errorf("table output:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Error("long path should be truncated")
	}

	buf.Reset()
	if err := newTestReporter(&buf, FormatSummary).ReportLargeFiles(files); err != nil {
		t.Fatalf("ReportLargeFiles failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Files: 2") {
		t.Errorf("summary output:\n%s", buf.String())
	}
}

func TestReportCaches(t *testing.T) {
	items := []scanner.CacheItem{
		{Path: "/c/user", Size: 2048, Type: scanner.CacheUser, Description: "User Cache"},
		{Path: "/c/chrome", Size: 1024, Type: scanner.CacheBrowser, Description: "Chrome Cache"},
		{Path: "/c/other", Size: 1024, Type: scanner.CacheUser, Description: "User Cache"},
	}

	var buf bytes.Buffer
	if err := newTestReporter(&buf, FormatSummary).ReportCaches(items); err != nil {
		t.Fatalf("ReportCaches failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "User: 3.0 KiB") || !strings.Contains(out, "Browser: 1.0 KiB") {
		t.Errorf("summary output:\n%s", out)
	}
	if strings.Index(out, "User:") > strings.Index(out, "Browser:") {
		t.Error("types should be listed in first-seen order")
	}

	buf.Reset()
	if err := newTestReporter(&buf, FormatJSON).ReportCaches(items); err != nil {
		t.Fatalf("ReportCaches failed: %v", err)
	}
	var decoded struct {
		TotalSize int64               `json:"total_size"`
		Items     []scanner.CacheItem `json:"items"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.TotalSize != 4096 || len(decoded.Items) != 3 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestReportStorage(t *testing.T) {
	analysis := &storage.Analysis{
		Volume: storage.Usage{Path: "/", Total: 100 << 30, Used: 40 << 30, Free: 60 << 30, UsedPercent: 40},
		Categories: []storage.Category{
			{Name: "Downloads", Path: "/home/u/Downloads", Size: 5 << 30},
		},
	}

	var buf bytes.Buffer
	if err := newTestReporter(&buf, FormatSummary).ReportStorage(analysis); err != nil {
		t.Fatalf("ReportStorage failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "40 GiB used of 100 GiB (40.0%)") {
		t.Errorf("volume line:\n%s", out)
	}
	if !strings.Contains(out, "Downloads") {
		t.Errorf("category missing:\n%s", out)
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")

	if err := SaveToFile(sampleResult(), path, FormatYAML); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var report DuplicateReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if report.GroupCount != 2 {
		t.Errorf("GroupCount = %d", report.GroupCount)
	}
}

func TestSaveToFileBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.json")
	if err := SaveToFile(sampleResult(), path, FormatJSON); err == nil {
		t.Error("expected error for missing directory")
	}
}
