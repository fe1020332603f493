package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/scanner"
	"github.com/fenilsonani/reclaim/internal/storage"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

const pathWidth = 60

var separator = strings.Repeat("-", 110)

// ParseFormat validates a format name
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(name)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", name)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	now    func() time.Time
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		now:    time.Now,
	}
}

// DuplicateReport is the structured form of a duplicate scan
type DuplicateReport struct {
	Timestamp            string        `json:"timestamp" yaml:"timestamp"`
	Root                 string        `json:"root" yaml:"root"`
	Outcome              string        `json:"outcome" yaml:"outcome"`
	FilesSeen            int           `json:"files_seen" yaml:"files_seen"`
	FilesHashed          int           `json:"files_hashed" yaml:"files_hashed"`
	DurationMs           int64         `json:"duration_ms" yaml:"duration_ms"`
	GroupCount           int           `json:"group_count" yaml:"group_count"`
	WastedSpace          int64         `json:"wasted_space" yaml:"wasted_space"`
	WastedSpaceFormatted string        `json:"wasted_space_formatted" yaml:"wasted_space_formatted"`
	Groups               []dupes.Group `json:"groups" yaml:"groups"`
}

// NewDuplicateReport builds the structured report for result
func NewDuplicateReport(result *dupes.Result, at time.Time) DuplicateReport {
	groups := result.Groups
	if groups == nil {
		groups = []dupes.Group{}
	}
	return DuplicateReport{
		Timestamp:            at.Format(time.RFC3339),
		Root:                 result.Root,
		Outcome:              result.Outcome.String(),
		FilesSeen:            result.FilesSeen,
		FilesHashed:          result.FilesHashed,
		DurationMs:           result.Duration.Milliseconds(),
		GroupCount:           len(groups),
		WastedSpace:          result.WastedSpace(),
		WastedSpaceFormatted: utils.FormatBytes(result.WastedSpace()),
		Groups:               groups,
	}
}

// Report generates a report from duplicate scan results
func (r *Reporter) Report(result *dupes.Result) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(result)
	case FormatJSON, FormatYAML:
		return r.encode(NewDuplicateReport(result, r.now()))
	case FormatSummary:
		return r.reportSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(result *dupes.Result) error {
	fmt.Fprintf(r.writer, "=== Duplicate Summary ===\n")
	fmt.Fprintf(r.writer, "Root: %s\n", result.Root)
	if result.Outcome == dupes.OutcomeCancelled {
		fmt.Fprintf(r.writer, "Scan cancelled: results are partial\n")
	}
	fmt.Fprintf(r.writer, "Files Scanned: %d (%d hashed)\n", result.FilesSeen, result.FilesHashed)
	fmt.Fprintf(r.writer, "Duplicate Groups: %d\n", len(result.Groups))
	fmt.Fprintf(r.writer, "Wasted Space: %s\n", utils.FormatBytes(result.WastedSpace()))

	if len(result.Groups) > 0 {
		fmt.Fprintf(r.writer, "\nLargest Groups:\n")
		for i, g := range result.Groups {
			if i == 10 {
				fmt.Fprintf(r.writer, "  ... and %d more\n", len(result.Groups)-i)
				break
			}
			fmt.Fprintf(r.writer, "  %d copies of %s (%s each, %s wasted)\n",
				len(g.Files), truncatePath(g.Keep().Path), utils.FormatBytes(g.Size), utils.FormatBytes(g.WastedSpace()))
		}
	}

	return nil
}

// reportTable lists every group member; the first row of a group is kept
func (r *Reporter) reportTable(result *dupes.Result) error {
	fmt.Fprintf(r.writer, "%-6s | %-*s | %-12s | %s\n", "Group", pathWidth, "Path", "Size", "Modified")
	fmt.Fprintf(r.writer, "%s\n", separator)

	for i, g := range result.Groups {
		for j, f := range g.Files {
			label := ""
			if j == 0 {
				label = fmt.Sprintf("#%d", i+1)
			}
			fmt.Fprintf(r.writer, "%-6s | %-*s | %-12s | %s\n",
				label,
				pathWidth, truncatePath(f.Path),
				utils.FormatBytes(f.Size),
				f.ModTime.Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Fprintf(r.writer, "%s\n", separator)
	fmt.Fprintf(r.writer, "Total: %d groups, %s wasted\n", len(result.Groups), utils.FormatBytes(result.WastedSpace()))

	return nil
}

// ReportLargeFiles renders the large-file scan
func (r *Reporter) ReportLargeFiles(files []scanner.FileInfo) error {
	var total int64
	for _, f := range files {
		total += f.Size
	}

	switch r.format {
	case FormatSummary:
		fmt.Fprintf(r.writer, "=== Large Files ===\n")
		fmt.Fprintf(r.writer, "Files: %d\n", len(files))
		fmt.Fprintf(r.writer, "Total Size: %s\n", utils.FormatBytes(total))
		return nil
	case FormatTable:
		fmt.Fprintf(r.writer, "%-*s | %-12s | %s\n", pathWidth, "Path", "Size", "Modified")
		fmt.Fprintf(r.writer, "%s\n", separator)
		for _, f := range files {
			fmt.Fprintf(r.writer, "%-*s | %-12s | %s\n",
				pathWidth, truncatePath(f.Path), utils.FormatBytes(f.Size), f.ModTime.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(r.writer, "%s\n", separator)
		fmt.Fprintf(r.writer, "Total: %d files, %s\n", len(files), utils.FormatBytes(total))
		return nil
	case FormatJSON, FormatYAML:
		if files == nil {
			files = []scanner.FileInfo{}
		}
		return r.encode(struct {
			Timestamp string             `json:"timestamp" yaml:"timestamp"`
			TotalSize int64              `json:"total_size" yaml:"total_size"`
			Files     []scanner.FileInfo `json:"files" yaml:"files"`
		}{r.now().Format(time.RFC3339), total, files})
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// ReportCaches renders the cache and log scan
func (r *Reporter) ReportCaches(items []scanner.CacheItem) error {
	total := scanner.TotalSize(items)

	switch r.format {
	case FormatSummary:
		fmt.Fprintf(r.writer, "=== Reclaimable Caches ===\n")
		fmt.Fprintf(r.writer, "Total Size: %s\n", utils.FormatBytes(total))
		fmt.Fprintf(r.writer, "\nBreakdown by Type:\n")

		byType := make(map[scanner.CacheType]int64)
		var order []scanner.CacheType
		for _, item := range items {
			if _, ok := byType[item.Type]; !ok {
				order = append(order, item.Type)
			}
			byType[item.Type] += item.Size
		}
		for _, t := range order {
			fmt.Fprintf(r.writer, "  %s: %s\n", t, utils.FormatBytes(byType[t]))
		}
		return nil
	case FormatTable:
		fmt.Fprintf(r.writer, "%-*s | %-12s | %-12s | %s\n", pathWidth, "Path", "Size", "Type", "Description")
		fmt.Fprintf(r.writer, "%s\n", separator)
		for _, item := range items {
			fmt.Fprintf(r.writer, "%-*s | %-12s | %-12s | %s\n",
				pathWidth, truncatePath(item.Path), utils.FormatBytes(item.Size), item.Type, item.Description)
		}
		fmt.Fprintf(r.writer, "%s\n", separator)
		fmt.Fprintf(r.writer, "Total: %d items, %s\n", len(items), utils.FormatBytes(total))
		return nil
	case FormatJSON, FormatYAML:
		if items == nil {
			items = []scanner.CacheItem{}
		}
		return r.encode(struct {
			Timestamp string              `json:"timestamp" yaml:"timestamp"`
			TotalSize int64               `json:"total_size" yaml:"total_size"`
			Items     []scanner.CacheItem `json:"items" yaml:"items"`
		}{r.now().Format(time.RFC3339), total, items})
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// ReportStorage renders a storage analysis
func (r *Reporter) ReportStorage(a *storage.Analysis) error {
	switch r.format {
	case FormatSummary, FormatTable:
		v := a.Volume
		fmt.Fprintf(r.writer, "=== Storage ===\n")
		fmt.Fprintf(r.writer, "Volume: %s used of %s (%.1f%%), %s free\n",
			utils.FormatBytes(int64(v.Used)), utils.FormatBytes(int64(v.Total)), v.UsedPercent, utils.FormatBytes(int64(v.Free)))
		if len(a.Categories) > 0 {
			fmt.Fprintf(r.writer, "\n")
		}
		for _, c := range a.Categories {
			fmt.Fprintf(r.writer, "  %-14s %12s  %s\n", c.Name, utils.FormatBytes(c.Size), c.Path)
		}
		return nil
	case FormatJSON, FormatYAML:
		return r.encode(a)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) encode(v any) error {
	if r.format == FormatJSON {
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}

	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(v)
}

func truncatePath(path string) string {
	if len(path) > pathWidth {
		return "..." + path[len(path)-(pathWidth-3):]
	}
	return path
}

// SaveToFile saves the duplicate report to a file
func SaveToFile(result *dupes.Result, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	reporter := New(file, format)
	if err := reporter.Report(result); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
