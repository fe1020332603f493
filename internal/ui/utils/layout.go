package utils

import (
	"fmt"
	"path/filepath"

	"github.com/fenilsonani/reclaim/internal/ui/styles"
)

const (
	// MinTerminalWidth is the minimum recommended terminal width
	MinTerminalWidth = 80
	// MinTerminalHeight is the minimum recommended terminal height
	MinTerminalHeight = 24
)

// TruncatePath shortens path to maxWidth, keeping the file name and as much
// of the trailing directory as fits.
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth < 10 {
		return "..."
	}

	file := filepath.Base(path)
	if len(file)+4 > maxWidth {
		return "..." + file[len(file)-(maxWidth-3):]
	}
	return "..." + path[len(path)-(maxWidth-3):]
}

// CalculatePageSize returns how many list rows fit in terminalHeight after
// reserving reserved lines for headers and footers
func CalculatePageSize(terminalHeight, reserved int) int {
	return max(terminalHeight-reserved, 5)
}

// VisibleRange returns the half-open window [start, end) of a list of total
// rows that keeps cursor on screen
func VisibleRange(cursor, total, pageSize int) (int, int) {
	if total <= pageSize {
		return 0, total
	}
	start := cursor - pageSize/2
	start = max(start, 0)
	start = min(start, total-pageSize)
	return start, start + pageSize
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner if terminal is too small
func GetSizeWarningBanner(width, height int) string {
	if width == 0 && height == 0 {
		return ""
	}
	if !IsTerminalTooSmall(width, height) {
		return ""
	}

	warning := "⚠️  Terminal too small! Recommended: 80x24 or larger" +
		styles.DimStyle.Render(" (current: ") +
		styles.WarningStyle.Render(fmt.Sprintf("%dx%d", width, height)) +
		styles.DimStyle.Render(")")

	return styles.WarningStyle.Render(warning) + "\n\n"
}
