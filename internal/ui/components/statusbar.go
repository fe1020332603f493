package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/reclaim/internal/ui/styles"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

// Shortcut is one key hint shown on the right of the status bar
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the line at the bottom of list views
type StatusBar struct {
	viewName  string
	selected  int
	total     int
	size      int64
	shortcuts []Shortcut
}

// NewStatusBar creates a new status bar
func NewStatusBar(viewName string) *StatusBar {
	return &StatusBar{viewName: viewName}
}

// SetSelection sets the selection count, total, and reclaimable size
func (s *StatusBar) SetSelection(selected, total int, size int64) {
	s.selected = selected
	s.total = total
	s.size = size
}

// SetShortcuts sets the key hints in display order
func (s *StatusBar) SetShortcuts(shortcuts ...Shortcut) {
	s.shortcuts = shortcuts
}

// Render renders the status bar with the given width
func (s *StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	var parts []string
	if s.viewName != "" {
		parts = append(parts, styles.BoldStyle.Render(s.viewName))
	}
	if s.total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d selected", s.selected, s.total))
	}
	if s.size > 0 {
		parts = append(parts, styles.FileSizeStyle.Render(utils.FormatBytes(s.size)))
	}
	leftSide := strings.Join(parts, " • ")

	hints := make([]string, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		hints = append(hints, styles.DimStyle.Render(sc.Key)+":"+sc.Desc)
	}
	rightSide := strings.Join(hints, " ")

	// Drop hints from the end until both sides fit
	for len(hints) > 0 && lipgloss.Width(leftSide)+lipgloss.Width(rightSide)+3 > width {
		hints = hints[:len(hints)-1]
		rightSide = strings.Join(hints, " ")
	}

	spacing := max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide)-2, 1)

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.BgDark).
		Padding(0, 1).
		Width(width).
		Render(leftSide + strings.Repeat(" ", spacing) + rightSide)
}
