package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/ui/styles"
	uiutils "github.com/fenilsonani/reclaim/internal/ui/utils"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

// maxPanelMembers caps the member rows the panel lists
const maxPanelMembers = 8

// InfoPanel shows the members of one duplicate group and which copy a
// resolution keeps
type InfoPanel struct {
	group dupes.Group
	keep  int
	width int
}

// NewInfoPanel creates an empty panel
func NewInfoPanel(width int) *InfoPanel {
	return &InfoPanel{width: width}
}

// SetGroup sets the group and the index of the member to keep
func (p *InfoPanel) SetGroup(g dupes.Group, keep int) {
	p.group = g
	p.keep = keep
}

// SetWidth sets the width of the panel
func (p *InfoPanel) SetWidth(width int) {
	p.width = width
}

// Render renders the panel, or nothing when no group is set
func (p *InfoPanel) Render() string {
	if len(p.group.Files) == 0 {
		return ""
	}

	panelWidth := min(max(p.width-4, 40), 120)
	pathWidth := panelWidth - 30

	var content strings.Builder
	content.WriteString(styles.SubtitleStyle.Bold(true).Render(fmt.Sprintf("%d copies × %s",
		len(p.group.Files), utils.FormatBytes(p.group.Size))))
	content.WriteString(styles.DimStyle.Render("  sha256 " + shortDigest(p.group.Digest)))
	content.WriteString("\n")

	for i, f := range p.group.Files {
		if i == maxPanelMembers {
			content.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more", len(p.group.Files)-i)))
			content.WriteString("\n")
			break
		}

		path := uiutils.TruncatePath(f.Path, pathWidth)
		modified := styles.DimStyle.Render(f.ModTime.Format("2006-01-02 15:04"))
		if i == p.keep {
			content.WriteString(styles.KeepStyle.Render("✓ keep   ") + styles.FilePathStyle.Render(path) + "  " + modified)
		} else {
			content.WriteString(styles.DimStyle.Render("✗ delete ") + styles.DeleteStyle.Render(path) + "  " + modified)
		}
		content.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.FocusBorder).
		Padding(0, 1).
		Width(panelWidth).
		Render(strings.TrimSuffix(content.String(), "\n"))
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
