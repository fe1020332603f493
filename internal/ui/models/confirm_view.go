package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/reclaim/internal/ui/styles"
	uiutils "github.com/fenilsonani/reclaim/internal/ui/utils"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

// RiskLevel represents the risk level of a deletion operation
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// maxListedVictims caps the paths listed on the confirmation screen
const maxListedVictims = 8

// ConfirmViewModel handles the confirmation screen
type ConfirmViewModel struct {
	selections []Selection
	files      int
	bytes      int64
	cursor     int // 0 = Yes, 1 = Review, 2 = Cancel
	riskLevel  RiskLevel
	dryRun     bool
	width      int
	height     int
}

// NewConfirmViewModel creates a new confirm view model
func NewConfirmViewModel(selections []Selection, dryRun bool, width, height int) *ConfirmViewModel {
	var files int
	var bytes int64
	for _, s := range selections {
		n := len(s.Group.Files) - 1
		files += n
		bytes += s.Group.Size * int64(n)
	}

	risk := calculateRiskLevel(files, bytes)
	defaultCursor := 0
	if risk == RiskHigh {
		defaultCursor = 2
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &ConfirmViewModel{
		selections: selections,
		files:      files,
		bytes:      bytes,
		cursor:     defaultCursor,
		riskLevel:  risk,
		dryRun:     dryRun,
		width:      width,
		height:     height,
	}
}

// calculateRiskLevel grades a deletion by file count and volume
func calculateRiskLevel(files int, bytes int64) RiskLevel {
	switch {
	case files > 500 || bytes > 10*utils.GB:
		return RiskHigh
	case files >= 50 || bytes > utils.GB:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 2 {
				m.cursor++
			}
		case "tab":
			m.cursor = (m.cursor + 1) % 3
		case "enter":
			switch m.cursor {
			case 0:
				return m, func() tea.Msg { return ConfirmedMsg{} }
			case 1:
				return m, func() tea.Msg { return ReviewSelectionMsg{} }
			case 2:
				return m, func() tea.Msg { return CancelSelectionMsg{} }
			}
		case "y":
			return m, func() tea.Msg { return ConfirmedMsg{} }
		case "e":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		case "n":
			return m, func() tea.Msg { return CancelSelectionMsg{} }
		}
	}

	return m, nil
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	b.WriteString(uiutils.GetSizeWarningBanner(m.width, m.height))
	b.WriteString(styles.TitleStyle.Render("⚠️  Confirm Deletion"))
	b.WriteString("\n\n")

	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to delete %d files (%s) from %d groups",
		m.files, utils.FormatBytes(m.bytes), len(m.selections))))
	b.WriteString("\n\n")

	pathWidth := max(m.width-12, 30)
	listed := 0
	for _, s := range m.selections {
		for _, f := range s.Victims() {
			if listed == maxListedVictims {
				break
			}
			b.WriteString("  " + styles.DeleteStyle.Render(uiutils.TruncatePath(f.Path, pathWidth)) + "\n")
			listed++
		}
	}
	if m.files > listed {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more", m.files-listed)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	riskText, riskStyle, riskIcon := m.getRiskDisplay()
	b.WriteString(fmt.Sprintf("Risk Level: %s %s\n", riskIcon, riskStyle(riskText)))

	b.WriteString("\n")
	if m.dryRun {
		b.WriteString(styles.InfoStyle.Render("Dry run: nothing will be removed from disk."))
	} else {
		b.WriteString(styles.WarningStyle.Render("⚠️  This action cannot be undone!"))
	}
	b.WriteString("\n\n")

	buttons := []string{"[ Yes, delete ]", "[ Review ]", "[ Cancel ]"}
	buttons[m.cursor] = styles.HighlightStyle.Render(buttons[m.cursor])
	b.WriteString(strings.Join(buttons, "  "))
	b.WriteString("\n\n")

	helpText := "y:confirm  e:edit  n:cancel  ←/→:navigate"
	if m.width < 60 {
		helpText = "y:yes  e:edit  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

// getRiskDisplay returns the display text, style render function, and icon for the current risk level
func (m *ConfirmViewModel) getRiskDisplay() (string, func(...string) string, string) {
	switch m.riskLevel {
	case RiskHigh:
		return "HIGH (many files or a large volume)", styles.ErrorStyle.Render, "🔴"
	case RiskMedium:
		return "MEDIUM", styles.WarningStyle.Render, "⚠️"
	default:
		return "LOW", styles.SuccessStyle.Render, "✓"
	}
}
