package models

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/reclaim/internal/cleaner"
	"github.com/fenilsonani/reclaim/internal/ui/styles"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

// maxListedErrors caps the failures shown in the summary
const maxListedErrors = 5

// SummaryViewModel handles the summary/results view
type SummaryViewModel struct {
	result    *ResolveResult
	remaining int
}

// NewSummaryViewModel creates a new summary view model. remaining is the
// number of groups still listed.
func NewSummaryViewModel(result *ResolveResult, remaining int) *SummaryViewModel {
	return &SummaryViewModel{
		result:    result,
		remaining: remaining,
	}
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "enter":
			return m, tea.Quit
		case "b", "esc":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		}
	}

	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Resolution Summary"))
	b.WriteString("\n\n")

	if m.result != nil {
		verb := "Deleted"
		if m.result.DryRun {
			verb = "Would delete"
		}
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ %s %d files from %d groups",
			verb, len(m.result.DeletedFiles), m.result.GroupsResolved)))
		b.WriteString("\n")
		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Space freed: %s", utils.FormatBytes(m.result.FreedBytes))))
		b.WriteString("\n\n")

		if len(m.result.Errors) > 0 {
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d groups could not be fully resolved", len(m.result.Errors))))
			b.WriteString("\n")
			for i, err := range m.result.Errors {
				if i == maxListedErrors {
					b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more", len(m.result.Errors)-i)))
					b.WriteString("\n")
					break
				}
				b.WriteString("  " + describeError(err) + "\n")
			}
			b.WriteString("\n")
		}

		if m.result.DryRun {
			b.WriteString(styles.InfoStyle.Render("Note: This was a dry run. No files were actually deleted."))
			b.WriteString("\n\n")
		}
	}

	help := "q/enter:exit"
	if m.remaining > 0 {
		help = fmt.Sprintf("b:back to %d remaining groups  ", m.remaining) + help
	}
	b.WriteString(styles.HelpStyle.Render(help))

	return b.String()
}

func describeError(err error) string {
	var delErr *cleaner.DeletionError
	if errors.As(err, &delErr) {
		return delErr.UserMessage()
	}
	return err.Error()
}
