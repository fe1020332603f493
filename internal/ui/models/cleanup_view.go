package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/reclaim/internal/ui/styles"
	uiutils "github.com/fenilsonani/reclaim/internal/ui/utils"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

// ResolveResult accumulates the outcome of resolving several groups
type ResolveResult struct {
	GroupsResolved int
	DeletedFiles   []string
	FreedBytes     int64
	Errors         []error
	DryRun         bool
}

// groupResolvedMsg reports one finished ResolveGroup call
type groupResolvedMsg struct {
	index   int
	deleted []string
	err     error
}

// CleanupViewModel resolves the confirmed groups one at a time
type CleanupViewModel struct {
	ctx        context.Context
	coord      Coordinator
	selections []Selection
	next       int
	result     *ResolveResult
	spinner    spinner.Model
	width      int
}

// NewCleanupViewModel creates a new cleanup view model
func NewCleanupViewModel(ctx context.Context, coord Coordinator, selections []Selection, dryRun bool, width int) *CleanupViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &CleanupViewModel{
		ctx:        ctx,
		coord:      coord,
		selections: selections,
		result:     &ResolveResult{DeletedFiles: []string{}, DryRun: dryRun},
		spinner:    s,
		width:      width,
	}
}

// Init starts resolving the first group
func (m *CleanupViewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.resolveNext())
}

// resolveNext resolves the next pending group, or reports completion
func (m *CleanupViewModel) resolveNext() tea.Cmd {
	if m.next >= len(m.selections) {
		result := m.result
		return func() tea.Msg { return CleanupCompleteMsg{Result: result} }
	}

	index := m.next
	sel := m.selections[index]
	return func() tea.Msg {
		deleted, err := m.coord.ResolveGroup(m.ctx, sel.Group.Digest, sel.KeepPath())
		return groupResolvedMsg{index: index, deleted: deleted, err: err}
	}
}

// Update handles messages
func (m *CleanupViewModel) Update(msg tea.Msg) (*CleanupViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case groupResolvedMsg:
		sel := m.selections[msg.index]
		m.result.DeletedFiles = append(m.result.DeletedFiles, msg.deleted...)
		m.result.FreedBytes += sel.Group.Size * int64(len(msg.deleted))
		if msg.err != nil {
			m.result.Errors = append(m.result.Errors, msg.err)
		} else {
			m.result.GroupsResolved++
		}

		m.next = msg.index + 1
		return m, m.resolveNext()
	}

	return m, nil
}

// View renders the cleanup view
func (m *CleanupViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🧹 Resolving duplicates"))
	b.WriteString("\n\n")

	total := len(m.selections)
	fraction := 1.0
	if total > 0 {
		fraction = float64(m.next) / float64(total)
	}

	b.WriteString(m.spinner.View())
	b.WriteString(fmt.Sprintf(" %d/%d groups  ", m.next, total))
	b.WriteString(styles.FileSizeStyle.Render(utils.FormatBytes(m.result.FreedBytes) + " freed"))
	b.WriteString("\n\n")
	b.WriteString(styles.ProgressBar(fraction, 40))
	b.WriteString("\n\n")

	if m.next < total {
		b.WriteString(styles.DimStyle.Render("Keeping "))
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.selections[m.next].KeepPath(), max(m.width-10, 30))))
		b.WriteString("\n")
	}

	return b.String()
}
