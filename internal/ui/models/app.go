package models

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/ui/styles"
)

// Coordinator is the part of dupes.Coordinator the TUI drives
type Coordinator interface {
	Snapshot() *dupes.Snapshot
	StartScan(root string) error
	Cancel() error
	ResolveGroup(ctx context.Context, digest, keepPath string) ([]string, error)
}

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewGroups
	ViewConfirmation
	ViewCleaning
	ViewSummary
	ViewHelp
)

// AppModel is the root model for the interactive TUI. Every state change
// goes through the coordinator; the model only renders published snapshots.
type AppModel struct {
	state         ViewState
	previousState ViewState // For back navigation

	ctx      context.Context
	coord    Coordinator
	root     string
	dryRun   bool
	snapshot *dupes.Snapshot

	scanView    *ScanViewModel
	groupsView  *GroupsViewModel
	confirmView *ConfirmViewModel
	cleanupView *CleanupViewModel
	summaryView *SummaryViewModel

	width  int
	height int
	err    error
}

// NewAppModel creates a new app model that scans root on start
func NewAppModel(ctx context.Context, coord Coordinator, root string, dryRun bool) *AppModel {
	return &AppModel{
		state:  ViewScanning,
		ctx:    ctx,
		coord:  coord,
		root:   root,
		dryRun: dryRun,
	}
}

// Init starts the scan and begins following snapshots
func (m *AppModel) Init() tea.Cmd {
	m.snapshot = m.coord.Snapshot()
	m.scanView = NewScanViewModel(m.root, m.width, m.height)
	return tea.Batch(
		m.scanView.Init(),
		m.startScan(),
		waitForSnapshot(m.ctx, m.coord, m.snapshot),
	)
}

// waitForSnapshot delivers the next published snapshot after snap
func waitForSnapshot(ctx context.Context, coord Coordinator, snap *dupes.Snapshot) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-snap.Superseded():
			return SnapshotMsg{Snapshot: coord.Snapshot()}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *AppModel) startScan() tea.Cmd {
	return func() tea.Msg {
		if err := m.coord.StartScan(m.root); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

func (m *AppModel) cancelScan() tea.Cmd {
	return func() tea.Msg {
		if err := m.coord.Cancel(); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == ViewHelp {
			m.state = m.previousState
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			// Deletions in flight finish before quitting
			if m.state != ViewCleaning {
				return m, tea.Quit
			}
		case "?":
			if m.state != ViewCleaning {
				m.previousState = m.state
				m.state = ViewHelp
				return m, nil
			}
		case "esc":
			if m.state == ViewConfirmation {
				m.state = ViewGroups
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case SnapshotMsg:
		return m, tea.Batch(m.applySnapshot(msg.Snapshot), waitForSnapshot(m.ctx, m.coord, msg.Snapshot))

	case ErrMsg:
		m.err = msg.Err
		return m, nil

	case RescanMsg:
		return m, m.startScan()

	case CancelScanMsg:
		return m, m.cancelScan()

	case GroupsSelectedMsg:
		m.confirmView = NewConfirmViewModel(msg.Selections, m.dryRun, m.width, m.height)
		m.state = ViewConfirmation
		return m, nil

	case ConfirmedMsg:
		m.cleanupView = NewCleanupViewModel(m.ctx, m.coord, m.confirmView.selections, m.dryRun, m.width)
		m.state = ViewCleaning
		return m, m.cleanupView.Init()

	case ReviewSelectionMsg:
		m.state = ViewGroups
		return m, nil

	case CancelSelectionMsg:
		if m.groupsView != nil {
			m.groupsView.ClearSelection()
		}
		m.state = ViewGroups
		return m, nil

	case CleanupCompleteMsg:
		remaining := 0
		if m.snapshot != nil {
			remaining = len(m.snapshot.Groups)
		}
		m.summaryView = NewSummaryViewModel(msg.Result, remaining)
		m.state = ViewSummary
		return m, nil
	}

	return m.delegateUpdate(msg)
}

// applySnapshot moves between views as the coordinator state changes
func (m *AppModel) applySnapshot(snap *dupes.Snapshot) tea.Cmd {
	m.snapshot = snap

	if snap.State == dupes.StateScanning && m.state != ViewScanning {
		m.scanView = NewScanViewModel(snap.Root, m.width, m.height)
		m.state = ViewScanning
		m.scanView.SetSnapshot(snap)
		return m.scanView.Init()
	}

	if m.scanView != nil {
		m.scanView.SetSnapshot(snap)
	}

	switch snap.State {
	case dupes.StateCompleted, dupes.StateCancelled:
		if m.groupsView == nil {
			m.groupsView = NewGroupsViewModel(snap.Root, m.width, m.height)
		}
		m.groupsView.SetGroups(snap.Groups)
		if m.state == ViewScanning {
			m.state = ViewGroups
		}
	}
	return nil
}

// delegateUpdate delegates the update to the current view
func (m *AppModel) delegateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewGroups:
		if m.groupsView != nil {
			m.groupsView, cmd = m.groupsView.Update(msg)
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			m.cleanupView, cmd = m.cleanupView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, cmd
}

// View renders the current view
func (m *AppModel) View() string {
	if m.err != nil {
		return styles.ErrorStyle.Render("Error: "+m.err.Error()) + "\n\nPress q to quit."
	}

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewGroups:
		if m.groupsView != nil {
			return m.groupsView.View()
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			return m.cleanupView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// State returns the current view
func (m *AppModel) State() ViewState {
	return m.state
}

// renderHelp renders the help view for the view it was opened from
func (m *AppModel) renderHelp() string {
	var viewName, helpContent string

	switch m.previousState {
	case ViewScanning:
		viewName = "Scan"
		helpContent = helpScan
	case ViewGroups:
		viewName = "Duplicate Groups"
		helpContent = helpGroups
	case ViewConfirmation:
		viewName = "Confirmation"
		helpContent = helpConfirm
	case ViewSummary:
		viewName = "Summary"
		helpContent = helpSummary
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Help - %s", viewName)))
	b.WriteString("\n\n")
	b.WriteString(helpContent)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))
	return b.String()
}

const helpScan = `Hashing every file under the scan root to find identical copies.

Actions:
  c/esc   - Stop the scan and review what was found so far
  r       - Retry after a failed scan
  q       - Quit`

const helpGroups = `Each row is a set of files with identical content.

Navigation               Selection
  ↑/k     Move up          space    Toggle group
  ↓/j     Move down        a        Select all
  g       Top              d        Deselect all
  G       Bottom           tab/→    Next copy to keep
                           ⇧tab/←   Previous copy to keep
Actions
  enter   Resolve selected groups (or the one under the cursor)
  r       Rescan
  q       Quit

Resolving a group deletes every copy except the one marked keep.`

const helpConfirm = `Review the files about to be deleted.

  ←/→/h/l - Switch between buttons
  y       - Yes, delete
  e       - Back to the list, keeping the selection
  n       - Back to the list, clearing the selection

Deleted files cannot be recovered!`

const helpSummary = `Resolution finished.

  b/esc   - Back to the remaining groups
  q/enter - Exit`

// SnapshotMsg carries a newly published coordinator snapshot
type SnapshotMsg struct {
	Snapshot *dupes.Snapshot
}

// ErrMsg reports a coordinator failure
type ErrMsg struct {
	Err error
}

// Selection is a group chosen for resolution and the member to keep
type Selection struct {
	Group dupes.Group
	Keep  int
}

// KeepPath is the path of the member that survives
func (s Selection) KeepPath() string {
	return s.Group.Files[s.Keep].Path
}

// Victims are the members a resolution deletes
func (s Selection) Victims() []dupes.FileRecord {
	victims := make([]dupes.FileRecord, 0, len(s.Group.Files)-1)
	for i, f := range s.Group.Files {
		if i != s.Keep {
			victims = append(victims, f)
		}
	}
	return victims
}

type RescanMsg struct{}

type CancelScanMsg struct{}

type GroupsSelectedMsg struct {
	Selections []Selection
}

type ConfirmedMsg struct{}

type ReviewSelectionMsg struct{}

type CancelSelectionMsg struct{}

type CleanupCompleteMsg struct {
	Result *ResolveResult
}
