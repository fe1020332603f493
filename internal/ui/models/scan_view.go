package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/ui/styles"
	uiutils "github.com/fenilsonani/reclaim/internal/ui/utils"
)

// ScanViewModel shows a running scan
type ScanViewModel struct {
	root      string
	spinner   spinner.Model
	bar       progress.Model
	snap      *dupes.Snapshot
	startTime time.Time
	width     int
	height    int
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel(root string, width, height int) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 50

	return &ScanViewModel{
		root:      root,
		spinner:   s,
		bar:       bar,
		startTime: time.Now(),
		width:     width,
		height:    height,
	}
}

// Init initializes the scan view
func (m *ScanViewModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSnapshot updates the rendered state
func (m *ScanViewModel) SetSnapshot(snap *dupes.Snapshot) {
	m.snap = snap
	if snap.Root != "" {
		m.root = snap.Root
	}
	if !snap.StartedAt.IsZero() {
		m.startTime = snap.StartedAt
	}
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "c", "esc":
			if m.scanning() {
				return m, func() tea.Msg { return CancelScanMsg{} }
			}
		case "r":
			if m.snap != nil && m.snap.State == dupes.StateFailed {
				return m, func() tea.Msg { return RescanMsg{} }
			}
		}
	}

	return m, nil
}

func (m *ScanViewModel) scanning() bool {
	return m.snap == nil || m.snap.State == dupes.StateIdle || m.snap.State == dupes.StateScanning
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(uiutils.GetSizeWarningBanner(m.width, m.height))
	b.WriteString(styles.TitleStyle.Render("🔍 Scanning for duplicates"))
	b.WriteString("\n\n")
	b.WriteString(styles.DimStyle.Render("Root: "))
	b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.root, 70)))
	b.WriteString("\n\n")

	if m.snap != nil && m.snap.State == dupes.StateFailed {
		b.WriteString(styles.ErrorStyle.Render("✗ Scan failed"))
		b.WriteString("\n")
		if m.snap.Err != nil {
			b.WriteString(m.snap.Err.Error())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("r:retry  q:quit"))
		return b.String()
	}

	fraction, seen, hashed := 0.0, 0, 0
	if m.snap != nil {
		fraction, seen, hashed = m.snap.Progress, m.snap.FilesSeen, m.snap.FilesHashed
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" Hashing files... ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(fraction))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s files seen, %s hashed\n",
		styles.BoldStyle.Render(fmt.Sprintf("%d", seen)),
		styles.BoldStyle.Render(fmt.Sprintf("%d", hashed))))

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("c:stop and review  ?:help  q:quit"))
	return b.String()
}
