package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/reclaim/internal/dupes"
	"github.com/fenilsonani/reclaim/internal/ui/components"
	"github.com/fenilsonani/reclaim/internal/ui/styles"
	uiutils "github.com/fenilsonani/reclaim/internal/ui/utils"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

// rows taken by the title, totals, detail panel and status bar
const groupsReservedLines = 20

// GroupsViewModel lists duplicate groups and lets the user choose which
// groups to resolve and which copy of each to keep
type GroupsViewModel struct {
	root     string
	groups   []dupes.Group
	selected map[string]bool // by digest
	keep     map[string]int  // by digest; absent means the first member
	cursor   int
	width    int
	height   int

	panel  *components.InfoPanel
	status *components.StatusBar
}

// NewGroupsViewModel creates an empty groups view
func NewGroupsViewModel(root string, width, height int) *GroupsViewModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	status := components.NewStatusBar("Duplicates")
	status.SetShortcuts(
		components.Shortcut{Key: "space", Desc: "select"},
		components.Shortcut{Key: "tab", Desc: "keep"},
		components.Shortcut{Key: "enter", Desc: "resolve"},
		components.Shortcut{Key: "r", Desc: "rescan"},
		components.Shortcut{Key: "?", Desc: "help"},
		components.Shortcut{Key: "q", Desc: "quit"},
	)

	return &GroupsViewModel{
		root:     root,
		selected: make(map[string]bool),
		keep:     make(map[string]int),
		width:    width,
		height:   height,
		panel:    components.NewInfoPanel(width),
		status:   status,
	}
}

// SetGroups replaces the listed groups. Selections and keep choices survive
// for groups that are still present.
func (m *GroupsViewModel) SetGroups(groups []dupes.Group) {
	m.groups = groups

	present := make(map[string]dupes.Group, len(groups))
	for _, g := range groups {
		present[g.Digest] = g
	}
	for digest := range m.selected {
		if _, ok := present[digest]; !ok {
			delete(m.selected, digest)
		}
	}
	for digest, idx := range m.keep {
		if g, ok := present[digest]; !ok || idx >= len(g.Files) {
			delete(m.keep, digest)
		}
	}

	m.cursor = max(min(m.cursor, len(groups)-1), 0)
}

// ClearSelection deselects every group
func (m *GroupsViewModel) ClearSelection() {
	clear(m.selected)
}

// Selections returns the selected groups in list order
func (m *GroupsViewModel) Selections() []Selection {
	var out []Selection
	for _, g := range m.groups {
		if m.selected[g.Digest] {
			out = append(out, Selection{Group: g, Keep: m.keep[g.Digest]})
		}
	}
	return out
}

// Update handles messages
func (m *GroupsViewModel) Update(msg tea.Msg) (*GroupsViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.panel.SetWidth(msg.Width)

	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, func() tea.Msg { return RescanMsg{} }
		}
		if len(m.groups) == 0 {
			return m, nil
		}

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.groups)-1 {
				m.cursor++
			}
		case "g", "home":
			m.cursor = 0
		case "G", "end":
			m.cursor = len(m.groups) - 1
		case " ":
			digest := m.groups[m.cursor].Digest
			if m.selected[digest] {
				delete(m.selected, digest)
			} else {
				m.selected[digest] = true
			}
		case "a":
			for _, g := range m.groups {
				m.selected[g.Digest] = true
			}
		case "d":
			m.ClearSelection()
		case "tab", "right", "l":
			m.cycleKeep(1)
		case "shift+tab", "left", "h":
			m.cycleKeep(-1)
		case "enter":
			if len(m.selected) == 0 {
				m.selected[m.groups[m.cursor].Digest] = true
			}
			selections := m.Selections()
			return m, func() tea.Msg { return GroupsSelectedMsg{Selections: selections} }
		}
	}

	return m, nil
}

// cycleKeep moves the keep marker of the group under the cursor
func (m *GroupsViewModel) cycleKeep(step int) {
	g := m.groups[m.cursor]
	n := len(g.Files)
	m.keep[g.Digest] = ((m.keep[g.Digest]+step)%n + n) % n
}

// View renders the groups view
func (m *GroupsViewModel) View() string {
	var b strings.Builder

	b.WriteString(uiutils.GetSizeWarningBanner(m.width, m.height))
	b.WriteString(styles.TitleStyle.Render("🗂  Duplicate Groups"))
	b.WriteString("\n")

	if len(m.groups) == 0 {
		b.WriteString(styles.SuccessStyle.Render("✓ No duplicates found"))
		b.WriteString(styles.DimStyle.Render(" under " + m.root))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("r:rescan  q:quit"))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s groups, %s reclaimable\n\n",
		styles.BoldStyle.Render(fmt.Sprintf("%d", len(m.groups))),
		styles.FileSizeStyle.Render(utils.FormatBytes(dupes.TotalWastedSpace(m.groups)))))

	pageSize := uiutils.CalculatePageSize(m.height, groupsReservedLines)
	start, end := uiutils.VisibleRange(m.cursor, len(m.groups), pageSize)
	pathWidth := max(m.width-40, 20)

	for i := start; i < end; i++ {
		g := m.groups[i]

		pointer := "  "
		if i == m.cursor {
			pointer = styles.SelectedStyle.Render("▸ ")
		}
		box := styles.UncheckedBox()
		if m.selected[g.Digest] {
			box = styles.CheckedBox()
		}

		keepPath := g.Files[m.keep[g.Digest]].Path
		line := fmt.Sprintf("%s %2d × %-10s %s",
			box,
			len(g.Files),
			utils.FormatBytes(g.Size),
			uiutils.TruncatePath(keepPath, pathWidth))
		if i == m.cursor {
			line = styles.SelectedStyle.Render(line)
		}

		b.WriteString(pointer + line + "\n")
	}
	if end < len(m.groups) {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... %d more", len(m.groups)-end)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	m.panel.SetGroup(m.groups[m.cursor], m.keep[m.groups[m.cursor].Digest])
	b.WriteString(m.panel.Render())
	b.WriteString("\n\n")

	var selectedWaste int64
	for _, s := range m.Selections() {
		selectedWaste += s.Group.WastedSpace()
	}
	m.status.SetSelection(len(m.selected), len(m.groups), selectedWaste)
	b.WriteString(m.status.Render(m.width))

	return b.String()
}
