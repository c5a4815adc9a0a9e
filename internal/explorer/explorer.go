// Package explorer is an interactive terminal view of a tree: the outline is
// shown below a search line, and every edit of the search re-runs the path
// matcher and highlights the result.
package explorer

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcncl/jsontree/internal/models"
	"github.com/mcncl/jsontree/internal/pathmatch"
	"github.com/mcncl/jsontree/internal/tree"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorWhite = lipgloss.Color("255")
	colorDim   = lipgloss.Color("240")

	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim       = lipgloss.NewStyle().Foreground(colorDim)
	styleFound     = lipgloss.NewStyle().Foreground(colorGreen)
	styleNotFound  = lipgloss.NewStyle().Foreground(colorRed)
	styleNode      = lipgloss.NewStyle().Foreground(colorWhite)
	styleHighlight = lipgloss.NewStyle().Bold(true).Reverse(true)
)

const (
	defaultHeight = 20
	minHeight     = 5
	// Lines used by the title, help, search and status rows.
	chromeLines = 6
)

// Model is the bubbletea model of the explorer.
type Model struct {
	Tree     models.Tree
	Query    string
	Match    *models.TreeNode
	Tier     pathmatch.Tier
	Selected *models.TreeNode
	Offset   int
	Height   int

	nodes   []models.TreeNode
	depths  []int
	matcher *pathmatch.Matcher
}

// New creates an explorer for t. The matcher is built once and reused for
// every keystroke.
func New(t models.Tree) Model {
	return Model{
		Tree:    t,
		Height:  defaultHeight,
		nodes:   tree.Highlight(t.Nodes, ""),
		depths:  t.Depths(),
		matcher: pathmatch.NewMatcher(t.Nodes),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.Match != nil {
				match := *m.Match
				m.Selected = &match
				return m, tea.Quit
			}
		case tea.KeyUp:
			if m.Offset > 0 {
				m.Offset--
			}
		case tea.KeyDown:
			if m.Offset < m.maxOffset() {
				m.Offset++
			}
		case tea.KeyBackspace:
			if r := []rune(m.Query); len(r) > 0 {
				m.Query = string(r[:len(r)-1])
				m.search()
			}
		case tea.KeyCtrlU:
			m.Query = ""
			m.search()
		case tea.KeySpace:
			m.Query += " "
			m.search()
		case tea.KeyRunes:
			m.Query += string(msg.Runes)
			m.search()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-chromeLines, minHeight)
		m.Offset = min(m.Offset, m.maxOffset())
	}
	return m, nil
}

// search re-runs the matcher for the current query. A blank query clears
// the highlight instead of matching.
func (m *Model) search() {
	if strings.TrimSpace(m.Query) == "" {
		m.Match = nil
		m.Tier = pathmatch.TierNone
		m.nodes = tree.Highlight(m.Tree.Nodes, "")
		return
	}

	node, tier := m.matcher.FindTier(m.Query)
	m.Tier = tier
	if tier == pathmatch.TierNone {
		m.Match = nil
		m.nodes = tree.Highlight(m.Tree.Nodes, "")
		return
	}

	m.Match = &node
	m.nodes = tree.Highlight(m.Tree.Nodes, node.ID)
	for i, n := range m.nodes {
		if n.ID == node.ID {
			m.scrollTo(i)
			break
		}
	}
}

// scrollTo moves the window so that line i is visible.
func (m *Model) scrollTo(i int) {
	if i < m.Offset {
		m.Offset = i
	} else if i >= m.Offset+m.Height {
		m.Offset = i - m.Height + 1
	}
}

func (m Model) maxOffset() int {
	return max(len(m.nodes)-m.Height, 0)
}

// Status is the line shown under the search box.
func (m Model) Status() string {
	switch {
	case strings.TrimSpace(m.Query) == "":
		return ""
	case m.Match != nil:
		return fmt.Sprintf("Match found: %s (%s)", m.Match.JSONPath, m.Tier)
	default:
		return "No match found"
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("JSON Tree Explorer"))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("type a path to search  ↑/↓ scroll  ⏎ select  esc quit"))
	b.WriteString("\n\n")
	b.WriteString("Search: " + m.Query + "█\n")

	switch status := m.Status(); {
	case status == "":
		b.WriteString("\n")
	case m.Match != nil:
		b.WriteString(styleFound.Render(status) + "\n")
	default:
		b.WriteString(styleNotFound.Render(status) + "\n")
	}
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(m.nodes))
	for i := m.Offset; i < end; i++ {
		n := m.nodes[i]
		var line string
		if n.Highlighted {
			line = styleHighlight.Render(n.Label + "  (" + n.JSONPath + ")")
		} else {
			line = styleNode.Render(n.Label) + "  " + styleDim.Render("("+n.JSONPath+")")
		}
		b.WriteString(strings.Repeat("  ", m.depths[i]) + line + "\n")
	}

	b.WriteString(styleDim.Render(fmt.Sprintf("  [%d-%d/%d]", min(m.Offset+1, end), end, len(m.nodes))))
	return b.String()
}

// Run starts the explorer on the terminal and returns the node selected with
// enter, or nil when the user quit without selecting.
func Run(t models.Tree, in io.Reader, out io.Writer) (*models.TreeNode, error) {
	p := tea.NewProgram(New(t), tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	fm, ok := finalModel.(Model)
	if !ok {
		return nil, nil
	}
	return fm.Selected, nil
}
