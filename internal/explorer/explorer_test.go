package explorer

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsontree/internal/models"
	"github.com/mcncl/jsontree/internal/parser"
	"github.com/mcncl/jsontree/internal/pathmatch"
	"github.com/mcncl/jsontree/internal/tree"
)

func newModel(t *testing.T, input string) Model {
	t.Helper()
	v, err := parser.ParseString(input)
	require.NoError(t, err)
	return New(tree.Build(v))
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func typeText(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func highlightedIDs(nodes []models.TreeNode) []string {
	var ids []string
	for _, n := range nodes {
		if n.Highlighted {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func TestUpdate_TypingSearches(t *testing.T) {
	m := newModel(t, `{"user":{"name":"John"},"items":[1,2]}`)

	m, cmd := send(m, typeText("user"), typeText(".name"))
	assert.Nil(t, cmd)
	assert.Equal(t, "user.name", m.Query)
	require.NotNil(t, m.Match)
	assert.Equal(t, "$.user.name", m.Match.JSONPath)
	assert.Equal(t, pathmatch.TierExact, m.Tier)
	assert.Equal(t, []string{m.Match.ID}, highlightedIDs(m.nodes))
	assert.Equal(t, "Match found: $.user.name (exact)", m.Status())
}

func TestUpdate_NoMatch(t *testing.T) {
	m := newModel(t, `{"user":{"name":"John"}}`)

	m, _ = send(m, typeText("zzz"))
	assert.Nil(t, m.Match)
	assert.Equal(t, pathmatch.TierNone, m.Tier)
	assert.Empty(t, highlightedIDs(m.nodes))
	assert.Equal(t, "No match found", m.Status())
	assert.Contains(t, m.View(), "No match found")
}

func TestUpdate_BackspaceAndClear(t *testing.T) {
	m := newModel(t, `{"ab":1,"a":2}`)

	m, _ = send(m, typeText("ab"))
	require.NotNil(t, m.Match)
	assert.Equal(t, "$.ab", m.Match.JSONPath)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "a", m.Query)
	require.NotNil(t, m.Match)
	assert.Equal(t, "$.a", m.Match.JSONPath)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Empty(t, m.Query)
	assert.Nil(t, m.Match)
	assert.Empty(t, highlightedIDs(m.nodes))
	assert.Empty(t, m.Status())
}

func TestUpdate_BackspaceOnEmptyQuery(t *testing.T) {
	m := newModel(t, `[1]`)

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Nil(t, cmd)
	assert.Empty(t, m.Query)
}

func TestUpdate_EnterSelectsMatch(t *testing.T) {
	m := newModel(t, `{"user":{"name":"John"}}`)

	_, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "enter without a match does nothing")

	m, cmd = send(m, typeText("user.name"), tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.Selected)
	assert.Equal(t, "$.user.name", m.Selected.JSONPath)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_Quit(t *testing.T) {
	m := newModel(t, `[1]`)

	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		_, cmd := send(m, tea.KeyMsg{Type: key})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestUpdate_Scrolling(t *testing.T) {
	items := make([]string, 30)
	for i := range items {
		items[i] = fmt.Sprint(i)
	}
	m := newModel(t, "["+strings.Join(items, ",")+"]")
	m, _ = send(m, tea.WindowSizeMsg{Width: 80, Height: 16})
	require.Equal(t, 10, m.Height)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.Offset)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.Offset)

	for range 50 {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 31-10, m.Offset, "31 lines, 10 visible")
}

func TestSearch_ScrollsMatchIntoView(t *testing.T) {
	items := make([]string, 30)
	for i := range items {
		items[i] = fmt.Sprint(i)
	}
	m := newModel(t, "["+strings.Join(items, ",")+"]")
	m, _ = send(m, tea.WindowSizeMsg{Width: 80, Height: 16})

	m, _ = send(m, typeText("[25]"))
	require.NotNil(t, m.Match)
	assert.Equal(t, "$[25]", m.Match.JSONPath)
	// $[25] is node 26 and becomes the last visible line.
	assert.Equal(t, 17, m.Offset)
	assert.Contains(t, m.View(), "($[25])")
}

func TestWindowSize_MinimumHeight(t *testing.T) {
	m := newModel(t, `[1]`)

	m, _ = send(m, tea.WindowSizeMsg{Width: 80, Height: 3})
	assert.Equal(t, minHeight, m.Height)
}

func TestView(t *testing.T) {
	m := newModel(t, `{"user":{"name":"John"}}`)
	m, _ = send(m, typeText("user"))

	view := m.View()
	assert.Contains(t, view, "JSON Tree Explorer")
	assert.Contains(t, view, "Search: user")
	assert.Contains(t, view, "Match found: $.user (exact)")
	assert.Contains(t, view, "user {1}")
	assert.Contains(t, view, `    name: "John"`)
	assert.Contains(t, view, "[1-3/3]")
}
