package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/gridengine/pkg/grid"
)

func submitLine(t *testing.T, m EditorModel, line string) (EditorModel, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(EditorModel), cmd
}

func TestEditorAppliesCommands(t *testing.T) {
	m := NewEditorModel(grid.New(4, 4), 1)

	m, _ = submitLine(t, m, "add a 0 0 2 2")
	m, _ = submitLine(t, m, "add b 0 0 2 1")

	n, ok := m.Engine.Node("a")
	if !ok || n.Y != 1 {
		t.Fatalf("a = %v, %v; want pushed to y=1", n, ok)
	}
	if len(m.history) != 2 || m.history[1].failed {
		t.Fatalf("history = %+v", m.history)
	}
	if !m.changed["a"] || !m.changed["b"] {
		t.Errorf("changed = %v, want a and b", m.changed)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
}

func TestEditorRecordsErrors(t *testing.T) {
	m := NewEditorModel(grid.New(4, 4), 1)

	m, _ = submitLine(t, m, "mv ghost 1 1")
	m, _ = submitLine(t, m, "add x 3 0 2 1")
	m, _ = submitLine(t, m, "jump a")

	if len(m.history) != 3 {
		t.Fatalf("history = %+v", m.history)
	}
	for _, h := range m.history {
		if !h.failed {
			t.Errorf("%q should have failed: %s", h.input, h.result)
		}
	}
	if m.Engine.Len() != 0 {
		t.Errorf("engine has %d items, want 0", m.Engine.Len())
	}
}

func TestEditorHistoryIsBounded(t *testing.T) {
	m := NewEditorModel(grid.New(4, 4), 1)
	for range historySize + 3 {
		m, _ = submitLine(t, m, "rm nothing")
	}
	if len(m.history) != historySize {
		t.Errorf("history length = %d, want %d", len(m.history), historySize)
	}
}

func TestEditorBlankLineIsIgnored(t *testing.T) {
	m := NewEditorModel(grid.New(4, 4), 1)
	m, _ = submitLine(t, m, "   ")
	if len(m.history) != 0 {
		t.Errorf("history = %+v, want empty", m.history)
	}
}

func TestEditorQuit(t *testing.T) {
	m := NewEditorModel(grid.New(2, 2), 1)
	_, cmd := submitLine(t, m, "quit")
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit should produce tea.QuitMsg")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should produce tea.QuitMsg")
	}
}

func TestEditorView(t *testing.T) {
	m := NewEditorModel(grid.New(3, 3), 1)
	m, _ = submitLine(t, m, "add a 0 0 1 1")

	view := m.View()
	for _, want := range []string{"Grid Editor", "1 items", "add a 0 0 1 1", "[a]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
