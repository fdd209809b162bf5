package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridengine/pkg/grid"
	"github.com/matzehuels/gridengine/pkg/script"
)

// historySize is the number of past commands shown under the grid.
const historySize = 6

var (
	styleHistoryOK  = lipgloss.NewStyle().Foreground(colorGray)
	styleHistoryErr = lipgloss.NewStyle().Foreground(colorRed)
	styleFrame      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// historyEntry is one submitted command and its outcome.
type historyEntry struct {
	input  string
	result string
	failed bool
}

// EditorModel is the bubbletea model of the interactive grid editor.
// Commands use the script syntax (add/mv/rm); "quit" leaves the editor.
type EditorModel struct {
	Engine    *grid.Engine
	CellSpace int

	input   textinput.Model
	history []historyEntry
	changed map[string]bool
	width   int
}

// NewEditorModel creates an editor for e.
func NewEditorModel(e *grid.Engine, cellSpace int) EditorModel {
	ti := textinput.New()
	ti.Placeholder = "add a 0 0 2 2 · mv a 1 3 · rm a · quit"
	ti.Prompt = "› "
	ti.CharLimit = 128
	ti.Width = 48
	ti.Focus()

	return EditorModel{Engine: e, CellSpace: cellSpace, input: ti}
}

func (m EditorModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "quit" || line == "exit" {
				return m, tea.Quit
			}
			m = m.submit(line)
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit applies one command line and records the outcome.
func (m EditorModel) submit(line string) EditorModel {
	cmd, ok, err := script.ParseLine(line)
	if !ok && err == nil {
		return m
	}
	if err == nil {
		var cs grid.ChangeSet
		id := m.Engine.AddListener(func(c grid.ChangeSet) { cs = c })
		err = cmd.Apply(m.Engine)
		m.Engine.RemoveListener(id)
		if err == nil {
			m.changed = changedIDs(cs)
			m.history = append(m.history, historyEntry{input: line, result: cs.String()})
		}
	}
	if err != nil {
		m.changed = nil
		m.history = append(m.history, historyEntry{input: line, result: err.Error(), failed: true})
	}
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
	return m
}

func (m EditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Grid Editor"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d items · %d×%d", m.Engine.Len(), m.Engine.Grid().Cols(), m.Engine.Grid().Rows())))
	b.WriteString("\n\n")
	b.WriteString(styleFrame.Render(strings.TrimSuffix(styledGrid(m.Engine.Grid(), m.CellSpace, m.changed), "\n")))
	b.WriteString("\n\n")

	for _, h := range m.history {
		style := styleHistoryOK
		if h.failed {
			style = styleHistoryErr
		}
		b.WriteString(StyleValue.Render(h.input) + " " + style.Render(h.result) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("enter: run  esc: quit"))
	return b.String()
}

// tuiCommand opens the interactive editor.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		rows, cols int
		load       string
		save, out  string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit a grid interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rows") {
				rows = cfg.Grid.Rows
			}
			if !cmd.Flags().Changed("cols") {
				cols = cfg.Grid.Cols
			}

			e := grid.New(rows, cols)
			if load != "" {
				layouts, closeStore, err := c.openLayouts(ctx)
				if err != nil {
					return err
				}
				e, err = layouts.Load(ctx, load)
				closeStore()
				if err != nil {
					return err
				}
				if save == "" {
					save = load
				}
			}

			final, err := tea.NewProgram(NewEditorModel(e, cfg.Grid.CellSpace), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			return c.finishLayout(ctx, final.(EditorModel).Engine, save, out)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 10, "initial rows (default from config)")
	cmd.Flags().IntVar(&cols, "cols", 12, "columns (default from config)")
	cmd.Flags().StringVar(&load, "load", "", "start from a saved layout (saved back on exit unless --save is given)")
	cmd.Flags().StringVar(&save, "save", "", "save the layout to the store on exit")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the layout as JSON on exit")

	return cmd
}
