package cli

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridengine/pkg/grid"
	"github.com/matzehuels/gridengine/pkg/render/text"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// itemColors are assigned to items by id hash.
var itemColors = []lipgloss.Color{"39", "78", "170", "214", "141", "203", "45", "186"}

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleMoved       = lipgloss.NewStyle().Bold(true).Underline(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func (c *CLI) stdout() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stdout
}

func (c *CLI) printSuccess(format string, args ...any) {
	fmt.Fprintln(c.stdout(), styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printError(format string, args ...any) {
	fmt.Fprintln(c.stdout(), styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printInfo(format string, args ...any) {
	fmt.Fprintln(c.stdout(), styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printDetail(format string, args ...any) {
	fmt.Fprintln(c.stdout(), "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printFile(path string) {
	fmt.Fprintln(c.stdout(), "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func (c *CLI) printKeyValue(key, value string) {
	fmt.Fprintln(c.stdout(), styleKey.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Grid Output
// =============================================================================

// itemStyle returns the colour style for an item id.
func itemStyle(id string) lipgloss.Style {
	h := fnv.New32a()
	h.Write([]byte(id))
	return lipgloss.NewStyle().Foreground(itemColors[h.Sum32()%uint32(len(itemColors))])
}

// styledGrid renders v with one colour per item. Items in changed are
// emphasised so the last step's effect stands out.
func styledGrid(v grid.View, cellSpace int, changed map[string]bool) string {
	return text.Render(v, text.Options{
		CellSpace: cellSpace,
		Style: func(cell grid.Cell, s string) string {
			if cell.ID == "" {
				return StyleDim.Render(s)
			}
			st := itemStyle(cell.ID)
			if changed[cell.ID] {
				st = st.Inherit(styleMoved)
			}
			return st.Render(s)
		},
	})
}

// changedIDs returns the ids touched by cs.
func changedIDs(cs grid.ChangeSet) map[string]bool {
	ids := make(map[string]bool, cs.Len())
	for _, id := range cs.IDs() {
		ids[id] = true
	}
	return ids
}
