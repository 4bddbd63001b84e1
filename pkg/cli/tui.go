package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Error   lipgloss.Color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Error:   lipgloss.Color("#ff5f5f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Fail   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Fail:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// Check is one line of a readiness report.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report renders a titled list of checks inside a rounded box:
//
//	╭──────────────────────────────╮
//	│ kittentts                    │
//	│ ✓ model     kitten.onnx      │
//	│ ✗ espeak-ng not in PATH      │
//	╰──────────────────────────────╯
type Report struct {
	Styles Styles
	Title  string
	Checks []Check
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Render renders the report.
func (r Report) Render() string {
	nameWidth := 0
	for _, c := range r.Checks {
		nameWidth = max(nameWidth, lipgloss.Width(c.Name))
	}

	lines := []string{r.Styles.Title.Render(r.Title)}
	for _, c := range r.Checks {
		mark := r.Styles.Label.Render("✓")
		if !c.OK {
			mark = r.Styles.Fail.Render("✗")
		}
		name := c.Name + strings.Repeat(" ", nameWidth-lipgloss.Width(c.Name))
		lines = append(lines, mark+" "+name+"  "+r.Styles.Help.Render(c.Detail))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(r.borderColor()).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (r Report) borderColor() lipgloss.TerminalColor {
	if r.OK() {
		return r.Styles.Border.GetForeground()
	}
	return r.Styles.Fail.GetForeground()
}
