package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme defines the colour palette for command output.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success marks passing scores.
	Success lipgloss.Color

	// Warning marks partial scores and warnings.
	Warning lipgloss.Color

	// Error marks failing scores and issues.
	Error lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
	}
}

// Score bands for colouring.
const (
	goodScore    = 0.8
	partialScore = 0.5
)

// Styles renders command output. Plain styles never emit escape codes.
type Styles struct {
	plain bool

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme, plain bool) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		plain:    plain,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Success:  lipgloss.NewStyle().Foreground(theme.Success),
		Warning:  lipgloss.NewStyle().Foreground(theme.Warning),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(theme.Error),
	}
}

// stylesFor returns coloured styles when w is a terminal.
func stylesFor(w io.Writer) *Styles {
	return NewStyles(DefaultTheme(), !isTerminal(w))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Render applies style unless output is plain.
func (s *Styles) Render(style lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return style.Render(text)
}

// Score renders a score as a percentage coloured by band.
func (s *Styles) Score(score float64, inconclusive bool) string {
	if inconclusive {
		return s.Render(s.Muted, "n/a")
	}
	text := formatPercent(score)
	switch {
	case score >= goodScore:
		return s.Render(s.Success, text)
	case score >= partialScore:
		return s.Render(s.Warning, text)
	default:
		return s.Render(s.Error, text)
	}
}
