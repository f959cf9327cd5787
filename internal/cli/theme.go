package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	Green  = lipgloss.Color("#00C832")
	Red    = lipgloss.Color("#FF5F56")
	Cyan   = lipgloss.Color("#00D4AA")
	Amber  = lipgloss.Color("#FFB000")
	Silver = lipgloss.Color("#AAAAAA")
)

// styles are bound to one renderer so colour is only emitted when the output
// is a terminal.
type styles struct {
	title   lipgloss.Style
	prompt  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:   r.NewStyle().Foreground(Cyan).Bold(true),
		prompt:  r.NewStyle().Foreground(Amber),
		success: r.NewStyle().Foreground(Green),
		failure: r.NewStyle().Foreground(Red),
		heading: r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(Silver),
	}
}
