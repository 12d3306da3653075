package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#6B7280") // Gray
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorDanger    = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#9CA3AF") // Light gray
	ColorBlue      = lipgloss.Color("#3B82F6") // Blue
)

// Text styles
var (
	Bold      = lipgloss.NewStyle().Bold(true)
	Muted     = lipgloss.NewStyle().Foreground(ColorMuted)
	Primary   = lipgloss.NewStyle().Foreground(ColorPrimary)
	Success   = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning   = lipgloss.NewStyle().Foreground(ColorWarning)
	Danger    = lipgloss.NewStyle().Foreground(ColorDanger)
	Secondary = lipgloss.NewStyle().Foreground(ColorSecondary)
)

// ID style - distinctive for record IDs
var ID = lipgloss.NewStyle().
	Foreground(ColorPrimary).
	Bold(true)

// Title style
var Title = lipgloss.NewStyle().Bold(true)

// Author names
var Author = lipgloss.NewStyle().Foreground(ColorBlue)

// Header style for table headers
var Header = lipgloss.NewStyle().Foreground(ColorMuted)

// Genre tag style (for inline use in tables)
var Genre = lipgloss.NewStyle().
	Foreground(ColorSuccess)

// RenderGenres renders genre labels as a comma-separated list of tags.
func RenderGenres(genres []string) string {
	if len(genres) == 0 {
		return Muted.Render("-")
	}
	tags := make([]string, len(genres))
	for i, g := range genres {
		tags[i] = Genre.Render(g)
	}
	return strings.Join(tags, Muted.Render(", "))
}

// RenderBorn renders an optional birth year, with a dash when unknown.
func RenderBorn(born *int) string {
	if born == nil {
		return Muted.Render("-")
	}
	return strconv.Itoa(*born)
}

// Column is one column of a Table. Width 0 means unbounded.
type Column struct {
	Title string
	Width int
}

// Table renders rows of pre-styled cells under a muted header and rule.
func Table(cols []Column, rows [][]string) string {
	var b strings.Builder

	styles := make([]lipgloss.Style, len(cols))
	headers := make([]string, len(cols))
	ruleWidth := 0
	for i, c := range cols {
		styles[i] = lipgloss.NewStyle()
		if c.Width > 0 {
			styles[i] = styles[i].Width(c.Width)
			ruleWidth += c.Width
		} else {
			ruleWidth += 30
		}
		headers[i] = styles[i].Render(Header.Render(c.Title))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	b.WriteString("\n")
	b.WriteString(Muted.Render(strings.Repeat("─", ruleWidth)))
	b.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(cols))
		for i := range cols {
			if i < len(row) {
				cells[i] = styles[i].Render(row[i])
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

// Truncate shortens s to at most maxLen runes, marking the cut with an ellipsis.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
