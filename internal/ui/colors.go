package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = newPalette(paletteColors{
	title: "#FF0033",
	ok:    "#04B575",
	err:   "#FF5F5F",
	warn:  "#FFA500",
	help:  "#626262",
})

type paletteColors struct {
	title, ok, err, warn, help string
}

// palette holds the styles for titles, status lines and hints.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func newPalette(c paletteColors) *palette {
	return &palette{
		title: fg(c.title).Bold(true).MarginBottom(1),
		ok:    fg(c.ok).Bold(true),
		err:   fg(c.err).Bold(true),
		warn:  fg(c.warn),
		help:  fg(c.help).Italic(true),
	}
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
