package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	record   lipgloss.Style
	mode     lipgloss.Style
	detail   lipgloss.Style
	warning  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
	key      lipgloss.Style
	pathMark lipgloss.Style
	ok       lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		record:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		mode:     lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
		key:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		pathMark: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		ok:       lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	}
}
