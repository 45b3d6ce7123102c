package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const helpMarkdown = `# Memoria capture

Everything you type lands on the server as either a **memory** (a durable
note) or a **task** (a reminder with a due time).

Phrases the server understands:

- ` + "`in 20 minutes`, `in 2 hours`, `in 3 days`" + `
- ` + "`tomorrow`, `tomorrow at 3pm`, `tomorrow evening`" + `
- ` + "`today at 17:30`" + `
- ` + "`next friday`, `friday 9am`" + `
- ` + "`on march 5`, `on 2026-03-05 14:00`, `at 9pm`" + `

Prefixes like "remind me to", "remember that" and "note:" are stripped.
Use ` + "`@name`" + ` and ` + "`#topic`" + ` anywhere to tag the entry.

## Keys

| Key    | Action            |
|--------|-------------------|
| enter  | capture           |
| ctrl+h | toggle this help  |
| esc    | quit              |
`

func (m Model) View() string {
	if m.showHelp {
		return renderMarkdown(helpMarkdown) + "\n" + footerStyle.Render("ctrl+h to go back")
	}

	status := statusStyle.Render(m.status)
	if m.isError {
		status = errorStyle.Render(m.status)
	}

	recent := "nothing captured yet"
	if len(m.recent) > 0 {
		recent = strings.Join(m.recent, "\n")
	}

	lines := []string{
		headerStyle.Render("Memoria"),
		panelStyle.Render(m.input.View()),
		panelStyle.Render(recent),
		status,
		footerStyle.Render("enter capture · ctrl+h help · esc quit"),
	}
	return strings.Join(lines, "\n")
}

func renderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
