// Package tui is a small terminal capture client: type a thought, press
// enter, and the server decides whether it becomes a memory or a task.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/memoria/internal/api"
	"github.com/sandeepkv93/memoria/internal/client"
)

const maxRecent = 8

type captureDoneMsg struct {
	resp api.CaptureResponse
	err  error
}

type Model struct {
	client   *client.Client
	input    textinput.Model
	recent   []string
	status   string
	isError  bool
	showHelp bool
	busy     bool
}

func Run(c *client.Client) error {
	ti := textinput.New()
	ti.Placeholder = "remind me to call mom tomorrow at 3pm"
	ti.CharLimit = 512
	ti.Width = 60
	ti.Focus()

	m := Model{
		client: c,
		input:  ti,
		status: "Enter to capture, ctrl+h for help, esc to quit.",
	}
	program := tea.NewProgram(m)
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+h":
			m.showHelp = !m.showHelp
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				m.status = "Nothing to capture"
				m.isError = true
				return m, nil
			}
			m.busy = true
			m.status = "Capturing..."
			m.isError = false
			return m, captureCmd(m.client, text)
		}
	case captureDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = fmt.Sprintf("capture error: %v", msg.err)
			m.isError = true
			return m, nil
		}
		m.input.SetValue("")
		m.status = fmt.Sprintf("Saved as %s", msg.resp.Kind)
		m.isError = false
		m.recent = append([]string{recentLine(msg.resp)}, m.recent...)
		if len(m.recent) > maxRecent {
			m.recent = m.recent[:maxRecent]
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func captureCmd(c *client.Client, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		resp, err := c.Capture(ctx, text)
		return captureDoneMsg{resp: resp, err: err}
	}
}

func recentLine(resp api.CaptureResponse) string {
	line := fmt.Sprintf("[%s] %s", resp.Kind, resp.Text)
	if resp.Due != nil {
		line += " (due " + *resp.Due + ")"
	}
	return line
}
