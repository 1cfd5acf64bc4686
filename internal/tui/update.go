package tui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - headerHeight - footerHeight
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		m.input.Width = msg.Width - 8
		m.ready = true
		m.refreshLog()

	case logEntryMsg:
		// Re-subscribe to the next entry.
		cmds = append(cmds, listenForEntries(m.sub))
		m.entries = append(m.entries, entryOf(msg))
		m.refreshLog()

	case commandDoneMsg:
		m.running = false
		if msg.err != nil {
			m.statusMessage = errStyle.Render(msg.err.Error())
		} else if msg.result.TxHash != "" {
			m.statusMessage = successStyle.Render("tx " + msg.result.TxHash)
		}
		if m.statusMessage != "" {
			cmds = append(cmds, clearStatusAfter(4*time.Second))
		}

	case clearStatusMsg:
		m.statusMessage = ""

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+y":
			if addr := m.tracker.Address(); addr != "" {
				if err := clipboard.WriteAll(addr); err == nil {
					m.statusMessage = successStyle.Render("Address copied to clipboard")
				} else {
					m.statusMessage = errStyle.Render("Clipboard unavailable")
				}
				cmds = append(cmds, clearStatusAfter(2*time.Second))
			}
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line != "" && !m.running {
				m.input.Reset()
				m.running = true
				cmds = append(cmds, m.runCommand(line))
			}
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// runCommand executes one console input off the update loop. The log lines
// it produces arrive through the subscriber channel; the final result lands
// as a commandDoneMsg.
func (m uiModel) runCommand(line string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.interp.Execute(context.Background(), line)
		return commandDoneMsg{result: result, err: err}
	}
}

func (m *uiModel) refreshLog() {
	m.viewport.SetContent(renderEntries(m.entries, m.viewport.Width))
	m.viewport.GotoBottom()
}
