package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openwallet-labs/defi-agent/internal/consolelog"
)

const (
	headerHeight = 5
	footerHeight = 4
)

func entryOf(msg logEntryMsg) consolelog.Entry { return consolelog.Entry(msg) }

// renderEntry formats one console line with its severity style.
func renderEntry(e consolelog.Entry) string {
	line := e.Timestamp + " " + e.Message
	if e.Simulated {
		line += " " + simTagStyle.Render("[sim]")
	}
	switch e.Severity {
	case consolelog.SeverityInit:
		return subtleStyle.Render(line)
	case consolelog.SeverityCommand:
		return commandStyle.Render(line)
	case consolelog.SeverityProcessing:
		return processingStyle.Render(line)
	case consolelog.SeveritySuccess:
		return successStyle.Render(line)
	case consolelog.SeverityError:
		return errStyle.Render(line)
	default:
		return line
	}
}

func renderEntries(entries []consolelog.Entry, width int) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := renderEntry(e)
		if width > 0 {
			line = lipgloss.NewStyle().Width(width).Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
