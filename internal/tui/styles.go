package tui

import "github.com/charmbracelet/lipgloss"

// --- Styles ---
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	commandStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Bold(true)
	processingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	simTagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	boxStyle        = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)
)
