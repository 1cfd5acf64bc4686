package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openwallet-labs/defi-agent/internal/consolelog"
	"github.com/openwallet-labs/defi-agent/internal/interp"
	"github.com/openwallet-labs/defi-agent/internal/ledger"
	"github.com/openwallet-labs/defi-agent/internal/model"
	"github.com/openwallet-labs/defi-agent/internal/wallet"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type logEntryMsg consolelog.Entry

type commandDoneMsg struct {
	result model.CommandResult
	err    error
}

type clearStatusMsg struct{}

// --- Model ---

type uiModel struct {
	interp        *interp.Interpreter
	tracker       *wallet.Tracker
	ledger        *ledger.Ledger
	sink          *consolelog.Sink
	sub           consolelog.Subscriber
	entries       []consolelog.Entry
	viewport      viewport.Model
	input         textinput.Model
	spinner       spinner.Model
	width         int
	height        int
	running       bool
	statusMessage string
	mock          bool
	ready         bool
}

func initialModel(session *interp.Interpreter, tracker *wallet.Tracker, led *ledger.Ledger, sink *consolelog.Sink, mock bool) uiModel {
	ti := textinput.New()
	ti.Placeholder = "Type a command, e.g. swap 10 usdc"
	ti.Prompt = "> "
	ti.CharLimit = 120
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	vp := viewport.New(0, 0)

	return uiModel{
		interp:   session,
		tracker:  tracker,
		ledger:   led,
		sink:     sink,
		sub:      sink.Subscribe(),
		entries:  sink.Entries(),
		viewport: vp,
		input:    ti,
		spinner:  s,
		mock:     mock,
	}
}

// listenForEntries forwards the next sink entry into the update loop.
func listenForEntries(sub consolelog.Subscriber) tea.Cmd {
	return func() tea.Msg {
		return logEntryMsg(<-sub)
	}
}

func (m uiModel) Init() tea.Cmd {
	return tea.Batch(
		listenForEntries(m.sub),
		m.spinner.Tick,
		textinput.Blink,
	)
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
