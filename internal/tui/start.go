// Package tui renders the interactive agent console: a scrolling log of
// command output fed by the session's log sink, with a single input line.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/openwallet-labs/defi-agent/internal/consolelog"
	"github.com/openwallet-labs/defi-agent/internal/interp"
	"github.com/openwallet-labs/defi-agent/internal/ledger"
	"github.com/openwallet-labs/defi-agent/internal/wallet"
)

func Start(session *interp.Interpreter, tracker *wallet.Tracker, led *ledger.Ledger, sink *consolelog.Sink, mock bool, version string) error {
	Version = version
	p := tea.NewProgram(
		initialModel(session, tracker, led, sink, mock),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
