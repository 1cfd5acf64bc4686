package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m uiModel) View() string {
	if !m.ready {
		return "Starting console..."
	}

	header := m.viewHeader()
	log := boxStyle.Width(m.width - 2).Render(m.viewport.View())
	footer := m.viewFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, log, footer)
}

func (m uiModel) viewHeader() string {
	title := titleStyle.Render("DeFi Agent Console " + Version)

	status := m.tracker.Status()
	var walletLine string
	switch {
	case !status.Connected:
		walletLine = subtleStyle.Render("Wallet: not connected")
	case status.WrongNetwork:
		walletLine = fmt.Sprintf("Wallet: %s  %s", status.AddressShort,
			warnStyle.Render(fmt.Sprintf("wrong network %s (chain %d)", status.Network, status.ChainID)))
	default:
		walletLine = fmt.Sprintf("Wallet: %s  Network: %s (chain %d)",
			status.AddressShort, status.Network, status.ChainID)
	}

	counters := fmt.Sprintf("Credits: %d  Agent balance: %s USDC", m.ledger.Credits(), m.ledger.Balance())
	if m.mock {
		counters += "  " + simTagStyle.Render("simulation mode")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, walletLine, subtleStyle.Render(counters), "")
}

func (m uiModel) viewFooter() string {
	prompt := m.input.View()
	if m.running {
		prompt = m.spinner.View() + " working..."
	}

	help := subtleStyle.Render("enter run • ctrl+y copy address • esc quit")
	if m.statusMessage != "" {
		help = m.statusMessage
	}

	return lipgloss.JoinVertical(lipgloss.Left, prompt, help)
}
