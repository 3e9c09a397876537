package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tradedash/internal/execution"
	"tradedash/internal/market"
	"tradedash/internal/wallet"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func renderChange(pct float64) string {
	if pct >= 0 {
		return upStyle.Render("▲ " + market.FormatChange(pct))
	}
	return downStyle.Render("▼ " + market.FormatChange(pct))
}

func walletBadge(snap wallet.Snapshot) string {
	switch {
	case snap.Connecting:
		return warnStyle.Render("◌ Connecting...")
	case snap.Connected:
		return successStyle.Render("● "+snap.ShortAddress()) + " " +
			fmt.Sprintf("%s %s", snap.DisplayBalance(), market.NativeSymbol(snap.ChainID)) + " " +
			dimStyle.Render(market.ChainName(snap.ChainID))
	default:
		return dimStyle.Render("○ Wallet not connected")
	}
}

func renderHeader(tok market.Token, price float64, snap wallet.Snapshot) string {
	top := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("Trading Dashboard"), "   ", walletBadge(snap))
	line := fmt.Sprintf("%s %s %s  %s  %s (24h)", tok.Icon, titleStyle.Render(tok.Symbol), dimStyle.Render(tok.Name),
		market.FormatCurrency(price), renderChange(tok.Change24h))
	return lipgloss.JoinVertical(lipgloss.Left, top, line)
}

func renderMenu(snap wallet.Snapshot) string {
	walletItem := "Connect wallet"
	if snap.Connected {
		walletItem = "Disconnect wallet"
	}
	items := []string{
		"1) Markets",
		"2) Select token",
		"3) Price chart",
		"4) Place order",
		"5) " + walletItem,
		"6) Wallet details",
		"7) Save preferences",
		"0) Exit",
	}
	return strings.Join(items, "\n")
}

func renderTokenTable(tokens []market.Token, price func(market.Token) float64, selected string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Markets"))
	for _, tok := range tokens {
		marker := " "
		if tok.Symbol == selected {
			marker = "›"
		}
		fmt.Fprintf(&b, "\n%s %s %-6s %-10s %14s  %s", marker, tok.Icon, tok.Symbol, tok.Name,
			market.FormatCurrency(price(tok)), renderChange(tok.Change24h))
	}
	return b.String()
}

func renderChart(tok market.Token, tf market.Timeframe, points []market.Point, width int) string {
	lo, hi := market.Bounds(points)
	var volume float64
	if len(points) > 0 {
		volume = points[len(points)-1].Volume
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s price · %s", tok.Symbol, tf)),
		market.Sparkline(points, width),
		fmt.Sprintf("High %s   Low %s", market.FormatCurrency(hi), market.FormatCurrency(lo)),
		dimStyle.Render("Volume " + market.FormatTokenAmount(volume, 0)),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderQuote(q execution.Quote) string {
	lines := []string{
		fmt.Sprintf("Total Value:   %s", market.FormatCurrency(q.Value)),
		fmt.Sprintf("Estimated Fee: %s", market.FormatCurrency(q.Fee)),
		fmt.Sprintf("Total:         %s", market.FormatCurrency(q.Total)),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderWallet(snap wallet.Snapshot, hasProvider bool) string {
	if !hasProvider {
		return warnStyle.Render(wallet.InstallPrompt)
	}
	if !snap.Connected {
		return dimStyle.Render("Wallet not connected")
	}
	lines := []string{
		titleStyle.Render("Wallet"),
		fmt.Sprintf("Address:  %s", snap.Address),
		fmt.Sprintf("Short:    %s", snap.ShortAddress()),
		fmt.Sprintf("Balance:  %s %s", snap.DisplayBalance(), market.NativeSymbol(snap.ChainID)),
		fmt.Sprintf("Network:  %s (%d)", market.ChainName(snap.ChainID), snap.ChainID),
		fmt.Sprintf("Explorer: %s", market.ExplorerURL(snap.ChainID, snap.Address)),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// walletLine is the one-line notice printed when the session changes underneath the menu.
func walletLine(snap wallet.Snapshot) string {
	if !snap.Connected {
		return "Wallet disconnected"
	}
	return fmt.Sprintf("Wallet %s on %s", snap.ShortAddress(), market.ChainName(snap.ChainID))
}
