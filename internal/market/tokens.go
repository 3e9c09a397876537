// Package market holds the dashboard's static token list and mock price data.
package market

import (
	"strings"
)

// Chain identifies a supported EVM network.
type Chain struct {
	Key      string
	Name     string
	ID       uint64
	Native   string
	Explorer string
}

// Supported networks.
var (
	Ethereum = Chain{Key: "ethereum", Name: "Ethereum", ID: 1, Native: "ETH", Explorer: "https://etherscan.io"}
	Polygon  = Chain{Key: "polygon", Name: "Polygon", ID: 137, Native: "MATIC", Explorer: "https://polygonscan.com"}
	Arbitrum = Chain{Key: "arbitrum", Name: "Arbitrum One", ID: 42161, Native: "ETH", Explorer: "https://arbiscan.io"}
)

// Chains lists every supported network.
func Chains() []Chain { return []Chain{Ethereum, Polygon, Arbitrum} }

// ChainByID finds a supported network by its numeric id.
func ChainByID(id uint64) (Chain, bool) {
	for _, c := range Chains() {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// ChainName resolves a chain id to a display name.
func ChainName(id uint64) string {
	if c, ok := ChainByID(id); ok {
		return c.Name
	}
	return "Unknown network"
}

// NativeSymbol is the gas coin of chain id; unknown chains are assumed to be ETH-denominated.
func NativeSymbol(id uint64) string {
	if c, ok := ChainByID(id); ok {
		return c.Native
	}
	return Ethereum.Native
}

// ExplorerURL links to addr on the block explorer of chain id, defaulting to Etherscan.
func ExplorerURL(id uint64, addr string) string {
	c, ok := ChainByID(id)
	if !ok {
		c = Ethereum
	}
	return c.Explorer + "/address/" + addr
}

// Token is a row in the market list.
type Token struct {
	Symbol    string
	Name      string
	Price     float64
	Change24h float64 // percent
	Icon      string
	Chain     string
}

var tokens = []Token{
	{Symbol: "ETH", Name: "Ethereum", Price: 2340.5, Change24h: 2.45, Icon: "⟠", Chain: Ethereum.Key},
	{Symbol: "MATIC", Name: "Polygon", Price: 0.85, Change24h: -1.23, Icon: "⬟", Chain: Polygon.Key},
	{Symbol: "ARB", Name: "Arbitrum", Price: 1.12, Change24h: 5.67, Icon: "◆", Chain: Arbitrum.Key},
	{Symbol: "BTC", Name: "Bitcoin", Price: 43250.0, Change24h: 1.89, Icon: "₿", Chain: Ethereum.Key},
	{Symbol: "USDC", Name: "USD Coin", Price: 1.0, Change24h: 0.01, Icon: "$", Chain: Ethereum.Key},
}

// Tokens returns a copy of the market list.
func Tokens() []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	return out
}

// Lookup finds a token by symbol, case-insensitively.
func Lookup(symbol string) (Token, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, t := range tokens {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return Token{}, false
}

// Symbols lists every token symbol in display order.
func Symbols() []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Symbol
	}
	return out
}
