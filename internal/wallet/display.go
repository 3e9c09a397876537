package wallet

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// WeiDecimals is the scale between wei and one whole native coin.
const WeiDecimals = 18

// ShortAddress abbreviates an address as its first 6 and last 4 characters.
func ShortAddress(addr string) string {
	addr = NormalizeAddress(addr)
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// FormatBalance renders a raw wei balance in whole units with 4 decimal places.
func FormatBalance(wei *big.Int) string {
	if wei == nil {
		return decimal.Zero.StringFixed(4)
	}
	return decimal.NewFromBigInt(wei, -WeiDecimals).StringFixed(4)
}
