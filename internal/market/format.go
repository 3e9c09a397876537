package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders a USD amount with grouping and 2 to 6 fraction digits.
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(6)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$" + group(trimFraction(d.StringFixed(6), 2))
}

// FormatTokenAmount renders amount with grouping and at most decimals fraction digits.
func FormatTokenAmount(amount float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	d := decimal.NewFromFloat(amount).Round(int32(decimals))
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + group(trimFraction(d.StringFixed(int32(decimals)), 0))
}

// FormatChange renders a percent change without sign, fixed to 2 decimals.
func FormatChange(pct float64) string {
	return decimal.NewFromFloat(pct).Abs().StringFixed(2) + "%"
}

// trimFraction drops trailing zeros beyond keep fraction digits.
func trimFraction(s string, keep int) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	end := len(s)
	for end > dot+1+keep && s[end-1] == '0' {
		end--
	}
	if end == dot+1 {
		end = dot
	}
	return s[:end]
}

func group(s string) string {
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	if len(intPart) <= 3 {
		return intPart + frac
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + frac
}
