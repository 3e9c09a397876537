// Package risk holds guard-rails applied to mock orders before they are accepted.
package risk

import "fmt"

// Limits caps what the order panel will accept. Zero values disable a check.
type Limits struct {
	MaxNotionalPerTrade float64
	MinNotional         float64
}

// Allow reports whether notional fits inside the per-trade cap.
func (l Limits) Allow(notional float64) bool {
	if l.MaxNotionalPerTrade > 0 && notional > l.MaxNotionalPerTrade {
		return false
	}
	return notional >= l.MinNotional
}

// Check is Allow with a reason attached.
func (l Limits) Check(notional float64) error {
	if l.MaxNotionalPerTrade > 0 && notional > l.MaxNotionalPerTrade {
		return fmt.Errorf("notional %.2f exceeds per-trade cap %.2f", notional, l.MaxNotionalPerTrade)
	}
	if notional < l.MinNotional {
		return fmt.Errorf("notional %.2f below minimum %.2f", notional, l.MinNotional)
	}
	return nil
}
