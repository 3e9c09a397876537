// Package execution implements the mock order-entry panel. Orders are validated, delayed and logged; nothing is matched.
package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradedash/internal/metrics"
	"tradedash/internal/risk"
)

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// Type selects market or limit pricing.
type Type string

const (
	Market Type = "MARKET"
	Limit  Type = "LIMIT"
)

// ParseSide accepts buy/sell in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// Order is what the panel submits.
type Order struct {
	ID     string
	Symbol string
	Side   Side
	Type   Type
	Amount float64
	Price  float64 // limit price, or the reference price for market orders
}

// Notional is amount times price.
func (o Order) Notional() float64 { return o.Amount * o.Price }

// EstimatedFeeRate is the flat fee shown in the order summary.
const EstimatedFeeRate = 0.003

// Quote summarizes what an order would cost.
type Quote struct {
	Value float64
	Fee   float64
	Total float64
}

// Quote prices the order at its reference price.
func (o Order) Quote() Quote {
	value := o.Notional()
	fee := value * EstimatedFeeRate
	return Quote{Value: value, Fee: fee, Total: value + fee}
}

// Receipt confirms a submitted order.
type Receipt struct {
	OrderID   string
	Message   string
	Submitted time.Time
}

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidPrice  = errors.New("price must be positive")
)

// Executor accepts mock orders.
type Executor struct {
	log     zerolog.Logger
	limits  risk.Limits
	latency time.Duration
}

// NewExecutor builds an executor that waits latency before confirming each order.
func NewExecutor(log zerolog.Logger, limits risk.Limits, latency time.Duration) *Executor {
	if latency < 0 {
		latency = 0
	}
	return &Executor{log: log, limits: limits, latency: latency}
}

// Validate checks an order without submitting it.
func (e *Executor) Validate(order Order) error {
	if order.Amount <= 0 {
		return ErrInvalidAmount
	}
	if order.Price <= 0 {
		return ErrInvalidPrice
	}
	return e.limits.Check(order.Notional())
}

// Submit validates the order, waits out the simulated latency and returns a confirmation.
func (e *Executor) Submit(ctx context.Context, order Order) (Receipt, error) {
	if err := e.Validate(order); err != nil {
		metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side), "rejected").Inc()
		return Receipt{}, fmt.Errorf("reject order: %w", err)
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Type == "" {
		order.Type = Market
	}

	timer := time.NewTimer(e.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side), "cancelled").Inc()
		return Receipt{}, ctx.Err()
	}

	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side), "submitted").Inc()
	e.log.Info().Str("id", order.ID).Str("sym", order.Symbol).Str("side", string(order.Side)).
		Str("type", string(order.Type)).Float64("amount", order.Amount).Float64("px", order.Price).
		Msg("submit order (mock)")

	amount := decimal.NewFromFloat(order.Amount).String()
	return Receipt{
		OrderID:   order.ID,
		Message:   fmt.Sprintf("%s order for %s %s submitted!", order.Side, amount, order.Symbol),
		Submitted: time.Now(),
	}, nil
}
