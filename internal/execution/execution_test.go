package execution

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tradedash/internal/risk"
)

func TestSubmitLogsOrder(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	exec := NewExecutor(logger, risk.Limits{}, 0)
	receipt, err := exec.Submit(context.Background(), Order{Symbol: "ETH", Side: Buy, Amount: 1.5, Price: 2340.5})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if receipt.Message != "BUY order for 1.5 ETH submitted!" {
		t.Fatalf("unexpected confirmation %q", receipt.Message)
	}
	if receipt.OrderID == "" {
		t.Fatalf("expected generated order id")
	}
	out := buf.String()
	if !strings.Contains(out, "ETH") || !strings.Contains(out, "submit order") {
		t.Fatalf("log does not contain order: %s", out)
	}
}

func TestSubmitRejectsInvalidOrders(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), risk.Limits{MaxNotionalPerTrade: 100}, 0)
	ctx := context.Background()

	if _, err := exec.Submit(ctx, Order{Symbol: "ETH", Side: Buy, Amount: 0, Price: 10}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := exec.Submit(ctx, Order{Symbol: "ETH", Side: Sell, Type: Limit, Amount: 1}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected invalid price, got %v", err)
	}
	if _, err := exec.Submit(ctx, Order{Symbol: "ETH", Side: Buy, Amount: 1, Price: 2340.5}); err == nil {
		t.Fatalf("expected notional cap to reject order")
	}
}

func TestSubmitWaitsAndHonoursCancel(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), risk.Limits{}, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := exec.Submit(ctx, Order{Symbol: "ARB", Side: Sell, Amount: 3, Price: 1.12})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancel did not interrupt simulated latency")
	}
}

func TestParseSide(t *testing.T) {
	if side, err := ParseSide(" sell "); err != nil || side != Sell {
		t.Fatalf("unexpected parse %s %v", side, err)
	}
	if _, err := ParseSide("hold"); err == nil {
		t.Fatalf("expected error for unknown side")
	}
}

func TestOrderQuote(t *testing.T) {
	q := Order{Amount: 2, Price: 500}.Quote()
	if q.Value != 1000 || q.Fee != 3 || q.Total != 1003 {
		t.Fatalf("unexpected quote %+v", q)
	}
}
