package main

import (
	"bytes"
	"context"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tradedash/internal/config"
	"tradedash/internal/execution"
	"tradedash/internal/market"
	"tradedash/internal/provider"
	"tradedash/internal/risk"
	"tradedash/internal/wallet"
)

const testAccount = "0xABCDEF1234567890000000000000000000000001"

func newTestDashboard(t *testing.T, backend wallet.Provider, script string) (*dashboard, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "..", "internal", "config", "testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	var out bytes.Buffer
	d := newDashboard(cfg, filepath.Join(t.TempDir(), "config.yaml"), zerolog.Nop(), strings.NewReader(script), &out)
	d.executor = execution.NewExecutor(zerolog.Nop(), risk.Limits{}, 0)
	d.session = wallet.NewSession(backend, zerolog.Nop(), wallet.WithOnChange(d.onWalletChange))
	return d, &out
}

func newFundedMock() *provider.Mock {
	mock := provider.NewMock(1, testAccount)
	mock.SetBalance(1, testAccount, big.NewInt(2_500_000_000_000_000_000))
	return mock
}

func TestDashboardConnectAndShowWallet(t *testing.T) {
	d, out := newTestDashboard(t, newFundedMock(), "5\n6\n0\n")
	if err := d.loop(context.Background()); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	text := out.String()
	for _, want := range []string{"0xabcd...0001", "2.5000 ETH", "Ethereum (1)", "https://etherscan.io/address/0xabcdef1234567890000000000000000000000001", "Disconnect wallet"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if !d.session.Snapshot().Connected {
		t.Fatalf("expected session to stay connected")
	}
}

func TestDashboardDisconnectNotice(t *testing.T) {
	d, out := newTestDashboard(t, newFundedMock(), "5\n5\n0\n")
	if err := d.loop(context.Background()); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if d.session.Snapshot().Connected {
		t.Fatalf("expected second toggle to disconnect")
	}
	text := out.String()
	if !strings.Contains(text, "Wallet 0xabcd...0001 on Ethereum") || !strings.Contains(text, "Wallet disconnected") {
		t.Fatalf("expected connect and disconnect notices:\n%s", text)
	}
}

func TestDashboardWithoutProvider(t *testing.T) {
	d, out := newTestDashboard(t, nil, "5\n6\n0\n")
	if err := d.loop(context.Background()); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if strings.Count(out.String(), wallet.InstallPrompt) != 2 {
		t.Fatalf("expected install prompt for connect and details:\n%s", out.String())
	}
	if d.session.Snapshot().Connected {
		t.Fatalf("expected no connection without provider")
	}
}

func TestDashboardRejectedConnect(t *testing.T) {
	mock := newFundedMock()
	mock.RejectPrompts()
	d, out := newTestDashboard(t, mock, "5\n0\n")
	if err := d.loop(context.Background()); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Connection request rejected") {
		t.Fatalf("expected rejection message:\n%s", out.String())
	}
	snap := d.session.Snapshot()
	if snap.Connected || snap.Connecting {
		t.Fatalf("unexpected state after rejection %+v", snap)
	}
}

func TestDashboardPlaceLimitOrder(t *testing.T) {
	d, out := newTestDashboard(t, nil, "2\neth\n4\nsell\nlimit\n2\n100\n0\n")
	if err := d.loop(context.Background()); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Total Value:   $200.00", "SELL order for 2 ETH submitted!"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestDashboardRejectsBadOrder(t *testing.T) {
	d, out := newTestDashboard(t, nil, "4\nbuy\n\n\n0\n")
	if err := d.loop(context.Background()); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if !strings.Contains(out.String(), execution.ErrInvalidAmount.Error()) {
		t.Fatalf("expected invalid amount error:\n%s", out.String())
	}
	if strings.Contains(out.String(), "submitted!") {
		t.Fatalf("invalid order must not be submitted")
	}
}

func TestDashboardChartAndPreferences(t *testing.T) {
	d, out := newTestDashboard(t, nil, "2\nbtc\n3\n1m\n7\n0\n")
	if err := d.loop(context.Background()); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	if d.token.Symbol != "BTC" || d.tf != market.Month {
		t.Fatalf("unexpected selection %s %s", d.token.Symbol, d.tf)
	}
	if !strings.Contains(out.String(), "BTC price · 1M") {
		t.Fatalf("expected chart title:\n%s", out.String())
	}

	saved, err := config.Load(d.cfgPath)
	if err != nil {
		t.Fatalf("reload saved config: %v", err)
	}
	if saved.Dashboard.DefaultToken != "BTC" || saved.Dashboard.Timeframe != "1M" {
		t.Fatalf("preferences not saved: %+v", saved.Dashboard)
	}
}

func TestDashboardEOFExits(t *testing.T) {
	d, _ := newTestDashboard(t, nil, "1")
	if err := d.loop(context.Background()); err != nil {
		t.Fatalf("expected clean exit on EOF, got %v", err)
	}
}
