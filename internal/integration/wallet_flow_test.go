package integration

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tradedash/internal/execution"
	"tradedash/internal/provider"
	"tradedash/internal/risk"
	"tradedash/internal/wallet"
)

const account = "0xABCDEF1234567890000000000000000000000001"

// remoteWallet serves mock over a real websocket and returns a client dialed to it.
func remoteWallet(t *testing.T, mock *provider.Mock) *provider.Client {
	t.Helper()
	srv := httptest.NewServer(provider.NewServer(mock, zerolog.Nop()))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := provider.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func fundedMock() *provider.Mock {
	mock := provider.NewMock(1, account)
	mock.SetBalance(1, account, big.NewInt(2500000000000000000))
	return mock
}

func waitFor(t *testing.T, s *wallet.Session, what string, cond func(wallet.Snapshot) bool) wallet.Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		snap := s.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, last snapshot %+v", what, snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWalletConnectOverWebsocket(t *testing.T) {
	mock := fundedMock()
	client := remoteWallet(t, mock)

	var (
		mu      sync.Mutex
		changes []wallet.Snapshot
	)
	session := wallet.NewSession(client, zerolog.Nop(), wallet.WithOnChange(func(s wallet.Snapshot) {
		mu.Lock()
		changes = append(changes, s)
		mu.Unlock()
	}))

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	snap := session.Snapshot()
	if !snap.Connected || snap.Connecting {
		t.Fatalf("unexpected state after connect %+v", snap)
	}
	if snap.Address != strings.ToLower(account) || snap.ChainID != 1 {
		t.Fatalf("unexpected account %s on %d", snap.Address, snap.ChainID)
	}
	if snap.DisplayBalance() != "2.5000" || snap.ShortAddress() != "0xabcd...0001" {
		t.Fatalf("unexpected display values %s %s", snap.DisplayBalance(), snap.ShortAddress())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 || !changes[0].Connecting || changes[len(changes)-1].Connecting {
		t.Fatalf("expected connecting to rise then settle, got %+v", changes)
	}
}

func TestWalletFollowsRemoteEvents(t *testing.T) {
	mock := fundedMock()
	mock.Authorize()
	client := remoteWallet(t, mock)

	session := wallet.NewSession(client, zerolog.Nop())
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer session.Close()

	waitFor(t, session, "initial sync", func(s wallet.Snapshot) bool { return s.Connected })

	mock.SetBalance(137, account, big.NewInt(1_000_000_000_000_000_000))
	mock.SwitchChain(137)
	snap := waitFor(t, session, "chain switch", func(s wallet.Snapshot) bool { return s.ChainID == 137 })
	if snap.DisplayBalance() != "1.0000" {
		t.Fatalf("expected balance on polygon, got %s", snap.DisplayBalance())
	}

	mock.Lock()
	snap = waitFor(t, session, "lock", func(s wallet.Snapshot) bool { return !s.Connected })
	if snap.Address != "" || snap.BalanceWei != nil || snap.ChainID != 0 {
		t.Fatalf("fields not cleared together %+v", snap)
	}
	if mock.Calls(wallet.MethodRequestAccounts) != 0 {
		t.Fatalf("events must not prompt the user")
	}
}

func TestConnectWhileApprovalEventRefreshes(t *testing.T) {
	mock := fundedMock()
	client := remoteWallet(t, mock)

	session := wallet.NewSession(client, zerolog.Nop())
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer session.Close()

	deadline := time.Now().Add(3 * time.Second)
	for mock.Calls(wallet.MethodAccounts) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("initial refresh never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if snap := session.Snapshot(); !snap.Connected || snap.Address != strings.ToLower(account) {
		t.Fatalf("approved connect left session disconnected: %+v", snap)
	}

	// initial refresh, the connect refresh and the one triggered by accountsChanged
	deadline = time.Now().Add(3 * time.Second)
	for mock.Calls(wallet.MethodAccounts) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("accountsChanged from approval never refreshed the session")
		}
		time.Sleep(5 * time.Millisecond)
	}
	waitFor(t, session, "settled connection", func(s wallet.Snapshot) bool { return s.Connected && !s.Connecting })
}

func TestWalletRejectedPromptOverWebsocket(t *testing.T) {
	mock := fundedMock()
	mock.RejectPrompts()
	client := remoteWallet(t, mock)

	session := wallet.NewSession(client, zerolog.Nop())
	err := session.Connect(context.Background())
	if !errors.Is(err, wallet.ErrProviderRequestFailed) {
		t.Fatalf("expected request failed, got %v", err)
	}
	if !provider.IsUserRejected(err) {
		t.Fatalf("expected user rejection code to survive the wire, got %v", err)
	}
	snap := session.Snapshot()
	if snap.Connected || snap.Connecting {
		t.Fatalf("unexpected state after rejection %+v", snap)
	}
}

func TestOrderFlowWithoutWallet(t *testing.T) {
	session := wallet.NewSession(nil, zerolog.Nop())
	if err := session.Connect(context.Background()); !errors.Is(err, wallet.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start without provider returned error: %v", err)
	}
	_ = session.Close()

	var buf bytes.Buffer
	exec := execution.NewExecutor(zerolog.New(&buf), risk.Limits{MaxNotionalPerTrade: 5000}, 10*time.Millisecond)
	receipt, err := exec.Submit(context.Background(), execution.Order{Symbol: "ARB", Side: execution.Buy, Amount: 100, Price: 1.12})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if receipt.Message != "BUY order for 100 ARB submitted!" {
		t.Fatalf("unexpected confirmation %q", receipt.Message)
	}
	if !strings.Contains(buf.String(), "submit order") {
		t.Fatalf("expected order log, got %s", buf.String())
	}
}
