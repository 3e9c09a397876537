package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/rs/zerolog"

	"tradedash/internal/metrics"
)

// Snapshot is an immutable view of the session. Address, BalanceWei and ChainID are only set when Connected.
type Snapshot struct {
	Connected  bool
	Connecting bool
	Address    string
	BalanceWei *big.Int
	ChainID    uint64
}

// ShortAddress returns the abbreviated address, or "" when disconnected.
func (s Snapshot) ShortAddress() string {
	if !s.Connected {
		return ""
	}
	return ShortAddress(s.Address)
}

// DisplayBalance returns the balance in whole units fixed to 4 decimals, or "" when disconnected.
func (s Snapshot) DisplayBalance() string {
	if !s.Connected {
		return ""
	}
	return FormatBalance(s.BalanceWei)
}

type account struct {
	address    string
	balanceWei *big.Int
	chainID    uint64
}

// Option customizes a Session.
type Option func(*Session)

// WithOnChange registers a callback invoked with the new snapshot after every state change.
// Snapshots arrive in the order the changes were made; one overtaken by a newer change is skipped.
// fn may read the session but must not call Connect, Disconnect or Refresh.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Session) { s.onChange = fn }
}

// Session owns the wallet connection state for one dashboard.
type Session struct {
	provider Provider
	log      zerolog.Logger
	onChange func(Snapshot)

	mu         sync.Mutex
	acct       *account
	connecting bool
	started    uint64 // tickets handed out to refreshes
	committed  uint64 // ticket of the newest committed refresh
	cleared    uint64 // value of started at the last Disconnect
	version    uint64 // bumped on every state change

	notifyMu sync.Mutex
	notified uint64

	lifecycle sync.Mutex
	subs      []Subscription
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSession creates a disconnected session. A nil provider models an absent wallet.
func NewSession(provider Provider, log zerolog.Logger, opts ...Option) *Session {
	s := &Session{provider: provider, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasProvider reports whether a wallet provider is attached.
func (s *Session) HasProvider() bool { return s.provider != nil }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// changedLocked records a state change and returns the snapshot to deliver with its version.
func (s *Session) changedLocked() (Snapshot, uint64) {
	s.version++
	return s.snapshotLocked(), s.version
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{Connecting: s.connecting}
	if s.acct != nil {
		snap.Connected = true
		snap.Address = s.acct.address
		snap.BalanceWei = new(big.Int).Set(s.acct.balanceWei)
		snap.ChainID = s.acct.chainID
	}
	return snap
}

// Refresh resynchronizes from the provider without prompting the user. Failures are logged and leave state untouched.
// When refreshes overlap, the one started last wins regardless of completion order.
func (s *Session) Refresh(ctx context.Context) {
	if s.provider == nil {
		return
	}
	metrics.WalletRefreshTotal.Inc()
	s.mu.Lock()
	s.started++
	ticket := s.started
	s.mu.Unlock()

	acct, err := s.load(ctx)
	if err != nil {
		metrics.WalletErrorsTotal.WithLabelValues(kindLabel(err)).Inc()
		s.log.Error().Err(err).Msg("wallet refresh failed")
		return
	}
	if !s.commit(ticket, acct) {
		s.log.Debug().Msg("discarding stale wallet refresh")
	}
}

// load reads the current account view. A nil account means the provider exposes none.
func (s *Session) load(ctx context.Context) (*account, error) {
	accounts, err := getAccounts(ctx, s.provider)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	addr := accounts[0]
	balance, err := getBalance(ctx, s.provider, addr)
	if err != nil {
		return nil, err
	}
	chainID, err := getChainID(ctx, s.provider)
	if err != nil {
		return nil, err
	}
	return &account{address: addr, balanceWei: balance, chainID: chainID}, nil
}

// commit replaces the account view unless a later-started refresh has already committed
// or a Disconnect happened after this refresh started.
func (s *Session) commit(ticket uint64, acct *account) bool {
	s.mu.Lock()
	if ticket <= s.committed || ticket <= s.cleared {
		s.mu.Unlock()
		return false
	}
	s.committed = ticket
	s.acct = acct
	snap, version := s.changedLocked()
	s.mu.Unlock()

	if acct != nil {
		s.log.Info().Str("address", acct.address).Uint64("chain_id", acct.chainID).Msg("wallet synced")
	} else {
		s.log.Info().Msg("wallet has no exposed accounts")
	}
	s.notify(version, snap)
	return true
}

// Connect prompts the provider for account access and synchronizes on approval.
func (s *Session) Connect(ctx context.Context) error {
	if s.provider == nil {
		metrics.WalletConnectTotal.WithLabelValues("unavailable").Inc()
		s.log.Warn().Msg("connect requested without a wallet provider")
		return ErrProviderUnavailable
	}

	s.mu.Lock()
	if s.connecting {
		s.mu.Unlock()
		return ErrConnectInFlight
	}
	if s.acct != nil {
		s.mu.Unlock()
		return nil
	}
	s.connecting = true
	snap, version := s.changedLocked()
	s.mu.Unlock()
	s.notify(version, snap)
	defer s.endConnect()

	accounts, err := requestAccounts(ctx, s.provider)
	if err != nil {
		metrics.WalletConnectTotal.WithLabelValues("failed").Inc()
		s.log.Error().Err(err).Msg("wallet connect failed")
		return err
	}
	if len(accounts) == 0 {
		metrics.WalletConnectTotal.WithLabelValues("empty").Inc()
		return nil
	}
	metrics.WalletConnectTotal.WithLabelValues("approved").Inc()
	s.Refresh(ctx)
	return nil
}

func (s *Session) endConnect() {
	s.mu.Lock()
	s.connecting = false
	snap, version := s.changedLocked()
	s.mu.Unlock()
	s.notify(version, snap)
}

// Disconnect clears the local view. Provider-side authorization is left alone.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.cleared = s.started
	s.acct = nil
	snap, version := s.changedLocked()
	s.mu.Unlock()
	s.log.Info().Msg("wallet disconnected")
	s.notify(version, snap)
}

func (s *Session) notify(version uint64, snap Snapshot) {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.notified {
		return
	}
	s.notified = version
	s.onChange(snap)
}

// Start performs an initial refresh and subscribes to provider account and chain changes.
// Each notification schedules a Refresh on a single worker; bursts coalesce into one pending refresh.
// Without a provider Start does nothing.
func (s *Session) Start(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.done != nil {
		return errors.New("wallet session already started")
	}

	pending := make(chan struct{}, 1)
	trigger := func(ev Event) {
		s.log.Debug().Str("event", ev.Name).Msg("wallet provider event")
		select {
		case pending <- struct{}{}:
		default:
		}
	}
	for _, name := range []string{EventAccountsChanged, EventChainChanged} {
		sub, err := s.provider.Subscribe(name, trigger)
		if err != nil {
			s.releaseLocked()
			return requestFailed("subscribe "+name, err)
		}
		s.subs = append(s.subs, sub)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	trigger(Event{Name: "start"})
	go s.refreshLoop(ctx, pending, s.done)
	return nil
}

func (s *Session) refreshLoop(ctx context.Context, pending <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-pending:
			s.Refresh(ctx)
		}
	}
}

// Close releases provider subscriptions and stops the refresh worker.
func (s *Session) Close() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.releaseLocked()
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
		s.done = nil
	}
	return nil
}

func (s *Session) releaseLocked() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

func kindLabel(err error) string {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind.String()
	}
	return "unknown"
}
