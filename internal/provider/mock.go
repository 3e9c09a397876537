package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"tradedash/internal/wallet"
)

// PromptFunc runs while an interactive account request is pending. Returning an error rejects the request.
type PromptFunc func(ctx context.Context) error

type mockSub struct {
	id      uuid.UUID
	event   string
	handler func(wallet.Event)
}

// Mock is an in-memory wallet. Accounts stay hidden from eth_accounts until a request is approved.
type Mock struct {
	mu         sync.Mutex
	accounts   []string
	authorized bool
	chainID    uint64
	balances   map[uint64]map[string]*big.Int
	prompt     PromptFunc
	failures   map[string]error
	overrides  map[string]json.RawMessage
	calls      map[string]int
	subs       []mockSub

	// emitMu keeps event delivery in emission order.
	emitMu sync.Mutex
}

var _ wallet.Provider = (*Mock)(nil)

// NewMock creates a wallet holding accounts on chainID.
func NewMock(chainID uint64, accounts ...string) *Mock {
	return &Mock{
		accounts:  append([]string(nil), accounts...),
		chainID:   chainID,
		balances:  make(map[uint64]map[string]*big.Int),
		failures:  make(map[string]error),
		overrides: make(map[string]json.RawMessage),
		calls:     make(map[string]int),
	}
}

// SetPrompt installs the hook consulted by eth_requestAccounts.
func (m *Mock) SetPrompt(fn PromptFunc) {
	m.mu.Lock()
	m.prompt = fn
	m.mu.Unlock()
}

// RejectPrompts makes every interactive request fail with a user rejection.
func (m *Mock) RejectPrompts() {
	m.SetPrompt(func(context.Context) error { return ErrUserRejected() })
}

// Authorize marks the site as already connected, as if approved in an earlier visit.
func (m *Mock) Authorize() {
	m.mu.Lock()
	m.authorized = true
	m.mu.Unlock()
}

// SetBalance assigns wei to addr on chainID.
func (m *Mock) SetBalance(chainID uint64, addr string, wei *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byAddr := m.balances[chainID]
	if byAddr == nil {
		byAddr = make(map[string]*big.Int)
		m.balances[chainID] = byAddr
	}
	byAddr[wallet.NormalizeAddress(addr)] = new(big.Int).Set(wei)
}

// FailMethod makes method fail with err until cleared with a nil err.
func (m *Mock) FailMethod(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// SetResponse forces the raw result of method. A nil raw removes the override.
func (m *Mock) SetResponse(method string, raw json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if raw == nil {
		delete(m.overrides, method)
		return
	}
	m.overrides[method] = raw
}

// Calls reports how many times method was requested.
func (m *Mock) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// SetAccounts replaces the wallet's accounts and emits accountsChanged.
func (m *Mock) SetAccounts(accounts ...string) {
	m.mu.Lock()
	m.accounts = append([]string(nil), accounts...)
	visible := m.visibleLocked()
	m.mu.Unlock()
	m.emit(wallet.EventAccountsChanged, visible)
}

// Lock hides every account, as when the user locks the wallet, and emits accountsChanged with an empty list.
func (m *Mock) Lock() {
	m.mu.Lock()
	m.authorized = false
	m.mu.Unlock()
	m.emit(wallet.EventAccountsChanged, []string{})
}

// SwitchChain changes the active network and emits chainChanged.
func (m *Mock) SwitchChain(chainID uint64) {
	m.mu.Lock()
	m.chainID = chainID
	m.mu.Unlock()
	m.emit(wallet.EventChainChanged, hexutil.EncodeUint64(chainID))
}

// Request implements wallet.Provider.
func (m *Mock) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls[method]++
	if err := m.failures[method]; err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if raw, ok := m.overrides[method]; ok {
		m.mu.Unlock()
		return raw, nil
	}
	prompt := m.prompt
	m.mu.Unlock()

	switch method {
	case wallet.MethodRequestAccounts:
		if prompt != nil {
			if err := prompt(ctx); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.mu.Lock()
		first := !m.authorized
		m.authorized = true
		visible := m.visibleLocked()
		m.mu.Unlock()
		if first {
			m.emit(wallet.EventAccountsChanged, visible)
		}
		return json.Marshal(visible)

	case wallet.MethodAccounts:
		m.mu.Lock()
		visible := m.visibleLocked()
		m.mu.Unlock()
		return json.Marshal(visible)

	case wallet.MethodGetBalance:
		if len(params) == 0 {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "missing address"}
		}
		addr, ok := params[0].(string)
		if !ok {
			return nil, &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("address must be a string, got %T", params[0])}
		}
		m.mu.Lock()
		wei := m.balances[m.chainID][wallet.NormalizeAddress(addr)]
		m.mu.Unlock()
		if wei == nil {
			wei = new(big.Int)
		}
		return json.Marshal(hexutil.EncodeBig(wei))

	case wallet.MethodChainID:
		m.mu.Lock()
		id := m.chainID
		m.mu.Unlock()
		return json.Marshal(hexutil.EncodeUint64(id))

	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %s not supported", method)}
	}
}

// Subscribe implements wallet.Provider.
func (m *Mock) Subscribe(event string, handler func(wallet.Event)) (wallet.Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("nil handler for %s", event)
	}
	id := uuid.New()
	m.mu.Lock()
	m.subs = append(m.subs, mockSub{id: id, event: event, handler: handler})
	m.mu.Unlock()
	return &subscription{cancel: func() { m.unsubscribe(id) }}, nil
}

// Subscribers reports the number of live subscriptions.
func (m *Mock) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *Mock) unsubscribe(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subs {
		if sub.id == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

func (m *Mock) visibleLocked() []string {
	if !m.authorized {
		return []string{}
	}
	return append([]string{}, m.accounts...)
}

func (m *Mock) emit(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	var handlers []func(wallet.Event)
	for _, sub := range m.subs {
		if sub.event == event {
			handlers = append(handlers, sub.handler)
		}
	}
	m.mu.Unlock()

	ev := wallet.Event{Name: event, Payload: raw}
	for _, h := range handlers {
		h(ev)
	}
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}
