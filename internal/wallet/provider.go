// Package wallet tracks the dashboard's connection to an external wallet provider.
package wallet

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Provider event names.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
)

// RPC methods issued against the provider.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodGetBalance      = "eth_getBalance"
	MethodChainID         = "eth_chainId"
)

// BlockLatest is the block tag used for balance queries.
const BlockLatest = "latest"

// Event is a notification pushed by the provider.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// Subscription is the handle returned by Provider.Subscribe. Unsubscribe must be safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Provider is an EIP-1193 style wallet capability.
type Provider interface {
	// Request issues a JSON-RPC call and returns the raw result.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	// Subscribe registers handler for the named event. Handlers are invoked in delivery order.
	Subscribe(event string, handler func(Event)) (Subscription, error)
}

func requestAccounts(ctx context.Context, p Provider) ([]string, error) {
	return accountList(ctx, p, MethodRequestAccounts)
}

func getAccounts(ctx context.Context, p Provider) ([]string, error) {
	return accountList(ctx, p, MethodAccounts)
}

func accountList(ctx context.Context, p Provider, method string) ([]string, error) {
	raw, err := p.Request(ctx, method)
	if err != nil {
		return nil, requestFailed(method, err)
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, malformed(method, "decode accounts: %v", err)
	}
	for i, acct := range accounts {
		if !common.IsHexAddress(acct) {
			return nil, malformed(method, "invalid account %q", acct)
		}
		accounts[i] = NormalizeAddress(acct)
	}
	return accounts, nil
}

func getBalance(ctx context.Context, p Provider, account string) (*big.Int, error) {
	raw, err := p.Request(ctx, MethodGetBalance, account, BlockLatest)
	if err != nil {
		return nil, requestFailed(MethodGetBalance, err)
	}
	var quantity string
	if err := json.Unmarshal(raw, &quantity); err != nil {
		return nil, malformed(MethodGetBalance, "decode balance: %v", err)
	}
	balance, err := hexutil.DecodeBig(quantity)
	if err != nil {
		return nil, malformed(MethodGetBalance, "balance %q: %v", quantity, err)
	}
	return balance, nil
}

func getChainID(ctx context.Context, p Provider) (uint64, error) {
	raw, err := p.Request(ctx, MethodChainID)
	if err != nil {
		return 0, requestFailed(MethodChainID, err)
	}
	var quantity string
	if err := json.Unmarshal(raw, &quantity); err != nil {
		return 0, malformed(MethodChainID, "decode chain id: %v", err)
	}
	id, err := hexutil.DecodeUint64(quantity)
	if err != nil {
		return 0, malformed(MethodChainID, "chain id %q: %v", quantity, err)
	}
	return id, nil
}

// NormalizeAddress lowercases a hex account identifier for comparisons.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
