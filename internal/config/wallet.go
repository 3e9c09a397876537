package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Provider points the dashboard at a wallet daemon. An empty URL means no wallet is installed.
type Provider struct {
	URL           string `yaml:"url"` // ws://host:port/rpc
	DialTimeoutMs int    `yaml:"dial_timeout_ms"`
}

// DialTimeout bounds the initial connection to the wallet daemon.
func (p Provider) DialTimeout() time.Duration {
	return time.Duration(p.DialTimeoutMs) * time.Millisecond
}

// Walletd configures the demo wallet daemon.
type Walletd struct {
	Addr          string            `yaml:"addr"`
	ChainID       uint64            `yaml:"chain_id"`
	Accounts      []string          `yaml:"accounts"`
	Balances      map[string]string `yaml:"balances"` // address -> wei, decimal string
	Authorized    bool              `yaml:"authorized"`
	RejectPrompts bool              `yaml:"reject_prompts"`
}

// BalancesWei parses the configured balances.
func (w Walletd) BalancesWei() (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(w.Balances))
	for addr, raw := range w.Balances {
		wei, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("balance for %s: invalid wei amount %q", addr, raw)
		}
		out[addr] = wei
	}
	return out, nil
}

// Environment overrides recognised by ApplyEnv.
const (
	EnvProviderURL = "TRADEDASH_PROVIDER_URL"
	EnvLogLevel    = "TRADEDASH_LOG_LEVEL"
	EnvMetricsAddr = "TRADEDASH_METRICS_ADDR"
)

// ApplyEnv loads an optional .env file and lets environment variables override the YAML values.
func (c *Config) ApplyEnv(files ...string) {
	_ = godotenv.Load(files...) // best-effort
	if v, ok := os.LookupEnv(EnvProviderURL); ok {
		c.Provider.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.App.MetricsAddr = v
	}
}
