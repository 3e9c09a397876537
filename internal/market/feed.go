package market

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tradedash/internal/metrics"
)

// Tick is one mock price update.
type Tick struct {
	Symbol string
	Price  float64
	Ts     time.Time
}

// Feed emits random-walk prices for the token list. Nothing here reflects a real market.
type Feed struct {
	symbols    []string
	log        zerolog.Logger
	interval   time.Duration
	maxStep    float64
	rng        *rand.Rand
	lastPrices map[string]float64
	mu         sync.RWMutex
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const (
	defaultInterval = 500 * time.Millisecond
	defaultMaxStep  = 0.005
)

// WithInterval overrides the tick cadence.
func WithInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithSeed makes the walk reproducible.
func WithSeed(seed int64) Option {
	return func(f *Feed) { f.rng = rand.New(rand.NewSource(seed)) }
}

// NewFeed constructs a feed over symbols, seeded with their list prices. Unknown symbols are dropped.
func NewFeed(symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	f := &Feed{
		log:        log,
		interval:   defaultInterval,
		maxStep:    defaultMaxStep,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		lastPrices: make(map[string]float64),
	}
	f.SetSymbols(symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetSymbols replaces the tracked symbol list (deduplicated, sorted for determinism).
func (f *Feed) SetSymbols(symbols []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		tok, ok := Lookup(sym)
		if !ok {
			continue
		}
		unique[tok.Symbol] = struct{}{}
		if _, seeded := f.lastPrices[tok.Symbol]; !seeded {
			f.lastPrices[tok.Symbol] = tok.Price
		}
	}
	f.symbols = f.symbols[:0]
	for sym := range unique {
		f.symbols = append(f.symbols, sym)
	}
	sort.Strings(f.symbols)
}

// Symbols returns the tracked symbols.
func (f *Feed) Symbols() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// LastPrice returns the most recent mock price for symbol.
func (f *Feed) LastPrice(symbol string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	px, ok := f.lastPrices[strings.ToUpper(symbol)]
	return px, ok
}

// Run pushes ticks onto out until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- Tick) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.log.Info().Strs("symbols", f.Symbols()).Dur("interval", f.interval).Msg("mock price feed started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			for _, tick := range f.step(ts) {
				select {
				case out <- tick:
					metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (f *Feed) step(ts time.Time) []Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticks := make([]Tick, 0, len(f.symbols))
	for _, sym := range f.symbols {
		px := f.lastPrices[sym] * (1 + (f.rng.Float64()*2-1)*f.maxStep)
		f.lastPrices[sym] = px
		ticks = append(ticks, Tick{Symbol: sym, Price: px, Ts: ts})
	}
	return ticks
}
