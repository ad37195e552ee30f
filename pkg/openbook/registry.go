package openbook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jadestone-web3/serum-dex-from-zero/pkg/util"
)

// Registry owns the mapping from market name to market state and routes
// every external call to the correct isolated market. It is the single
// authority that creates markets; callers construct and inject a Registry,
// there is no process-wide instance.
//
// Policy (uniform across operations): CreateMarket is idempotent, and every
// other operation on an unknown market fails with ErrMarketNotFound --
// deposits and orders never auto-create markets.
type Registry struct {
	mu      sync.RWMutex
	markets map[string]*Market

	defaults MarketConfig
	clock    util.Clock
}

// NewRegistry creates an empty registry. Markets created without an explicit
// config inherit defaults.
func NewRegistry(defaults MarketConfig) *Registry {
	return NewRegistryWithClock(defaults, util.RealClock{})
}

// NewRegistryWithClock injects the clock used by all markets, for
// deterministic expiry in tests.
func NewRegistryWithClock(defaults MarketConfig, clock util.Clock) *Registry {
	return &Registry{
		markets:  make(map[string]*Market),
		defaults: defaults,
		clock:    clock,
	}
}

// CreateMarket creates a market with the registry's default fee config.
// Idempotent: creating an existing market is a no-op returning the existing
// market unchanged.
func (r *Registry) CreateMarket(name string) *Market {
	return r.CreateMarketWith(name, r.defaults)
}

// CreateMarketWith creates a market with an explicit fee config. If the
// market already exists it is returned unchanged (the config argument is
// ignored).
func (r *Registry) CreateMarketWith(name string, cfg MarketConfig) *Market {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.markets[name]; ok {
		return m
	}
	m := NewMarket(name, cfg, r.clock)
	r.markets[name] = m
	return m
}

// Defaults returns the config applied to markets created without one.
func (r *Registry) Defaults() MarketConfig { return r.defaults }

// Market returns the named market.
func (r *Registry) Market(name string) (*Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[name]
	if !ok {
		return nil, fmt.Errorf("market %q: %w", name, ErrMarketNotFound)
	}
	return m, nil
}

// Markets returns all market names, sorted.
func (r *Registry) Markets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.markets))
	for name := range r.markets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Deposit credits a user's available balances in one market.
func (r *Registry) Deposit(market, user string, base, quote uint64) error {
	m, err := r.Market(market)
	if err != nil {
		return err
	}
	m.Deposit(user, base, quote)
	return nil
}

// PlaceOrder routes to Market.PlaceOrder.
func (r *Registry) PlaceOrder(market, owner string, side Side, price, qty uint64) (uint64, []Event, error) {
	m, err := r.Market(market)
	if err != nil {
		return 0, nil, err
	}
	return m.PlaceOrder(owner, side, price, qty)
}

// PlaceOrderExpiring routes to Market.PlaceOrderExpiring.
func (r *Registry) PlaceOrderExpiring(market, owner string, side Side, price, qty uint64, expireAt int64) (uint64, []Event, error) {
	m, err := r.Market(market)
	if err != nil {
		return 0, nil, err
	}
	return m.PlaceOrderExpiring(owner, side, price, qty, expireAt)
}

// CancelOrder routes to Market.CancelOrder. The bool is false for both
// unknown ids and ids owned by someone else; on success the returned event is
// the Out entry appended to the market's log.
func (r *Registry) CancelOrder(market, owner string, id uint64) (Event, bool, error) {
	m, err := r.Market(market)
	if err != nil {
		return Event{}, false, err
	}
	ev, ok := m.CancelOrder(owner, id)
	return ev, ok, nil
}

// BatchCancel routes to Market.BatchCancel.
func (r *Registry) BatchCancel(market, owner string, ids []uint64) (int, error) {
	m, err := r.Market(market)
	if err != nil {
		return 0, err
	}
	return m.BatchCancel(owner, ids), nil
}

// BalancesOf returns a user's balances in one market; unknown users read as
// zero.
func (r *Registry) BalancesOf(market, user string) (Balance, error) {
	m, err := r.Market(market)
	if err != nil {
		return Balance{}, err
	}
	return m.BalancesOf(user), nil
}

// BookSnapshot returns copies of a market's open orders in priority order.
func (r *Registry) BookSnapshot(market string) (bids, asks []Order, err error) {
	m, err := r.Market(market)
	if err != nil {
		return nil, nil, err
	}
	bids, asks = m.Snapshot()
	return bids, asks, nil
}

// Levels returns a market's aggregated depth, best first on both sides.
func (r *Registry) Levels(market string) (bids, asks []PriceLevel, err error) {
	m, err := r.Market(market)
	if err != nil {
		return nil, nil, err
	}
	return m.BidLevels(), m.AskLevels(), nil
}

// EventsSince returns a market's events with sequence number > seq.
func (r *Registry) EventsSince(market string, seq uint64) ([]Event, error) {
	m, err := r.Market(market)
	if err != nil {
		return nil, err
	}
	return m.EventsSince(seq), nil
}

// ConsumeEvents advances the named consumer's cursor in one market.
func (r *Registry) ConsumeEvents(market, consumer string, max int) ([]Event, error) {
	m, err := r.Market(market)
	if err != nil {
		return nil, err
	}
	return m.ConsumeEvents(consumer, max), nil
}

// FeeCollected returns a market's cumulative collected fees in quote units.
func (r *Registry) FeeCollected(market string) (uint64, error) {
	m, err := r.Market(market)
	if err != nil {
		return 0, err
	}
	return m.FeeCollected(), nil
}
