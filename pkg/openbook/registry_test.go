package openbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(MarketConfig{FeeBps: 30, FeeReceiver: "fee_pool"})
}

func TestUnknownMarketFails(t *testing.T) {
	reg := newTestRegistry()

	err := reg.Deposit("SOL/USDC", "alice", 0, 100)
	assert.ErrorIs(t, err, ErrMarketNotFound)

	_, _, err = reg.PlaceOrder("SOL/USDC", "alice", Bid, 10, 5)
	assert.ErrorIs(t, err, ErrMarketNotFound)

	_, _, err = reg.CancelOrder("SOL/USDC", "alice", 1)
	assert.ErrorIs(t, err, ErrMarketNotFound)

	_, err = reg.BalancesOf("SOL/USDC", "alice")
	assert.ErrorIs(t, err, ErrMarketNotFound)

	_, err = reg.EventsSince("SOL/USDC", 0)
	assert.ErrorIs(t, err, ErrMarketNotFound)

	// Deposits and orders never auto-create markets.
	assert.Empty(t, reg.Markets())
}

func TestCreateMarketIsIdempotent(t *testing.T) {
	reg := newTestRegistry()

	m1 := reg.CreateMarket("SOL/USDC")
	require.NoError(t, reg.Deposit("SOL/USDC", "alice", 7, 0))

	// Re-creating returns the existing market with its state intact, even
	// with a different config.
	m2 := reg.CreateMarketWith("SOL/USDC", MarketConfig{FeeBps: 99, FeeReceiver: "other"})
	assert.Same(t, m1, m2)
	assert.Equal(t, uint64(30), m2.Config().FeeBps)

	bal, err := reg.BalancesOf("SOL/USDC", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), bal.AvailableBase)
}

func TestDefaultsApplyToNewMarkets(t *testing.T) {
	reg := newTestRegistry()

	m := reg.CreateMarket("SOL/USDC")
	assert.Equal(t, uint64(30), m.Config().FeeBps)
	assert.Equal(t, "fee_pool", m.Config().FeeReceiver)

	custom := reg.CreateMarketWith("BTC/USDT", MarketConfig{FeeBps: 10, FeeReceiver: "treasury"})
	assert.Equal(t, uint64(10), custom.Config().FeeBps)
	assert.Equal(t, "treasury", custom.Config().FeeReceiver)
}

func TestMarketsSorted(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateMarket("SOL/USDC")
	reg.CreateMarket("BTC/USDT")
	reg.CreateMarket("ETH/USDC")

	assert.Equal(t, []string{"BTC/USDT", "ETH/USDC", "SOL/USDC"}, reg.Markets())
}

func TestMarketsAreIsolated(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateMarket("SOL/USDC")
	reg.CreateMarket("BTC/USDT")

	require.NoError(t, reg.Deposit("SOL/USDC", "alice", 0, 1_000))
	require.NoError(t, reg.Deposit("SOL/USDC", "bob", 100, 0))

	_, _, err := reg.PlaceOrder("SOL/USDC", "bob", Ask, 10, 5)
	require.NoError(t, err)
	_, fills, err := reg.PlaceOrder("SOL/USDC", "alice", Bid, 10, 5)
	require.NoError(t, err)
	require.Len(t, fills, 1)

	// Nothing bled into the other market: balances, book, and event
	// sequencing are all untouched.
	bal, err := reg.BalancesOf("BTC/USDT", "alice")
	require.NoError(t, err)
	assert.Equal(t, Balance{}, bal)

	bids, asks, err := reg.BookSnapshot("BTC/USDT")
	require.NoError(t, err)
	assert.Empty(t, bids)
	assert.Empty(t, asks)

	events, err := reg.EventsSince("BTC/USDT", 0)
	require.NoError(t, err)
	assert.Empty(t, events)

	// Order ids are per market: the first BTC/USDT order gets id 1.
	require.NoError(t, reg.Deposit("BTC/USDT", "carol", 10, 0))
	id, _, err := reg.PlaceOrder("BTC/USDT", "carol", Ask, 50_000, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestRegistryRoutesOperations(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateMarketWith("SOL/USDC", MarketConfig{FeeBps: 0, FeeReceiver: "fee_pool"})

	require.NoError(t, reg.Deposit("SOL/USDC", "alice", 0, 1_000))
	require.NoError(t, reg.Deposit("SOL/USDC", "bob", 100, 0))

	id1, _, err := reg.PlaceOrder("SOL/USDC", "bob", Ask, 10, 5)
	require.NoError(t, err)
	id2, _, err := reg.PlaceOrder("SOL/USDC", "bob", Ask, 12, 5)
	require.NoError(t, err)

	bids, asks, err := reg.Levels("SOL/USDC")
	require.NoError(t, err)
	assert.Empty(t, bids)
	require.Len(t, asks, 2)
	assert.Equal(t, uint64(10), asks[0].Price)

	n, err := reg.BatchCancel("SOL/USDC", "bob", []uint64{id1, id2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fee, err := reg.FeeCollected("SOL/USDC")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), fee)

	events, err := reg.ConsumeEvents("SOL/USDC", "crank", 100)
	require.NoError(t, err)
	assert.Len(t, events, 2, "two cancellation events")
}
