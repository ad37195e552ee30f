package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestBidAskPricePriority(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Bid, Price: 100, Remaining: 1})
	b.Insert(&Order{ID: 2, Owner: "a", Side: Bid, Price: 105, Remaining: 1})
	b.Insert(&Order{ID: 3, Owner: "a", Side: Bid, Price: 95, Remaining: 1})
	b.Insert(&Order{ID: 4, Owner: "b", Side: Ask, Price: 120, Remaining: 1})
	b.Insert(&Order{ID: 5, Owner: "b", Side: Ask, Price: 110, Remaining: 1})

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint64(105), bid.Price)

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(110), ask.Price)
}

func TestTimePriorityWithinLevel(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Ask, Price: 100, Remaining: 1})
	b.Insert(&Order{ID: 2, Owner: "b", Side: Ask, Price: 100, Remaining: 1})
	b.Insert(&Order{ID: 3, Owner: "c", Side: Ask, Price: 100, Remaining: 1})

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(1), ask.ID, "earliest id matches first at the same price")

	require.True(t, b.Remove(1))
	ask, ok = b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(2), ask.ID)
}

func TestRemoveMiddleOfLevel(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Bid, Price: 100, Remaining: 1})
	b.Insert(&Order{ID: 2, Owner: "b", Side: Bid, Price: 100, Remaining: 1})
	b.Insert(&Order{ID: 3, Owner: "c", Side: Bid, Price: 100, Remaining: 1})

	require.True(t, b.Remove(2))
	assert.Equal(t, 2, b.Len())

	_, ok := b.Lookup(2)
	assert.False(t, ok)

	bids, _ := b.Snapshot()
	require.Len(t, bids, 2)
	assert.Equal(t, uint64(1), bids[0].ID)
	assert.Equal(t, uint64(3), bids[1].ID)
}

func TestRemoveUnknownID(t *testing.T) {
	b := New()
	assert.False(t, b.Remove(42))
}

func TestRemoveLastOrderClearsLevel(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Ask, Price: 100, Remaining: 1})
	b.Insert(&Order{ID: 2, Owner: "a", Side: Ask, Price: 105, Remaining: 1})

	require.True(t, b.Remove(1))

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(105), ask.Price, "emptied level must not shadow the next best")
}

func TestReduce(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Bid, Price: 100, Remaining: 10})

	require.True(t, b.Reduce(1, 4))
	o, ok := b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, uint64(6), o.Remaining)

	// Reducing to zero removes the order entirely.
	require.True(t, b.Reduce(1, 6))
	_, ok = b.Lookup(1)
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}

func TestReduceOvershootPanics(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Bid, Price: 100, Remaining: 3})
	assert.Panics(t, func() { b.Reduce(1, 4) })
}

func TestSnapshotPriorityOrder(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Bid, Price: 100, Remaining: 1})
	b.Insert(&Order{ID: 2, Owner: "a", Side: Bid, Price: 105, Remaining: 1})
	b.Insert(&Order{ID: 3, Owner: "a", Side: Bid, Price: 105, Remaining: 1})
	b.Insert(&Order{ID: 4, Owner: "b", Side: Ask, Price: 110, Remaining: 1})
	b.Insert(&Order{ID: 5, Owner: "b", Side: Ask, Price: 108, Remaining: 1})

	bids, asks := b.Snapshot()
	require.Len(t, bids, 3)
	require.Len(t, asks, 2)

	assert.Equal(t, []uint64{2, 3, 1}, []uint64{bids[0].ID, bids[1].ID, bids[2].ID})
	assert.Equal(t, []uint64{5, 4}, []uint64{asks[0].ID, asks[1].ID})
}

func TestLevelsAggregateQuantity(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Ask, Price: 100, Remaining: 3})
	b.Insert(&Order{ID: 2, Owner: "b", Side: Ask, Price: 100, Remaining: 7})
	b.Insert(&Order{ID: 3, Owner: "c", Side: Ask, Price: 105, Remaining: 5})

	levels := b.AskLevels()
	require.Len(t, levels, 2)
	assert.Equal(t, PriceLevel{Price: 100, Qty: 10}, levels[0])
	assert.Equal(t, PriceLevel{Price: 105, Qty: 5}, levels[1])
}

func TestExpired(t *testing.T) {
	b := New()
	b.Insert(&Order{ID: 1, Owner: "a", Side: Bid, Price: 100, Remaining: 1, ExpireAt: 50})
	b.Insert(&Order{ID: 2, Owner: "a", Side: Bid, Price: 100, Remaining: 1, ExpireAt: 200})
	b.Insert(&Order{ID: 3, Owner: "a", Side: Ask, Price: 110, Remaining: 1, ExpireAt: 10})
	b.Insert(&Order{ID: 4, Owner: "a", Side: Ask, Price: 110, Remaining: 1}) // GTC

	lapsed := b.Expired(100)
	require.Len(t, lapsed, 2)
	assert.Equal(t, uint64(1), lapsed[0].ID)
	assert.Equal(t, uint64(3), lapsed[1].ID)
}
