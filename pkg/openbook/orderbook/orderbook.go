// Package orderbook keeps the two priority-ordered sides of one market's
// open orders. Bids rank by (price descending, id ascending), asks by
// (price ascending, id ascending). Order ids are allocated monotonically by
// the owning market, so FIFO arrival order within a price level is id order.
//
// The book holds no lock of its own: the owning market serializes all access.
package orderbook

import (
	"container/heap"
	"sort"

	"github.com/gammazero/deque"
)

// Side is the direction of an order.
type Side int8

const (
	Bid Side = iota // buy base, pay quote
	Ask             // sell base, receive quote
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

// Order is a resting order. Identity fields are immutable; Remaining
// decreases monotonically and the order leaves the book the instant it
// reaches zero.
type Order struct {
	ID        uint64
	Owner     string
	Side      Side
	Price     uint64 // quote units per base unit
	Remaining uint64 // base units still unfilled
	ExpireAt  int64  // unix seconds; zero means good till cancelled
}

// Expired reports whether the order has lapsed at the given time.
func (o *Order) Expired(now int64) bool {
	return o.ExpireAt != 0 && o.ExpireAt <= now
}

// PriceLevel aggregates remaining quantity across all orders at one price.
type PriceLevel struct {
	Price uint64
	Qty   uint64
}

// Book is one market's two-sided order book.
type Book struct {
	// Heap-based best price tracking (O(1) peek)
	bidHeap *MaxPriceHeap
	askHeap *MinPriceHeap

	// Price level queues (FIFO matching at each price)
	bids map[uint64]*deque.Deque[*Order]
	asks map[uint64]*deque.Deque[*Order]

	// Order index for O(1) lookup and cancellation
	index map[uint64]*Order
}

func New() *Book {
	bidHeap := &MaxPriceHeap{}
	askHeap := &MinPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &Book{
		bidHeap: bidHeap,
		askHeap: askHeap,
		bids:    make(map[uint64]*deque.Deque[*Order]),
		asks:    make(map[uint64]*deque.Deque[*Order]),
		index:   make(map[uint64]*Order),
	}
}

// Insert places an order at the back of its price level queue.
func (b *Book) Insert(o *Order) {
	if o.Side == Bid {
		q, ok := b.bids[o.Price]
		if !ok {
			// New price level - add to heap
			q = new(deque.Deque[*Order])
			b.bids[o.Price] = q
			heap.Push(b.bidHeap, o.Price)
		}
		q.PushBack(o)
	} else {
		q, ok := b.asks[o.Price]
		if !ok {
			q = new(deque.Deque[*Order])
			b.asks[o.Price] = q
			heap.Push(b.askHeap, o.Price)
		}
		q.PushBack(o)
	}
	b.index[o.ID] = o
}

// BestBid returns the highest-priority bid, if any.
func (b *Book) BestBid() (*Order, bool) {
	if b.bidHeap.Len() == 0 {
		return nil, false
	}
	return b.bids[b.bidHeap.Peek()].Front(), true
}

// BestAsk returns the highest-priority ask, if any.
func (b *Book) BestAsk() (*Order, bool) {
	if b.askHeap.Len() == 0 {
		return nil, false
	}
	return b.asks[b.askHeap.Peek()].Front(), true
}

// Lookup returns the open order with the given id.
func (b *Book) Lookup(id uint64) (*Order, bool) {
	o, ok := b.index[id]
	return o, ok
}

// Remove deletes an order by id. Returns false if the id is not in the book.
func (b *Book) Remove(id uint64) bool {
	o, ok := b.index[id]
	if !ok {
		return false
	}

	if o.Side == Bid {
		q := b.bids[o.Price]
		i := q.Index(func(e *Order) bool { return e.ID == id })
		q.Remove(i)
		if q.Len() == 0 {
			delete(b.bids, o.Price)
			b.removeFromBidHeap(o.Price)
		}
	} else {
		q := b.asks[o.Price]
		i := q.Index(func(e *Order) bool { return e.ID == id })
		q.Remove(i)
		if q.Len() == 0 {
			delete(b.asks, o.Price)
			b.removeFromAskHeap(o.Price)
		}
	}

	delete(b.index, id)
	return true
}

// Reduce decreases an order's remaining quantity, removing the order when it
// reaches zero. Panics if by exceeds the remaining quantity: the matching
// loop computes trade quantities from the book, so overshooting is a bug.
func (b *Book) Reduce(id uint64, by uint64) bool {
	o, ok := b.index[id]
	if !ok {
		return false
	}
	if by > o.Remaining {
		panic("orderbook: reduce exceeds remaining quantity")
	}
	o.Remaining -= by
	if o.Remaining == 0 {
		b.Remove(id)
	}
	return true
}

// removeFromBidHeap removes a price level from the bid heap (O(N) worst case, but rare)
func (b *Book) removeFromBidHeap(price uint64) {
	for i := 0; i < b.bidHeap.Len(); i++ {
		if (*b.bidHeap)[i] == price {
			heap.Remove(b.bidHeap, i)
			return
		}
	}
}

// removeFromAskHeap removes a price level from the ask heap (O(N) worst case, but rare)
func (b *Book) removeFromAskHeap(price uint64) {
	for i := 0; i < b.askHeap.Len(); i++ {
		if (*b.askHeap)[i] == price {
			heap.Remove(b.askHeap, i)
			return
		}
	}
}

// Len returns the number of open orders on both sides.
func (b *Book) Len() int { return len(b.index) }

// Snapshot returns copies of all open orders in priority order: bids best
// first (price descending), asks best first (price ascending), FIFO within
// each level.
func (b *Book) Snapshot() (bids, asks []Order) {
	bidPrices := sortedPrices(b.bids, func(i, j uint64) bool { return i > j })
	for _, p := range bidPrices {
		q := b.bids[p]
		for i := 0; i < q.Len(); i++ {
			bids = append(bids, *q.At(i))
		}
	}

	askPrices := sortedPrices(b.asks, func(i, j uint64) bool { return i < j })
	for _, p := range askPrices {
		q := b.asks[p]
		for i := 0; i < q.Len(); i++ {
			asks = append(asks, *q.At(i))
		}
	}
	return bids, asks
}

// BidLevels returns aggregated bid price levels, best (highest) first.
func (b *Book) BidLevels() []PriceLevel {
	return levels(b.bids, func(i, j uint64) bool { return i > j })
}

// AskLevels returns aggregated ask price levels, best (lowest) first.
func (b *Book) AskLevels() []PriceLevel {
	return levels(b.asks, func(i, j uint64) bool { return i < j })
}

// Expired returns copies of all orders that have lapsed at the given time.
func (b *Book) Expired(now int64) []Order {
	var out []Order
	for _, o := range b.index {
		if o.Expired(now) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedPrices(side map[uint64]*deque.Deque[*Order], less func(i, j uint64) bool) []uint64 {
	prices := make([]uint64, 0, len(side))
	for p := range side {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return less(prices[i], prices[j]) })
	return prices
}

func levels(side map[uint64]*deque.Deque[*Order], less func(i, j uint64) bool) []PriceLevel {
	out := make([]PriceLevel, 0, len(side))
	for _, p := range sortedPrices(side, less) {
		q := side[p]
		var total uint64
		for i := 0; i < q.Len(); i++ {
			total += q.At(i).Remaining
		}
		out = append(out, PriceLevel{Price: p, Qty: total})
	}
	return out
}
