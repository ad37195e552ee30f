package openbook

import (
	"fmt"
	"math"
	"sync"

	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook/eventlog"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook/ledger"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook/orderbook"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/util"
)

// MarketConfig is the per-market fee policy. FeeBps is a flat proportional
// fee in basis points (30 = 0.3%), deducted from the quote proceeds of every
// fill and credited to FeeReceiver's quote balance in this market's ledger.
type MarketConfig struct {
	FeeBps      uint64
	FeeReceiver string
}

// Market bundles one order book, one balance ledger, one event log, and a
// fee configuration. Each market is an independent unit of mutual exclusion:
// mutating operations are serialized by the write lock, queries share the
// read lock and observe consistent snapshots. Markets never interact.
type Market struct {
	name string

	mu     sync.RWMutex
	book   *orderbook.Book
	ledger *ledger.Ledger
	events *eventlog.Log

	cfg          MarketConfig
	nextOrderID  uint64
	feeCollected uint64

	clock util.Clock
}

// NewMarket creates an empty market. Order ids start at 1 and are never
// reused, even after cancellation.
func NewMarket(name string, cfg MarketConfig, clock util.Clock) *Market {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Market{
		name:        name,
		book:        orderbook.New(),
		ledger:      ledger.New(),
		events:      eventlog.New(),
		cfg:         cfg,
		nextOrderID: 1,
		clock:       clock,
	}
}

func (m *Market) Name() string { return m.name }

// Config returns the market's fee configuration.
func (m *Market) Config() MarketConfig { return m.cfg }

// Deposit credits available funds on both legs, creating the user's balance
// record if absent. Never fails.
func (m *Market) Deposit(user string, base, quote uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepExpired(m.clock.Now().Unix())
	m.ledger.Deposit(user, base, quote)
}

// PlaceOrder freezes the required reservation, matches the order against the
// opposite side under price-time priority, and rests any unfilled remainder
// in the book. Returns the order id and the fill events produced, in
// sequence order. On error no state changes.
func (m *Market) PlaceOrder(owner string, side Side, price, qty uint64) (uint64, []Event, error) {
	return m.placeOrder(owner, side, price, qty, 0)
}

// PlaceOrderExpiring is PlaceOrder with a TTL: once the market's clock
// passes expireAt (unix seconds), the resting remainder evaporates and its
// reservation is refunded. Expired orders are swept at the head of every
// mutating operation.
func (m *Market) PlaceOrderExpiring(owner string, side Side, price, qty uint64, expireAt int64) (uint64, []Event, error) {
	return m.placeOrder(owner, side, price, qty, expireAt)
}

func (m *Market) placeOrder(owner string, side Side, price, qty uint64, expireAt int64) (uint64, []Event, error) {
	if price == 0 || qty == 0 {
		return 0, nil, ErrInvalidOrder
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().Unix()
	m.sweepExpired(now)

	// Single admission check: the full reservation is frozen up front, or
	// the placement aborts with zero state change.
	if side == Bid {
		if err := m.ledger.Freeze(owner, ledger.Quote, mulCheck(price, qty)); err != nil {
			return 0, nil, err
		}
	} else {
		if err := m.ledger.Freeze(owner, ledger.Base, qty); err != nil {
			return 0, nil, err
		}
	}

	id := m.nextOrderID
	m.nextOrderID++

	taker := &orderbook.Order{
		ID:        id,
		Owner:     owner,
		Side:      side,
		Price:     price,
		Remaining: qty,
		ExpireAt:  expireAt,
	}

	var fills []Event
	for taker.Remaining > 0 {
		maker, ok := m.peekCrossed(side, price)
		if !ok {
			break
		}

		q := taker.Remaining
		if maker.Remaining < q {
			q = maker.Remaining
		}
		// Maker-price rule: the fill executes at the resting order's price.
		p := maker.Price
		notional := mulCheck(p, q)
		fee := m.feeFor(notional)

		if side == Bid {
			// Taker reserved quote at its own limit price; consume the full
			// reservation for q and return the price improvement.
			m.ledger.Settle(owner, ledger.Quote, mulCheck(taker.Price, q), q)
			if taker.Price > p {
				m.ledger.Credit(owner, ledger.Quote, (taker.Price-p)*q)
			}
			m.ledger.Settle(maker.Owner, ledger.Base, q, notional-fee)
		} else {
			m.ledger.Settle(owner, ledger.Base, q, notional-fee)
			m.ledger.Settle(maker.Owner, ledger.Quote, notional, q)
		}
		m.ledger.Credit(m.cfg.FeeReceiver, ledger.Quote, fee)
		m.feeCollected += fee

		makerID := maker.ID
		makerOwner := maker.Owner
		m.book.Reduce(makerID, q)
		taker.Remaining -= q

		fills = append(fills, m.events.Append(Event{
			Type:         eventlog.Fill,
			Time:         now,
			MakerOrderID: makerID,
			TakerOrderID: id,
			MakerOwner:   makerOwner,
			TakerOwner:   owner,
			Price:        p,
			Quantity:     q,
			FeePaid:      fee,
		}))
	}

	if taker.Remaining > 0 {
		m.book.Insert(taker)
	}
	return id, fills, nil
}

// peekCrossed returns the top of the opposite side if it crosses the
// incoming price: bestBid >= bestAsk.
func (m *Market) peekCrossed(side Side, price uint64) (*orderbook.Order, bool) {
	if side == Bid {
		maker, ok := m.book.BestAsk()
		if !ok || maker.Price > price {
			return nil, false
		}
		return maker, true
	}
	maker, ok := m.book.BestBid()
	if !ok || maker.Price < price {
		return nil, false
	}
	return maker, true
}

// feeFor computes notional x FeeBps / 10000 with an exact floor and no
// intermediate overflow: fee never exceeds notional for any FeeBps <= 10000,
// so splitting the notional keeps every term in range.
func (m *Market) feeFor(notional uint64) uint64 {
	q, r := notional/10_000, notional%10_000
	return q*m.cfg.FeeBps + r*m.cfg.FeeBps/10_000
}

// CancelOrder removes an open order and refunds the reservation still
// attributable to its remaining quantity. Returns the appended Out event and
// true on success; false when no open order with that id exists or it belongs
// to a different owner — the two cases are deliberately indistinguishable.
func (m *Market) CancelOrder(owner string, id uint64) (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().Unix()
	m.sweepExpired(now)

	return m.cancelLocked(owner, id, now)
}

// BatchCancel cancels every listed order the owner still has open and
// returns the number actually cancelled. Unknown and foreign ids are
// skipped.
func (m *Market) BatchCancel(owner string, ids []uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().Unix()
	m.sweepExpired(now)

	n := 0
	for _, id := range ids {
		if _, ok := m.cancelLocked(owner, id, now); ok {
			n++
		}
	}
	return n
}

func (m *Market) cancelLocked(owner string, id uint64, now int64) (Event, bool) {
	o, ok := m.book.Lookup(id)
	if !ok || o.Owner != owner {
		return Event{}, false
	}

	ev := Event{
		Type:    eventlog.Out,
		Time:    now,
		OrderID: o.ID,
		Owner:   o.Owner,
		Side:    o.Side,
	}
	if o.Side == Bid {
		refund := mulCheck(o.Price, o.Remaining)
		m.ledger.Refund(o.Owner, ledger.Quote, refund)
		ev.RefundedQuote = refund
	} else {
		m.ledger.Refund(o.Owner, ledger.Base, o.Remaining)
		ev.RefundedBase = o.Remaining
	}
	m.book.Remove(id)
	return m.events.Append(ev), true
}

// sweepExpired lazily removes lapsed orders, refunding their reservations
// and appending Expire events. Called with the write lock held.
func (m *Market) sweepExpired(now int64) {
	for _, o := range m.book.Expired(now) {
		ev := Event{
			Type:    eventlog.Expire,
			Time:    now,
			OrderID: o.ID,
			Owner:   o.Owner,
			Side:    o.Side,
		}
		if o.Side == Bid {
			refund := mulCheck(o.Price, o.Remaining)
			m.ledger.Refund(o.Owner, ledger.Quote, refund)
			ev.RefundedQuote = refund
		} else {
			m.ledger.Refund(o.Owner, ledger.Base, o.Remaining)
			ev.RefundedBase = o.Remaining
		}
		m.book.Remove(o.ID)
		m.events.Append(ev)
	}
}

// BalancesOf returns the user's balances; unknown users read as zero.
func (m *Market) BalancesOf(user string) Balance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Balance(user)
}

// Snapshot returns copies of all open orders, bids and asks each in
// priority order.
func (m *Market) Snapshot() (bids, asks []Order) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.book.Snapshot()
}

// BidLevels returns aggregated bid price levels, best first.
func (m *Market) BidLevels() []PriceLevel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.book.BidLevels()
}

// AskLevels returns aggregated ask price levels, best first.
func (m *Market) AskLevels() []PriceLevel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.book.AskLevels()
}

// EventsSince returns all events with sequence number > seq, in order.
func (m *Market) EventsSince(seq uint64) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events.Since(seq)
}

// ConsumeEvents advances the named consumer's cursor past up to max unread
// events and returns them. Cursors are independent across consumers.
func (m *Market) ConsumeEvents(consumer string, max int) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events.Consume(consumer, max)
}

// FeeCollected returns the cumulative fees collected by this market, in
// quote units. Equals the sum of FeePaid over all fill events.
func (m *Market) FeeCollected() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.feeCollected
}

// OpenOrders returns the number of orders resident in the book.
func (m *Market) OpenOrders() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.book.Len()
}

// Validate cross-checks the frozen-balance invariant: every user's frozen
// quote equals the sum of price x remaining over their open bids, and their
// frozen base equals the sum of remaining over their open asks.
func (m *Market) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wantBase := make(map[string]uint64)
	wantQuote := make(map[string]uint64)
	bids, asks := m.book.Snapshot()
	for _, o := range bids {
		wantQuote[o.Owner] += o.Price * o.Remaining
	}
	for _, o := range asks {
		wantBase[o.Owner] += o.Remaining
	}

	for _, u := range m.ledger.Users() {
		b := m.ledger.Balance(u)
		if b.FrozenBase != wantBase[u] {
			return fmt.Errorf("market %s: user %s frozen base %d, open asks reserve %d", m.name, u, b.FrozenBase, wantBase[u])
		}
		if b.FrozenQuote != wantQuote[u] {
			return fmt.Errorf("market %s: user %s frozen quote %d, open bids reserve %d", m.name, u, b.FrozenQuote, wantQuote[u])
		}
	}
	return nil
}

// mulCheck panics on uint64 overflow. Price x quantity products outside the
// representable range are a caller contract violation, not a recoverable
// error.
func mulCheck(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		panic("openbook: price*quantity overflow")
	}
	return a * b
}
