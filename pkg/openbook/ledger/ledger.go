// Package ledger tracks per-user available/frozen balances for the two asset
// legs of one market. Funds move between available and frozen via freeze and
// refund, and leave/enter the frozen pool only through trade settlement.
//
// The ledger holds no lock of its own: the owning market serializes all
// access. Caller errors (insufficient balance) are returned; violations of
// the engine's own accounting (consuming more than is frozen, overflow)
// panic, because they indicate a bug rather than bad input.
package ledger

import (
	"errors"
	"math"
)

// ErrInsufficientBalance is returned by Freeze when the user's available
// balance cannot cover the requested reservation.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Leg selects one of a market's two asset legs.
type Leg int8

const (
	Base Leg = iota
	Quote
)

func (l Leg) String() string {
	switch l {
	case Base:
		return "base"
	case Quote:
		return "quote"
	default:
		return "unknown"
	}
}

// Balance is one user's holdings in one market.
type Balance struct {
	AvailableBase  uint64
	FrozenBase     uint64
	AvailableQuote uint64
	FrozenQuote    uint64
}

// Ledger is the balance table of one market.
type Ledger struct {
	balances map[string]*Balance
}

func New() *Ledger {
	return &Ledger{balances: make(map[string]*Balance)}
}

// get returns the user's record, creating a zero record if absent.
func (l *Ledger) get(user string) *Balance {
	b, ok := l.balances[user]
	if !ok {
		b = &Balance{}
		l.balances[user] = b
	}
	return b
}

// Deposit credits available funds on both legs.
func (l *Ledger) Deposit(user string, base, quote uint64) {
	b := l.get(user)
	b.AvailableBase = addCheck(b.AvailableBase, base)
	b.AvailableQuote = addCheck(b.AvailableQuote, quote)
}

// Freeze reserves amount on the given leg, moving it from available to
// frozen. This is the single admission check for order placement.
func (l *Ledger) Freeze(user string, leg Leg, amount uint64) error {
	b := l.get(user)
	if leg == Base {
		if b.AvailableBase < amount {
			return ErrInsufficientBalance
		}
		b.AvailableBase -= amount
		b.FrozenBase += amount
	} else {
		if b.AvailableQuote < amount {
			return ErrInsufficientBalance
		}
		b.AvailableQuote -= amount
		b.FrozenQuote += amount
	}
	return nil
}

// Settle consumes frozen funds on the leg the user gave up and credits the
// opposite leg with the proceeds (already net of any fee).
func (l *Ledger) Settle(user string, gave Leg, frozenConsumed, counterCredited uint64) {
	b := l.get(user)
	if gave == Base {
		if b.FrozenBase < frozenConsumed {
			panic("ledger: settle exceeds frozen base")
		}
		b.FrozenBase -= frozenConsumed
		b.AvailableQuote = addCheck(b.AvailableQuote, counterCredited)
	} else {
		if b.FrozenQuote < frozenConsumed {
			panic("ledger: settle exceeds frozen quote")
		}
		b.FrozenQuote -= frozenConsumed
		b.AvailableBase = addCheck(b.AvailableBase, counterCredited)
	}
}

// Refund moves amount from frozen back to available on the same leg. Used on
// cancellation, expiry, and price-improvement returns.
func (l *Ledger) Refund(user string, leg Leg, amount uint64) {
	b := l.get(user)
	if leg == Base {
		if b.FrozenBase < amount {
			panic("ledger: refund exceeds frozen base")
		}
		b.FrozenBase -= amount
		b.AvailableBase += amount
	} else {
		if b.FrozenQuote < amount {
			panic("ledger: refund exceeds frozen quote")
		}
		b.FrozenQuote -= amount
		b.AvailableQuote += amount
	}
}

// Credit adds directly to available funds on one leg. Used for fee payouts.
func (l *Ledger) Credit(user string, leg Leg, amount uint64) {
	b := l.get(user)
	if leg == Base {
		b.AvailableBase = addCheck(b.AvailableBase, amount)
	} else {
		b.AvailableQuote = addCheck(b.AvailableQuote, amount)
	}
}

// Balance returns a copy of the user's record; unknown users have zero
// balances.
func (l *Ledger) Balance(user string) Balance {
	if b, ok := l.balances[user]; ok {
		return *b
	}
	return Balance{}
}

// Users returns all user identities with a balance record.
func (l *Ledger) Users() []string {
	out := make([]string, 0, len(l.balances))
	for u := range l.balances {
		out = append(out, u)
	}
	return out
}

// addCheck panics on uint64 overflow. Values outside the documented numeric
// domain are a caller contract violation, not a recoverable error.
func addCheck(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		panic("ledger: balance overflow")
	}
	return a + b
}
