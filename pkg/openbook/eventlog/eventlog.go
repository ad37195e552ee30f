// Package eventlog is the append-only, strictly ordered audit trail of one
// market. Sequence numbers start at 1 and have no gaps; events are never
// mutated or reordered after being appended.
//
// The log holds no lock of its own: the owning market serializes all access.
package eventlog

import "github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook/orderbook"

// Type tags the event variants.
type Type int8

const (
	Fill   Type = iota // a matched trade between a resting and an incoming order
	Out                // an order removed by cancellation, reservation refunded
	Expire             // an order removed by TTL expiry, reservation refunded
)

func (t Type) String() string {
	switch t {
	case Fill:
		return "fill"
	case Out:
		return "out"
	case Expire:
		return "expire"
	default:
		return "unknown"
	}
}

// Event is one entry in a market's audit trail. Seq and Time are set on
// every event; the remaining fields depend on Type.
type Event struct {
	Type Type   `json:"type"`
	Seq  uint64 `json:"seq"`
	Time int64  `json:"time"` // unix seconds

	// Fill fields
	MakerOrderID uint64 `json:"makerOrderId,omitempty"`
	TakerOrderID uint64 `json:"takerOrderId,omitempty"`
	MakerOwner   string `json:"makerOwner,omitempty"`
	TakerOwner   string `json:"takerOwner,omitempty"`
	Price        uint64 `json:"price,omitempty"`
	Quantity     uint64 `json:"quantity,omitempty"`
	FeePaid      uint64 `json:"feePaid,omitempty"`

	// Out / Expire fields
	OrderID       uint64         `json:"orderId,omitempty"`
	Owner         string         `json:"owner,omitempty"`
	Side          orderbook.Side `json:"side,omitempty"`
	RefundedBase  uint64         `json:"refundedBase,omitempty"`
	RefundedQuote uint64         `json:"refundedQuote,omitempty"`
}

// Log is one market's event history plus per-consumer read cursors.
type Log struct {
	events  []Event
	cursors map[string]int // consumer id -> index of next unread event
}

func New() *Log {
	return &Log{cursors: make(map[string]int)}
}

// Append stamps the next sequence number on the event and stores it.
// Returns the stored event. O(1) amortized; never fails.
func (l *Log) Append(ev Event) Event {
	ev.Seq = uint64(len(l.events)) + 1
	l.events = append(l.events, ev)
	return ev
}

// Since returns copies of all events with sequence number strictly greater
// than seq, in ascending sequence order. Restartable: callers track their own
// high-water mark and re-query without re-reading history.
func (l *Log) Since(seq uint64) []Event {
	if seq >= uint64(len(l.events)) {
		return nil
	}
	out := make([]Event, len(l.events)-int(seq))
	copy(out, l.events[seq:])
	return out
}

// Consume returns up to max unread events for the named consumer and
// advances that consumer's cursor. Cursors are independent: one consumer's
// reads never affect another's.
func (l *Log) Consume(consumer string, max int) []Event {
	pos := l.cursors[consumer]
	if pos >= len(l.events) || max <= 0 {
		return nil
	}
	end := pos + max
	if end > len(l.events) {
		end = len(l.events)
	}
	out := make([]Event, end-pos)
	copy(out, l.events[pos:end])
	l.cursors[consumer] = end
	return out
}

// Len returns the number of events appended so far.
func (l *Log) Len() int { return len(l.events) }

// NextSeq returns the sequence number the next appended event will carry.
func (l *Log) NextSeq() uint64 { return uint64(len(l.events)) + 1 }
