// Package openbook implements the transactional core of a multi-market
// central-limit-order-book exchange: a balance ledger with atomic
// freeze/settle/refund, price-time-priority matching with partial fills, a
// flat proportional fee collected into a fee-receiver account, and an
// append-only per-market event log.
//
// The package is a library; it performs no I/O and spawns no goroutines.
// Drivers (CLI, HTTP, or anything else) call through Registry.
package openbook

import (
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook/eventlog"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook/ledger"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook/orderbook"
)

// Re-export subpackage types so callers only import openbook.

// From orderbook package
type (
	Side       = orderbook.Side
	Order      = orderbook.Order
	PriceLevel = orderbook.PriceLevel
	Book       = orderbook.Book
)

const (
	Bid = orderbook.Bid
	Ask = orderbook.Ask
)

// From ledger package
type (
	Leg     = ledger.Leg
	Balance = ledger.Balance
)

const (
	Base  = ledger.Base
	Quote = ledger.Quote
)

// From eventlog package
type (
	Event     = eventlog.Event
	EventType = eventlog.Type
)

const (
	EventFill   = eventlog.Fill
	EventOut    = eventlog.Out
	EventExpire = eventlog.Expire
)
