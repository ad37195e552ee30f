package api

// API request/response types for REST endpoints and WebSocket messages

// ==============================
// REST Types
// ==============================

// MarketInfo describes one market's configuration and current size.
type MarketInfo struct {
	Name         string `json:"name"`         // e.g., "SOL/USDC"
	FeeBps       uint64 `json:"feeBps"`       // flat fee in basis points
	FeeReceiver  string `json:"feeReceiver"`  // ledger identity credited with fees
	OpenOrders   int    `json:"openOrders"`   // orders resident in the book
	FeeCollected uint64 `json:"feeCollected"` // cumulative fees, quote units
}

// CreateMarketRequest creates a market. Zero fee fields inherit the server
// defaults.
type CreateMarketRequest struct {
	Name        string `json:"name"`
	FeeBps      uint64 `json:"feeBps"`
	FeeReceiver string `json:"feeReceiver"`
}

// DepositRequest credits a user's available balances in one market.
type DepositRequest struct {
	Market string `json:"market"`
	User   string `json:"user"`
	Base   uint64 `json:"base"`
	Quote  uint64 `json:"quote"`
}

// PlaceOrderRequest submits a limit order. Side is "bid" or "ask".
// ExpireAt is optional (unix seconds; zero = good till cancelled).
type PlaceOrderRequest struct {
	Market   string `json:"market"`
	Owner    string `json:"owner"`
	Side     string `json:"side"`
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
	ExpireAt int64  `json:"expireAt,omitempty"`
}

// PlaceOrderResponse carries the assigned order id and any fills applied.
type PlaceOrderResponse struct {
	OrderID uint64      `json:"orderId"`
	Fills   []EventInfo `json:"fills"`
}

// CancelOrderRequest cancels one open order.
type CancelOrderRequest struct {
	Market  string `json:"market"`
	Owner   string `json:"owner"`
	OrderID uint64 `json:"orderId"`
}

// CancelOrderResponse reports whether the order was cancelled. False covers
// both unknown ids and ids owned by someone else.
type CancelOrderResponse struct {
	Cancelled bool `json:"cancelled"`
}

// BalanceInfo is one user's balances in one market.
type BalanceInfo struct {
	Market         string `json:"market"`
	User           string `json:"user"`
	AvailableBase  uint64 `json:"availableBase"`
	FrozenBase     uint64 `json:"frozenBase"`
	AvailableQuote uint64 `json:"availableQuote"`
	FrozenQuote    uint64 `json:"frozenQuote"`
}

// DepthSnapshot is the aggregated order book state.
type DepthSnapshot struct {
	Market    string       `json:"market"`
	Bids      []PriceLevel `json:"bids"` // sorted high to low
	Asks      []PriceLevel `json:"asks"` // sorted low to high
	Timestamp int64        `json:"timestamp"` // unix milliseconds
}

// PriceLevel represents [price, size] at one level.
type PriceLevel struct {
	Price uint64 `json:"price"`
	Size  uint64 `json:"size"`
}

// EventInfo mirrors one event-log entry.
type EventInfo struct {
	Type          string `json:"type"` // "fill", "out", "expire"
	Seq           uint64 `json:"seq"`
	Time          int64  `json:"time"`
	MakerOrderID  uint64 `json:"makerOrderId,omitempty"`
	TakerOrderID  uint64 `json:"takerOrderId,omitempty"`
	MakerOwner    string `json:"makerOwner,omitempty"`
	TakerOwner    string `json:"takerOwner,omitempty"`
	Price         uint64 `json:"price,omitempty"`
	Quantity      uint64 `json:"quantity,omitempty"`
	FeePaid       uint64 `json:"feePaid,omitempty"`
	OrderID       uint64 `json:"orderId,omitempty"`
	Owner         string `json:"owner,omitempty"`
	Side          string `json:"side,omitempty"`
	RefundedBase  uint64 `json:"refundedBase,omitempty"`
	RefundedQuote uint64 `json:"refundedQuote,omitempty"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by clients to manage channel subscriptions.
// Channels look like "events:SOL/USDC".
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// WSEvent is broadcast to subscribers of a market's event channel.
type WSEvent struct {
	Channel string    `json:"channel"`
	Market  string    `json:"market"`
	Event   EventInfo `json:"event"`
}
