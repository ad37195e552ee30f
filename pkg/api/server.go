package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook"
)

// Server exposes the matching core over REST and WebSocket. It is an
// external collaborator: all exchange semantics live in the openbook
// registry, the server only translates requests and broadcasts events.
type Server struct {
	reg    *openbook.Registry
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

// NewServer creates an API server around a registry.
func NewServer(reg *openbook.Registry, logger *zap.SugaredLogger) *Server {
	s := &Server{
		reg:    reg,
		router: mux.NewRouter(),
		hub:    NewHub(),
		log:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(metricsMiddleware)

	// Market names contain "/" (e.g. "SOL/USDC"), so the market is carried
	// in a query parameter or request body rather than the path.
	api.HandleFunc("/markets", s.handleListMarkets).Methods("GET")
	api.HandleFunc("/markets", s.handleCreateMarket).Methods("POST")
	api.HandleFunc("/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/events", s.handleGetEvents).Methods("GET")
	api.HandleFunc("/balances", s.handleGetBalances).Methods("GET")
	api.HandleFunc("/deposits", s.handleDeposit).Methods("POST")
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Observability
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and serves HTTP until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	names := s.reg.Markets()
	response := make([]MarketInfo, 0, len(names))
	for _, name := range names {
		m, err := s.reg.Market(name)
		if err != nil {
			continue
		}
		cfg := m.Config()
		response = append(response, MarketInfo{
			Name:         name,
			FeeBps:       cfg.FeeBps,
			FeeReceiver:  cfg.FeeReceiver,
			OpenOrders:   m.OpenOrders(),
			FeeCollected: m.FeeCollected(),
		})
	}
	respondJSON(w, response)
}

func (s *Server) handleCreateMarket(w http.ResponseWriter, r *http.Request) {
	var req CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing market name", "")
		return
	}

	// Zero fee fields inherit the registry defaults.
	mc := s.reg.Defaults()
	if req.FeeBps != 0 {
		mc.FeeBps = req.FeeBps
	}
	if req.FeeReceiver != "" {
		mc.FeeReceiver = req.FeeReceiver
	}
	m := s.reg.CreateMarketWith(req.Name, mc)

	s.log.Infow("market_created", "market", req.Name)
	cfg := m.Config()
	respondJSON(w, MarketInfo{
		Name:        req.Name,
		FeeBps:      cfg.FeeBps,
		FeeReceiver: cfg.FeeReceiver,
		OpenOrders:  m.OpenOrders(),
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")

	bids, asks, err := s.reg.Levels(market)
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}

	response := DepthSnapshot{
		Market:    market,
		Bids:      toPriceLevels(bids),
		Asks:      toPriceLevels(asks),
		Timestamp: time.Now().UnixMilli(),
	}
	respondJSON(w, response)
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")

	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since parameter", err.Error())
			return
		}
		since = n
	}

	events, err := s.reg.EventsSince(market, since)
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}

	response := make([]EventInfo, len(events))
	for i, ev := range events {
		response[i] = toEventInfo(ev)
	}
	respondJSON(w, response)
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")
	user := r.URL.Query().Get("user")

	bal, err := s.reg.BalancesOf(market, user)
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}

	respondJSON(w, BalanceInfo{
		Market:         market,
		User:           user,
		AvailableBase:  bal.AvailableBase,
		FrozenBase:     bal.FrozenBase,
		AvailableQuote: bal.AvailableQuote,
		FrozenQuote:    bal.FrozenQuote,
	})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := s.reg.Deposit(req.Market, req.User, req.Base, req.Quote); err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}

	s.log.Infow("deposit", "market", req.Market, "user", req.User, "base", req.Base, "quote", req.Quote)
	bal, _ := s.reg.BalancesOf(req.Market, req.User)
	respondJSON(w, BalanceInfo{
		Market:         req.Market,
		User:           req.User,
		AvailableBase:  bal.AvailableBase,
		FrozenBase:     bal.FrozenBase,
		AvailableQuote: bal.AvailableQuote,
		FrozenQuote:    bal.FrozenQuote,
	})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, ok := parseSide(req.Side)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid side", "expected \"bid\" or \"ask\"")
		return
	}

	var (
		id    uint64
		fills []openbook.Event
		err   error
	)
	if req.ExpireAt != 0 {
		id, fills, err = s.reg.PlaceOrderExpiring(req.Market, req.Owner, side, req.Price, req.Quantity, req.ExpireAt)
	} else {
		id, fills, err = s.reg.PlaceOrder(req.Market, req.Owner, side, req.Price, req.Quantity)
	}
	if err != nil {
		switch {
		case errors.Is(err, openbook.ErrMarketNotFound):
			ordersRejectedTotal.WithLabelValues(req.Market, "market_not_found").Inc()
			respondError(w, http.StatusNotFound, "market not found", err.Error())
		case errors.Is(err, openbook.ErrInsufficientBalance):
			ordersRejectedTotal.WithLabelValues(req.Market, "insufficient_balance").Inc()
			respondError(w, http.StatusUnprocessableEntity, "insufficient balance", err.Error())
		default:
			ordersRejectedTotal.WithLabelValues(req.Market, "invalid_order").Inc()
			respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		}
		return
	}

	ordersTotal.WithLabelValues(req.Market, req.Side).Inc()
	fillsTotal.WithLabelValues(req.Market).Add(float64(len(fills)))
	s.publishEvents(req.Market, fills)
	s.updateDepth(req.Market)

	s.log.Infow("order_placed",
		"market", req.Market, "owner", req.Owner, "side", req.Side,
		"price", req.Price, "quantity", req.Quantity,
		"order_id", id, "fills", len(fills))

	response := PlaceOrderResponse{OrderID: id, Fills: make([]EventInfo, len(fills))}
	for i, ev := range fills {
		response.Fills[i] = toEventInfo(ev)
	}
	respondJSON(w, response)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	out, cancelled, err := s.reg.CancelOrder(req.Market, req.Owner, req.OrderID)
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}

	if cancelled {
		cancelsTotal.WithLabelValues(req.Market).Inc()
		s.updateDepth(req.Market)
		s.publishEvents(req.Market, []openbook.Event{out})
		s.log.Infow("order_cancelled", "market", req.Market, "owner", req.Owner, "order_id", req.OrderID)
	}

	respondJSON(w, CancelOrderResponse{Cancelled: cancelled})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helpers
// ==============================

// publishEvents fans events out to the market's WebSocket channel.
func (s *Server) publishEvents(market string, events []openbook.Event) {
	channel := "events:" + market
	for _, ev := range events {
		s.hub.BroadcastToChannel(channel, WSEvent{
			Channel: channel,
			Market:  market,
			Event:   toEventInfo(ev),
		})
	}
}

func (s *Server) updateDepth(market string) {
	bids, asks, err := s.reg.BookSnapshot(market)
	if err != nil {
		return
	}
	bookDepth.WithLabelValues(market, "bid").Set(float64(len(bids)))
	bookDepth.WithLabelValues(market, "ask").Set(float64(len(asks)))
}

func parseSide(s string) (openbook.Side, bool) {
	switch s {
	case "bid":
		return openbook.Bid, true
	case "ask":
		return openbook.Ask, true
	default:
		return 0, false
	}
}

func toPriceLevels(levels []openbook.PriceLevel) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price, Size: l.Qty}
	}
	return out
}

func toEventInfo(ev openbook.Event) EventInfo {
	info := EventInfo{
		Type: ev.Type.String(),
		Seq:  ev.Seq,
		Time: ev.Time,
	}
	switch ev.Type {
	case openbook.EventFill:
		info.MakerOrderID = ev.MakerOrderID
		info.TakerOrderID = ev.TakerOrderID
		info.MakerOwner = ev.MakerOwner
		info.TakerOwner = ev.TakerOwner
		info.Price = ev.Price
		info.Quantity = ev.Quantity
		info.FeePaid = ev.FeePaid
	default:
		info.OrderID = ev.OrderID
		info.Owner = ev.Owner
		info.Side = ev.Side.String()
		info.RefundedBase = ev.RefundedBase
		info.RefundedQuote = ev.RefundedQuote
	}
	return info
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   error,
		"message": message,
	})
}
