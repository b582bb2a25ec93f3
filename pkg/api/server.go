package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/journal"
	"github.com/uhyunpark/matchbook/pkg/venue"
)

const (
	defaultBookInterval = 250 * time.Millisecond
	defaultHistoryLimit = 100
	shutdownTimeout     = 5 * time.Second
)

// Server handles REST API and WebSocket connections
type Server struct {
	seq     *venue.Sequencer
	sampler *venue.Sampler
	router  *mux.Router
	hub     *Hub
	logger  *zap.SugaredLogger

	// Optional. Nil disables /history/trades and /metrics respectively.
	Journal *journal.Journal
	Metrics http.Handler

	// BookInterval is how often a changed book is pushed to subscribers.
	BookInterval time.Duration
}

func NewServer(seq *venue.Sequencer, sampler *venue.Sampler, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		seq:          seq,
		sampler:      sampler,
		router:       mux.NewRouter(),
		hub:          NewHub(logger),
		logger:       logger,
		BookInterval: defaultBookInterval,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/book", s.handleGetBook).Methods("GET")
	s.router.HandleFunc("/price", s.handleGetPrice).Methods("GET")
	s.router.HandleFunc("/trades", s.handleGetTrades).Methods("GET")
	s.router.HandleFunc("/order", s.handlePostOrder).Methods("POST")
	s.router.HandleFunc("/report/{id}", s.handleGetReport).Methods("GET")
	s.router.HandleFunc("/history/trades", s.handleGetHistory).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Hub must be registered as an engine observer before the sequencer starts
// for trade pushes to reach WebSocket clients.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the router behind a permissive CORS policy.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the HTTP server, the WebSocket hub and the book pusher until
// ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.Run(ctx)
	go s.pushBook(ctx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnw("api_shutdown_failed", "err", err)
		}
	})
	defer stop()

	s.logger.Infow("api_server_started", "addr", ln.Addr().String())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// pushBook broadcasts a fresh snapshot whenever the book changed since the
// previous tick and someone is listening.
func (s *Server) pushBook(ctx context.Context) {
	ticker := time.NewTicker(s.BookInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.hub.dirty.Swap(false) || s.hub.Subscribers(ChannelBook) == 0 {
				continue
			}
			var resp BookResponse
			if err := s.seq.Exec(ctx, func(e *engine.Engine) {
				resp = bookResponse(e.Book())
			}); err != nil {
				return
			}
			s.hub.BroadcastToChannel(ChannelBook, WSMessage{Type: "book", Data: resp})
		}
	}
}

// ==============================
// REST Handlers
// ==============================

// exec runs fn on the engine and answers 503 when the sequencer is gone.
func (s *Server) exec(w http.ResponseWriter, r *http.Request, fn func(*engine.Engine)) bool {
	if err := s.seq.Exec(r.Context(), fn); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error(), "engine unavailable")
		return false
	}
	return true
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	var resp BookResponse
	if !s.exec(w, r, func(e *engine.Engine) { resp = bookResponse(e.Book()) }) {
		return
	}
	respondJSON(w, resp)
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	candle, err := s.sampler.OHLC(r.Context())
	if err != nil {
		if errors.Is(err, venue.ErrStopped) {
			respondError(w, http.StatusServiceUnavailable, err.Error(), "engine unavailable")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	respondJSON(w, candle)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	var tape engine.Tape
	if !s.exec(w, r, func(e *engine.Engine) { tape = e.RecentTrades() }) {
		return
	}
	resp := make([]TradeView, len(tape))
	for i, t := range tape {
		resp[i] = tradeView(t)
	}
	respondJSON(w, resp)
}

func (s *Server) handlePostOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid request body")
		return
	}

	var (
		id  uint64
		err error
	)
	if !s.exec(w, r, func(e *engine.Engine) { id, err = e.Place(req.Side, req.Quantity, req.Price) }) {
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	s.logger.Debugw("api_order_placed", "id", id, "side", req.Side, "quantity", req.Quantity, "price", req.Price)
	respondJSON(w, OrderResponse{ID: id})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid order id")
		return
	}

	var resp ReportResponse
	if !s.exec(w, r, func(e *engine.Engine) {
		st, _ := e.Status(id)
		resp = ReportResponse{Status: st.String(), Canceled: e.Canceled(id)}
	}) {
		return
	}
	respondJSON(w, resp)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		respondError(w, http.StatusNotFound, "journal disabled", "set JOURNAL_DIR to record trade history")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.Journal.RecentTrades(limit)
	if err != nil {
		s.logger.Errorw("journal_read_failed", "err", err)
		respondError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	resp := make([]HistoryTrade, len(records))
	for i, rec := range records {
		resp[i] = HistoryTrade{
			Seq:       rec.Seq,
			BidID:     rec.BidID,
			AskID:     rec.AskID,
			Quantity:  rec.Quantity,
			Price:     rec.Price,
			Timestamp: rec.Timestamp.UnixMilli(),
		}
	}
	respondJSON(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.seq.Stopped():
		respondError(w, http.StatusServiceUnavailable, venue.ErrStopped.Error(), "")
	default:
		respondJSON(w, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.Metrics == nil {
		http.NotFound(w, r)
		return
	}
	s.Metrics.ServeHTTP(w, r)
}

// ==============================
// Helpers
// ==============================

func bookResponse(bids, asks engine.Levels) BookResponse {
	return BookResponse{Bids: column(bids, book.Buy), Asks: column(asks, book.Sell)}
}

func column(levels engine.Levels, side book.Side) []OrderView {
	out := make([]OrderView, len(levels))
	for i, o := range levels {
		if o.IsZero() {
			out[i] = OrderView{Side: side.String()}
			continue
		}
		out[i] = OrderView{ID: o.ID, Side: o.Side.String(), Quantity: o.Quantity, Price: o.Price}
	}
	return out
}

func tradeView(t engine.Trade) TradeView {
	if t.IsZero() {
		return TradeView{}
	}
	return TradeView{Quantity: t.Quantity, Price: t.Price, Timestamp: t.Timestamp.UnixMilli()}
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, err string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   err,
		Message: message,
	})
}
