package api

// ============================
// REST API Types
// ============================

// OrderView is one book slot. Padding slots carry id 0 and the side of
// the column they pad.
type OrderView struct {
	ID       uint64  `json:"id"`
	Side     string  `json:"side"`
	Quantity uint64  `json:"quantity"`
	Price    float64 `json:"price"`
}

// BookResponse for GET /book
type BookResponse struct {
	Bids []OrderView `json:"bids"`
	Asks []OrderView `json:"asks"`
}

// TradeView is one tape slot. Timestamp is Unix milliseconds, 0 for padding.
type TradeView struct {
	Quantity  uint64  `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// OrderRequest for POST /order
type OrderRequest struct {
	Side     string  `json:"side"`
	Quantity uint64  `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderResponse for POST /order
type OrderResponse struct {
	ID uint64 `json:"id"`
}

// ReportResponse for GET /report/{id}
type ReportResponse struct {
	Status   string `json:"status"`
	Canceled bool   `json:"canceled"`
}

// HistoryTrade for GET /history/trades
type HistoryTrade struct {
	Seq       uint64  `json:"seq"`
	BidID     uint64  `json:"bid_id"`
	AskID     uint64  `json:"ask_id"`
	Quantity  uint64  `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ============================
// WebSocket Types
// ============================

const (
	ChannelTrades = "trades"
	ChannelBook   = "book"
)

// WSMessage is the envelope of every server push.
type WSMessage struct {
	Type string `json:"type"` // "trade" or "book"
	Data any    `json:"data"`
}

// WSSubscribeRequest is sent by clients to manage subscriptions.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}
