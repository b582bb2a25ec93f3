// Package feed publishes engine events to NATS as JSON.
//
// Subjects, for a base subject "venue":
//
//	venue.orders   placed orders
//	venue.trades   executed trades
//	venue.cancels  canceled order ids
package feed

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
)

// Publisher is the part of *nats.Conn the feed uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type OrderEvent struct {
	ID       uint64  `json:"id"`
	Side     string  `json:"side"`
	Quantity uint64  `json:"quantity"`
	Price    float64 `json:"price"`
}

type TradeEvent struct {
	BidID     uint64  `json:"bid_id"`
	AskID     uint64  `json:"ask_id"`
	Quantity  uint64  `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix ms
}

type CancelEvent struct {
	ID uint64 `json:"id"`
}

// Feed implements engine.Observer. Publishing is asynchronous in the NATS
// client, so observer calls do not wait on the network.
type Feed struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	logger  *zap.SugaredLogger
}

func New(pub Publisher, subject string, logger *zap.SugaredLogger) *Feed {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Feed{pub: pub, subject: subject, logger: logger}
}

// Connect dials url and keeps reconnecting for the life of the process.
func Connect(url, subject string, logger *zap.SugaredLogger) (*Feed, error) {
	nc, err := nats.Connect(url,
		nats.Name("venued"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, err
	}
	f := New(nc, subject, logger)
	f.conn = nc
	return f, nil
}

// Close flushes pending events and closes the connection, if Connect made one.
func (f *Feed) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Drain()
}

func (f *Feed) publish(suffix string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		f.logger.Errorw("feed_encode_failed", "subject", suffix, "err", err)
		return
	}
	subject := f.subject + "." + suffix
	if err := f.pub.Publish(subject, data); err != nil {
		f.logger.Warnw("feed_publish_failed", "subject", subject, "err", err)
	}
}

func (f *Feed) OrderPlaced(o book.Order) {
	f.publish("orders", OrderEvent{ID: o.ID, Side: o.Side.String(), Quantity: o.Quantity, Price: o.Price})
}

func (f *Feed) OrderAmended(o book.Order) {
	f.publish("amends", OrderEvent{ID: o.ID, Side: o.Side.String(), Quantity: o.Quantity, Price: o.Price})
}

func (f *Feed) TradeExecuted(t engine.Trade) {
	f.publish("trades", TradeEvent{
		BidID:     t.BidID,
		AskID:     t.AskID,
		Quantity:  t.Quantity,
		Price:     t.Price,
		Timestamp: t.Timestamp.UnixMilli(),
	})
}

func (f *Feed) OrderCanceled(id uint64) {
	f.publish("cancels", CancelEvent{ID: id})
}

var _ engine.Observer = (*Feed)(nil)
