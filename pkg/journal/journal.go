// Package journal keeps an audit trail of placed orders, trades and
// cancellations in Pebble. It is a record of what happened, not a way to
// rebuild the book: the resting book is never restored from it.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
)

type TradeRecord struct {
	Seq       uint64    `json:"seq"`
	BidID     uint64    `json:"bid_id"`
	AskID     uint64    `json:"ask_id"`
	Quantity  uint64    `json:"quantity"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type CancelRecord struct {
	ID         uint64    `json:"id"`
	CanceledAt time.Time `json:"canceled_at"`
}

// Journal implements engine.Observer. Writes use pebble.NoSync; losing the
// tail of the journal on a crash is acceptable.
type Journal struct {
	db     *pebble.DB
	seq    uint64 // last trade sequence, touched only from observer calls
	now    func() time.Time
	logger *zap.SugaredLogger
}

func Open(dir string, logger *zap.SugaredLogger) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	j := &Journal{db: db, now: time.Now, logger: logger}

	last, err := j.RecentTrades(1)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(last) == 1 {
		j.seq = last[0].Seq
	}
	return j, nil
}

func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) put(key []byte, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		j.logger.Errorw("journal_encode_failed", "key", string(key), "err", err)
		return
	}
	if err := j.db.Set(key, data, pebble.NoSync); err != nil {
		j.logger.Errorw("journal_write_failed", "key", string(key), "err", err)
	}
}

func (j *Journal) OrderPlaced(o book.Order) {
	j.put(orderKey(o.ID), o)
}

// OrderAmended overwrites the order record, which always holds the latest version.
func (j *Journal) OrderAmended(o book.Order) {
	j.put(orderKey(o.ID), o)
}

func (j *Journal) TradeExecuted(t engine.Trade) {
	j.seq++
	rec := TradeRecord{
		Seq:       j.seq,
		BidID:     t.BidID,
		AskID:     t.AskID,
		Quantity:  t.Quantity,
		Price:     t.Price,
		Timestamp: t.Timestamp,
	}
	j.put(tradeKey(t.Timestamp.UnixNano(), rec.Seq), rec)
}

func (j *Journal) OrderCanceled(id uint64) {
	j.put(cancelKey(id), CancelRecord{ID: id, CanceledAt: j.now().UTC()})
}

// Order returns the order as it was placed.
func (j *Journal) Order(id uint64) (book.Order, bool, error) {
	var o book.Order
	ok, err := j.get(orderKey(id), &o)
	return o, ok, err
}

func (j *Journal) Cancel(id uint64) (CancelRecord, bool, error) {
	var rec CancelRecord
	ok, err := j.get(cancelKey(id), &rec)
	return rec, ok, err
}

func (j *Journal) get(key []byte, v any) (bool, error) {
	data, closer, err := j.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("journal get %s: %w", key, err)
	}
	defer closer.Close()
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("journal decode %s: %w", key, err)
	}
	return true, nil
}

// RecentTrades returns up to limit trades, newest first.
func (j *Journal) RecentTrades(limit int) ([]TradeRecord, error) {
	prefix := []byte(prefixTrade)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var trades []TradeRecord
	for iter.Last(); iter.Valid() && len(trades) < limit; iter.Prev() {
		var rec TradeRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		trades = append(trades, rec)
	}
	return trades, iter.Error()
}

var _ engine.Observer = (*Journal)(nil)
