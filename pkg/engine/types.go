package engine

import (
	"time"

	"github.com/uhyunpark/matchbook/pkg/book"
)

// Trade is one executed match. BidID and AskID are kept for observers; the
// public views show quantity, price and timestamp.
type Trade struct {
	BidID     uint64
	AskID     uint64
	Quantity  uint64
	Price     float64
	Timestamp time.Time
}

func (t Trade) IsZero() bool {
	return t.Quantity == 0 && t.Price == 0 && t.Timestamp.IsZero()
}

// Levels is a fixed-depth book side. Unused slots hold the zero Order.
type Levels [Depth]book.Order

// Orders returns the non-padding prefix.
func (l Levels) Orders() []book.Order {
	out := make([]book.Order, 0, Depth)
	for _, o := range l {
		if o.IsZero() {
			break
		}
		out = append(out, o)
	}
	return out
}

// Tape is the fixed-depth trade history, newest first. Unused slots hold the
// zero Trade.
type Tape [Depth]Trade

func (t Tape) Trades() []Trade {
	out := make([]Trade, 0, Depth)
	for _, tr := range t {
		if tr.IsZero() {
			break
		}
		out = append(out, tr)
	}
	return out
}
