// Package book holds the resting orders of the single instrument and performs
// one top-of-book match at a time. Two interchangeable realizations share the
// Book contract: LevelBook (price-level FIFO queues, the default) and
// SortedBook (two stably sorted slices).
//
// A Book is not safe for concurrent use; the engine's owner serializes access.
package book

import (
	"errors"
	"fmt"
	"math"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// ParseSide accepts the textual tokens "Buy" and "Sell" only.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "Buy":
		return Buy, true
	case "Sell":
		return Sell, true
	}
	return 0, false
}

// Order is a resting limit order. Price is expected to be normalized to two
// decimals before it reaches the book.
type Order struct {
	ID       uint64  `json:"id"`
	Side     Side    `json:"side"`
	Quantity uint64  `json:"quantity"`
	Price    float64 `json:"price"`
}

// IsZero reports whether o is a padding entry.
func (o Order) IsZero() bool { return o == Order{} }

// Match is the outcome of one top-of-book execution.
type Match struct {
	BidID    uint64
	AskID    uint64
	Quantity uint64
	Price    float64
}

var (
	ErrNotFound = errors.New("order not found")
	ErrNoMatch  = errors.New("no matching orders")
)

// Book is the capability set shared by both strategies.
type Book interface {
	Insert(o Order)
	Remove(id uint64) error
	RemoveSide(side Side, id uint64) error
	Amend(id uint64, quantity uint64, price float64) error
	AmendSide(side Side, id uint64, quantity uint64, price float64) error
	// MatchTop executes at most one match between the best bid and best ask.
	// The execution price is the ask's price.
	MatchTop() (Match, error)

	BestBid() (Order, bool)
	BestAsk() (Order, bool)
	VolumeAt(price float64) uint64
	OrderByID(id uint64) (Order, bool)
	MidPrice() (float64, bool)
	// Bids and Asks return at most n orders, best first.
	Bids(n int) []Order
	Asks(n int) []Order
	Len() int
}

// Kind names a Book strategy.
type Kind string

const (
	Levels Kind = "levels"
	Sorted Kind = "sorted"
)

func New(kind Kind) (Book, error) {
	switch kind {
	case Levels, "":
		return NewLevelBook(), nil
	case Sorted:
		return NewSortedBook(), nil
	}
	return nil, fmt.Errorf("unknown book strategy %q", kind)
}

// MaxPrice is the largest price a book accepts. Below it every two-decimal
// price maps to a distinct cent count that float64 represents exactly.
const MaxPrice = 1e13

// Ticks converts a two-decimal price into integer cents. Prices above
// MaxPrice do not keep their ordering.
func Ticks(price float64) int64 {
	return int64(math.Round(price * 100))
}

func minQty(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
