// Package engine sequences the order lifecycle over one book.Book: it
// allocates ids, normalizes prices, and keeps the fill and trade history.
//
// An Engine is not goroutine-safe. The venue package owns it from a single
// goroutine and hands it to callers one closure at a time.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/util"
)

var (
	ErrInvalidSide     = errors.New("invalid side")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must be finite and within (0, 1e13]")
	ErrNotFound        = book.ErrNotFound
	ErrNoMatch         = book.ErrNoMatch
	ErrNoPrice         = errors.New("no price: book side empty")
)

// Depth is the capacity of book snapshots and the trade tape.
const Depth = 10

// OrderStatus is the externally visible state of an order id.
type OrderStatus int8

const (
	StatusNew      OrderStatus = iota // resting in the book
	StatusFilled                      // matched at least once and no longer resting
	StatusRejected                    // unknown, or canceled without a fill
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusFilled:
		return "Filled"
	case StatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Observer receives engine events. Calls happen on the goroutine that owns
// the engine, so implementations must return quickly.
type Observer interface {
	OrderPlaced(o book.Order)
	// OrderAmended carries the order as it rests after the amendment.
	OrderAmended(o book.Order)
	TradeExecuted(t Trade)
	OrderCanceled(id uint64)
}

type Engine struct {
	book   book.Book
	clock  util.Clock
	nextID uint64

	fills    []uint64
	filled   map[uint64]struct{}
	trades   []Trade // oldest first, at most Depth
	canceled map[uint64]struct{}

	observers []Observer
}

func New(b book.Book, clock util.Clock) *Engine {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Engine{
		book:     b,
		clock:    clock,
		filled:   make(map[uint64]struct{}),
		canceled: make(map[uint64]struct{}),
	}
}

// Observe registers o for every subsequent event.
func (e *Engine) Observe(o Observer) {
	e.observers = append(e.observers, o)
}

// NormalizePrice rounds p half away from zero to two decimals.
func NormalizePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return p
	}
	return decimal.NewFromFloat(p).Round(2).InexactFloat64()
}

func validate(quantity uint64, price float64) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 || price > book.MaxPrice {
		return ErrInvalidPrice
	}
	return nil
}

// Place rests a new order and returns its id. Ids start at 1 and are never
// reused; a rejected order does not consume one.
func (e *Engine) Place(side string, quantity uint64, price float64) (uint64, error) {
	s, ok := book.ParseSide(side)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrInvalidSide, side)
	}
	price = NormalizePrice(price)
	if err := validate(quantity, price); err != nil {
		return 0, err
	}

	e.nextID++
	o := book.Order{ID: e.nextID, Side: s, Quantity: quantity, Price: price}
	e.book.Insert(o)

	for _, obs := range e.observers {
		obs.OrderPlaced(o)
	}
	return o.ID, nil
}

// Amend replaces quantity and price of a resting order, trying the bid side
// first and then the ask side. The order moves to the back of its level.
func (e *Engine) Amend(id uint64, quantity uint64, price float64) (uint64, error) {
	price = NormalizePrice(price)
	if err := validate(quantity, price); err != nil {
		return 0, err
	}
	if err := e.book.AmendSide(book.Buy, id, quantity, price); err != nil {
		if err := e.book.AmendSide(book.Sell, id, quantity, price); err != nil {
			return 0, fmt.Errorf("order %d: %w", id, err)
		}
	}

	o, _ := e.book.OrderByID(id)
	for _, obs := range e.observers {
		obs.OrderAmended(o)
	}
	return id, nil
}

// Cancel removes a resting order using the same bid-then-ask fallback.
func (e *Engine) Cancel(id uint64) error {
	if err := e.book.RemoveSide(book.Buy, id); err != nil {
		if err := e.book.RemoveSide(book.Sell, id); err != nil {
			return fmt.Errorf("order %d: %w", id, err)
		}
	}
	e.canceled[id] = struct{}{}
	for _, obs := range e.observers {
		obs.OrderCanceled(id)
	}
	return nil
}

// Status never fails today. A canceled id reports Rejected, the same as an id
// that never existed; use Canceled to tell them apart.
func (e *Engine) Status(id uint64) (OrderStatus, error) {
	if _, ok := e.book.OrderByID(id); ok {
		return StatusNew, nil
	}
	if _, ok := e.filled[id]; ok {
		return StatusFilled, nil
	}
	return StatusRejected, nil
}

// Canceled reports whether id was removed by Cancel.
func (e *Engine) Canceled(id uint64) bool {
	_, ok := e.canceled[id]
	return ok
}

// MatchOnce executes at most one top-of-book match.
func (e *Engine) MatchOnce() (Trade, error) {
	m, err := e.book.MatchTop()
	if err != nil {
		return Trade{}, err
	}

	e.recordFill(m.BidID)
	e.recordFill(m.AskID)

	t := Trade{
		BidID:     m.BidID,
		AskID:     m.AskID,
		Quantity:  m.Quantity,
		Price:     m.Price,
		Timestamp: e.clock.Now().UTC(),
	}
	e.trades = append(e.trades, t)
	if len(e.trades) > Depth {
		e.trades = e.trades[len(e.trades)-Depth:]
	}

	for _, obs := range e.observers {
		obs.TradeExecuted(t)
	}
	return t, nil
}

func (e *Engine) recordFill(id uint64) {
	e.fills = append(e.fills, id)
	e.filled[id] = struct{}{}
}

// FillHistory returns every id that took part in a match, in match order.
// An id partially filled more than once appears more than once.
func (e *Engine) FillHistory() []uint64 {
	return append([]uint64(nil), e.fills...)
}

func (e *Engine) MidPrice() (float64, error) {
	mid, ok := e.book.MidPrice()
	if !ok {
		return 0, ErrNoPrice
	}
	return mid, nil
}

// VolumeAt sums resting quantity on both sides at exactly price, after
// normalizing price the same way orders are.
func (e *Engine) VolumeAt(price float64) uint64 {
	return e.book.VolumeAt(NormalizePrice(price))
}

// Book returns the top Depth orders of each side, best first, zero-padded.
func (e *Engine) Book() (bids, asks Levels) {
	copy(bids[:], e.book.Bids(Depth))
	copy(asks[:], e.book.Asks(Depth))
	return bids, asks
}

// RecentTrades returns the last Depth trades, newest first, zero-padded.
func (e *Engine) RecentTrades() Tape {
	var tape Tape
	for i := range e.trades {
		tape[i] = e.trades[len(e.trades)-1-i]
	}
	return tape
}

// Resting is the number of orders currently in the book.
func (e *Engine) Resting() int { return e.book.Len() }
