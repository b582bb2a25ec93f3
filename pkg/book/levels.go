package book

import (
	"container/heap"
	"sort"
)

type locator struct {
	side Side
	tick int64
}

// LevelBook groups orders into FIFO queues per price level. Levels are keyed
// by integer ticks; heaps give the best level in O(1) and an id index makes
// cancellation a direct lookup.
type LevelBook struct {
	bidHeap *tickHeap
	askHeap *tickHeap

	// price level queues, oldest first
	bids map[int64][]*Order
	asks map[int64][]*Order

	index map[uint64]locator
}

func NewLevelBook() *LevelBook {
	return &LevelBook{
		bidHeap: &tickHeap{high: true},
		askHeap: &tickHeap{},
		bids:    make(map[int64][]*Order),
		asks:    make(map[int64][]*Order),
		index:   make(map[uint64]locator),
	}
}

func (b *LevelBook) side(s Side) (map[int64][]*Order, *tickHeap) {
	if s == Buy {
		return b.bids, b.bidHeap
	}
	return b.asks, b.askHeap
}

func (b *LevelBook) Insert(o Order) {
	levels, h := b.side(o.Side)
	tick := Ticks(o.Price)
	if len(levels[tick]) == 0 {
		heap.Push(h, tick)
	}
	cp := o
	levels[tick] = append(levels[tick], &cp)
	b.index[o.ID] = locator{side: o.Side, tick: tick}
}

// take unlinks the order from its level and returns it.
func (b *LevelBook) take(loc locator, id uint64) (Order, bool) {
	levels, h := b.side(loc.side)
	queue := levels[loc.tick]
	for i, o := range queue {
		if o.ID != id {
			continue
		}
		out := *o
		queue = append(queue[:i], queue[i+1:]...)
		if len(queue) == 0 {
			delete(levels, loc.tick)
			h.drop(loc.tick)
		} else {
			levels[loc.tick] = queue
		}
		delete(b.index, id)
		return out, true
	}
	return Order{}, false
}

func (b *LevelBook) Remove(id uint64) error {
	loc, ok := b.index[id]
	if !ok {
		return ErrNotFound
	}
	if _, ok := b.take(loc, id); !ok {
		return ErrNotFound
	}
	return nil
}

func (b *LevelBook) RemoveSide(side Side, id uint64) error {
	loc, ok := b.index[id]
	if !ok || loc.side != side {
		return ErrNotFound
	}
	return b.Remove(id)
}

// Amend re-queues the order at the back of its (possibly new) level.
func (b *LevelBook) Amend(id uint64, quantity uint64, price float64) error {
	loc, ok := b.index[id]
	if !ok {
		return ErrNotFound
	}
	o, ok := b.take(loc, id)
	if !ok {
		return ErrNotFound
	}
	o.Quantity = quantity
	o.Price = price
	b.Insert(o)
	return nil
}

func (b *LevelBook) AmendSide(side Side, id uint64, quantity uint64, price float64) error {
	loc, ok := b.index[id]
	if !ok || loc.side != side {
		return ErrNotFound
	}
	return b.Amend(id, quantity, price)
}

func (b *LevelBook) head(s Side) (*Order, int64, bool) {
	levels, h := b.side(s)
	tick, ok := h.peek()
	if !ok {
		return nil, 0, false
	}
	return levels[tick][0], tick, true
}

func (b *LevelBook) MatchTop() (Match, error) {
	bid, bidTick, okBid := b.head(Buy)
	ask, askTick, okAsk := b.head(Sell)
	if !okBid || !okAsk || bid.Price < ask.Price {
		return Match{}, ErrNoMatch
	}

	m := Match{
		BidID:    bid.ID,
		AskID:    ask.ID,
		Quantity: minQty(bid.Quantity, ask.Quantity),
		Price:    ask.Price,
	}

	// the remainder keeps its place at the head of its level
	bid.Quantity -= m.Quantity
	ask.Quantity -= m.Quantity
	if bid.Quantity == 0 {
		b.take(locator{side: Buy, tick: bidTick}, bid.ID)
	}
	if ask.Quantity == 0 {
		b.take(locator{side: Sell, tick: askTick}, ask.ID)
	}
	return m, nil
}

func (b *LevelBook) BestBid() (Order, bool) {
	o, _, ok := b.head(Buy)
	if !ok {
		return Order{}, false
	}
	return *o, true
}

func (b *LevelBook) BestAsk() (Order, bool) {
	o, _, ok := b.head(Sell)
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// VolumeAt sums both sides at the level of price, counting only orders whose
// price equals it exactly.
func (b *LevelBook) VolumeAt(price float64) uint64 {
	tick := Ticks(price)
	var total uint64
	for _, levels := range []map[int64][]*Order{b.bids, b.asks} {
		for _, o := range levels[tick] {
			if o.Price == price {
				total += o.Quantity
			}
		}
	}
	return total
}

func (b *LevelBook) OrderByID(id uint64) (Order, bool) {
	loc, ok := b.index[id]
	if !ok {
		return Order{}, false
	}
	levels, _ := b.side(loc.side)
	for _, o := range levels[loc.tick] {
		if o.ID == id {
			return *o, true
		}
	}
	return Order{}, false
}

func (b *LevelBook) MidPrice() (float64, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}

func (b *LevelBook) Bids(n int) []Order { return b.depth(Buy, n) }
func (b *LevelBook) Asks(n int) []Order { return b.depth(Sell, n) }

func (b *LevelBook) depth(s Side, n int) []Order {
	levels, h := b.side(s)
	ticks := append([]int64(nil), h.ticks...)
	sort.Slice(ticks, func(i, j int) bool {
		if h.high {
			return ticks[i] > ticks[j]
		}
		return ticks[i] < ticks[j]
	})

	out := make([]Order, 0, n)
	for _, tick := range ticks {
		for _, o := range levels[tick] {
			if len(out) == n {
				return out
			}
			out = append(out, *o)
		}
	}
	return out
}

func (b *LevelBook) Len() int { return len(b.index) }

var _ Book = (*LevelBook)(nil)
