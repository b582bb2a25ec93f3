package book

import "sort"

// SortedBook keeps each side in one slice, re-sorted after every insert and
// amend. Sorting is stable and new or amended orders are appended before the
// sort, so orders at the same price stay in arrival order.
type SortedBook struct {
	bids []Order // descending price
	asks []Order // ascending price
}

func NewSortedBook() *SortedBook {
	return &SortedBook{}
}

func (b *SortedBook) sortBids() {
	sort.SliceStable(b.bids, func(i, j int) bool { return b.bids[i].Price > b.bids[j].Price })
}

func (b *SortedBook) sortAsks() {
	sort.SliceStable(b.asks, func(i, j int) bool { return b.asks[i].Price < b.asks[j].Price })
}

func (b *SortedBook) Insert(o Order) {
	if o.Side == Buy {
		b.bids = append(b.bids, o)
		b.sortBids()
		return
	}
	b.asks = append(b.asks, o)
	b.sortAsks()
}

func indexOf(orders []Order, id uint64) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (b *SortedBook) slice(s Side) *[]Order {
	if s == Buy {
		return &b.bids
	}
	return &b.asks
}

func (b *SortedBook) RemoveSide(side Side, id uint64) error {
	orders := b.slice(side)
	i := indexOf(*orders, id)
	if i < 0 {
		return ErrNotFound
	}
	*orders = append((*orders)[:i], (*orders)[i+1:]...)
	return nil
}

func (b *SortedBook) Remove(id uint64) error {
	if err := b.RemoveSide(Buy, id); err == nil {
		return nil
	}
	return b.RemoveSide(Sell, id)
}

func (b *SortedBook) AmendSide(side Side, id uint64, quantity uint64, price float64) error {
	orders := b.slice(side)
	i := indexOf(*orders, id)
	if i < 0 {
		return ErrNotFound
	}
	o := (*orders)[i]
	*orders = append((*orders)[:i], (*orders)[i+1:]...)
	o.Quantity = quantity
	o.Price = price
	b.Insert(o)
	return nil
}

func (b *SortedBook) Amend(id uint64, quantity uint64, price float64) error {
	if err := b.AmendSide(Buy, id, quantity, price); err == nil {
		return nil
	}
	return b.AmendSide(Sell, id, quantity, price)
}

func (b *SortedBook) MatchTop() (Match, error) {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return Match{}, ErrNoMatch
	}
	bid, ask := &b.bids[0], &b.asks[0]
	if bid.Price < ask.Price {
		return Match{}, ErrNoMatch
	}

	m := Match{
		BidID:    bid.ID,
		AskID:    ask.ID,
		Quantity: minQty(bid.Quantity, ask.Quantity),
		Price:    ask.Price,
	}
	bid.Quantity -= m.Quantity
	ask.Quantity -= m.Quantity
	if bid.Quantity == 0 {
		b.bids = b.bids[1:]
	}
	if ask.Quantity == 0 {
		b.asks = b.asks[1:]
	}
	return m, nil
}

func (b *SortedBook) BestBid() (Order, bool) {
	if len(b.bids) == 0 {
		return Order{}, false
	}
	return b.bids[0], true
}

func (b *SortedBook) BestAsk() (Order, bool) {
	if len(b.asks) == 0 {
		return Order{}, false
	}
	return b.asks[0], true
}

func (b *SortedBook) VolumeAt(price float64) uint64 {
	var total uint64
	for _, orders := range [][]Order{b.bids, b.asks} {
		for _, o := range orders {
			if o.Price == price {
				total += o.Quantity
			}
		}
	}
	return total
}

func (b *SortedBook) OrderByID(id uint64) (Order, bool) {
	if i := indexOf(b.bids, id); i >= 0 {
		return b.bids[i], true
	}
	if i := indexOf(b.asks, id); i >= 0 {
		return b.asks[i], true
	}
	return Order{}, false
}

func (b *SortedBook) MidPrice() (float64, bool) {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return 0, false
	}
	return (b.bids[0].Price + b.asks[0].Price) / 2, true
}

func (b *SortedBook) Bids(n int) []Order { return head(b.bids, n) }
func (b *SortedBook) Asks(n int) []Order { return head(b.asks, n) }

func head(orders []Order, n int) []Order {
	if n > len(orders) {
		n = len(orders)
	}
	return append([]Order(nil), orders[:n]...)
}

func (b *SortedBook) Len() int { return len(b.bids) + len(b.asks) }

var _ Book = (*SortedBook)(nil)
