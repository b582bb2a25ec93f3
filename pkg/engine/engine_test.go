package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/util"
)

var epoch = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func newEngines(t *testing.T) map[string]*Engine {
	t.Helper()
	out := make(map[string]*Engine)
	for _, kind := range []book.Kind{book.Levels, book.Sorted} {
		b, err := book.New(kind)
		require.NoError(t, err)
		out[string(kind)] = New(b, util.NewManualClock(epoch))
	}
	return out
}

func each(t *testing.T, fn func(t *testing.T, e *Engine)) {
	for name, e := range newEngines(t) {
		t.Run(name, func(t *testing.T) { fn(t, e) })
	}
}

type recorder struct {
	placed   []book.Order
	amended  []book.Order
	trades   []Trade
	canceled []uint64
}

func (r *recorder) OrderPlaced(o book.Order)  { r.placed = append(r.placed, o) }
func (r *recorder) OrderAmended(o book.Order) { r.amended = append(r.amended, o) }
func (r *recorder) TradeExecuted(t Trade)     { r.trades = append(r.trades, t) }
func (r *recorder) OrderCanceled(id uint64)   { r.canceled = append(r.canceled, id) }

func TestPlaceAllocatesSequentialIDs(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		for want := uint64(1); want <= 20; want++ {
			id, err := e.Place("Buy", 1, float64(want))
			require.NoError(t, err)
			assert.Equal(t, want, id)
		}
		require.NoError(t, e.Cancel(20))
		id, err := e.Place("Sell", 1, 500)
		require.NoError(t, err)
		assert.Equal(t, uint64(21), id)
	})
}

func TestPlaceRejections(t *testing.T) {
	tests := []struct {
		name  string
		side  string
		qty   uint64
		price float64
		err   error
	}{
		{"lowercase side", "buy", 1, 10, ErrInvalidSide},
		{"empty side", "", 1, 10, ErrInvalidSide},
		{"zero quantity", "Buy", 0, 10, ErrInvalidQuantity},
		{"zero price", "Sell", 1, 0, ErrInvalidPrice},
		{"rounds to zero", "Sell", 1, 0.004, ErrInvalidPrice},
		{"negative price", "Sell", 1, -3, ErrInvalidPrice},
		{"nan", "Buy", 1, math.NaN(), ErrInvalidPrice},
		{"inf", "Buy", 1, math.Inf(1), ErrInvalidPrice},
		{"above max price", "Buy", 1, 1e18, ErrInvalidPrice},
		{"just above max price", "Sell", 1, book.MaxPrice + 0.01, ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(book.NewLevelBook(), nil)
			_, err := e.Place(tt.side, tt.qty, tt.price)
			assert.ErrorIs(t, err, tt.err)

			// rejected orders do not consume ids
			id, err := e.Place("Buy", 1, 1)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), id)
		})
	}
}

func TestLargePricesStillCross(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		_, err := e.Place("Buy", 1, 1e18)
		assert.ErrorIs(t, err, ErrInvalidPrice)

		_, _ = e.Place("Buy", 1, 100)
		bid, err := e.Place("Buy", 1, book.MaxPrice)
		require.NoError(t, err)
		ask, err := e.Place("Sell", 1, book.MaxPrice)
		require.NoError(t, err)

		_, err = e.Amend(ask, 1, 1e18)
		assert.ErrorIs(t, err, ErrInvalidPrice)

		tr, err := e.MatchOnce()
		require.NoError(t, err)
		assert.Equal(t, bid, tr.BidID)
		assert.Equal(t, ask, tr.AskID)
		assert.Equal(t, float64(book.MaxPrice), tr.Price)
	})
}

func TestCanceledAfterPartialFillReportsFilled(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		bid, _ := e.Place("Buy", 100, 99)
		_, _ = e.Place("Sell", 50, 99)
		_, err := e.MatchOnce()
		require.NoError(t, err)

		st, err := e.Status(bid)
		require.NoError(t, err)
		assert.Equal(t, StatusNew, st)

		require.NoError(t, e.Cancel(bid))
		st, err = e.Status(bid)
		require.NoError(t, err)
		assert.Equal(t, StatusFilled, st)
		assert.True(t, e.Canceled(bid))
	})
}

func TestNormalizePrice(t *testing.T) {
	assert.Equal(t, 99.13, NormalizePrice(99.125))
	assert.Equal(t, 100.0, NormalizePrice(99.999))
	assert.Equal(t, 0.01, NormalizePrice(0.005))
	assert.Equal(t, 42.0, NormalizePrice(42))
	assert.True(t, math.IsNaN(NormalizePrice(math.NaN())))
}

func TestMatchOnceRecordsFillAndTrade(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		rec := &recorder{}
		e.Observe(rec)

		bid, _ := e.Place("Buy", 100, 99)
		ask, _ := e.Place("Sell", 50, 99)

		tr, err := e.MatchOnce()
		require.NoError(t, err)
		assert.Equal(t, uint64(50), tr.Quantity)
		assert.Equal(t, 99.0, tr.Price)
		assert.Equal(t, epoch, tr.Timestamp)
		assert.Equal(t, bid, tr.BidID)
		assert.Equal(t, ask, tr.AskID)

		assert.Equal(t, []uint64{bid, ask}, e.FillHistory())

		st, err := e.Status(bid)
		require.NoError(t, err)
		assert.Equal(t, StatusNew, st)
		st, _ = e.Status(ask)
		assert.Equal(t, StatusFilled, st)

		bids, asks := e.Book()
		assert.Equal(t, uint64(50), bids[0].Quantity)
		assert.True(t, asks[0].IsZero())

		require.Len(t, rec.trades, 1)
		assert.Len(t, rec.placed, 2)
	})
}

func TestMatchOnceNoCross(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		_, _ = e.Place("Buy", 10, 99)
		_, _ = e.Place("Sell", 10, 101)
		for i := 0; i < 3; i++ {
			_, err := e.MatchOnce()
			assert.ErrorIs(t, err, ErrNoMatch)
		}
		assert.Empty(t, e.FillHistory())
	})
}

func TestStatusPartition(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		resting, _ := e.Place("Buy", 10, 50)
		filledBid, _ := e.Place("Buy", 5, 60)
		filledAsk, _ := e.Place("Sell", 5, 55)
		canceled, _ := e.Place("Sell", 5, 70)

		_, err := e.MatchOnce()
		require.NoError(t, err)
		require.NoError(t, e.Cancel(canceled))

		tests := []struct {
			id   uint64
			want OrderStatus
		}{
			{resting, StatusNew},
			{filledBid, StatusFilled},
			{filledAsk, StatusFilled},
			{canceled, StatusRejected},
			{999, StatusRejected},
		}
		for _, tt := range tests {
			got, err := e.Status(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "id %d", tt.id)
		}

		assert.True(t, e.Canceled(canceled))
		assert.False(t, e.Canceled(999))
	})
}

func TestAmendAndCancelFallback(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		rec := &recorder{}
		e.Observe(rec)

		bid, _ := e.Place("Buy", 10, 50)
		ask, _ := e.Place("Sell", 10, 60)

		id, err := e.Amend(ask, 7, 61.456)
		require.NoError(t, err)
		assert.Equal(t, ask, id)
		_, asks := e.Book()
		assert.Equal(t, book.Order{ID: ask, Side: book.Sell, Quantity: 7, Price: 61.46}, asks[0])

		_, err = e.Amend(bid, 12, 51)
		require.NoError(t, err)

		_, err = e.Amend(404, 1, 1)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "order 404: order not found")
		assert.Equal(t, []book.Order{
			{ID: ask, Side: book.Sell, Quantity: 7, Price: 61.46},
			{ID: bid, Side: book.Buy, Quantity: 12, Price: 51},
		}, rec.amended)

		require.NoError(t, e.Cancel(ask))
		assert.ErrorIs(t, e.Cancel(ask), ErrNotFound)
		assert.Equal(t, []uint64{ask}, rec.canceled)
		assert.Equal(t, 1, e.Resting())
	})
}

func TestMidPrice(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		_, err := e.MidPrice()
		assert.ErrorIs(t, err, ErrNoPrice)

		_, _ = e.Place("Buy", 1, 99)
		_, err = e.MidPrice()
		assert.ErrorIs(t, err, ErrNoPrice)

		_, _ = e.Place("Sell", 1, 100)
		mid, err := e.MidPrice()
		require.NoError(t, err)
		assert.Equal(t, 99.5, mid)
	})
}

func TestVolumeAtNormalizesQuery(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		_, _ = e.Place("Buy", 10, 10.001)
		_, _ = e.Place("Sell", 5, 10)
		_, _ = e.Place("Sell", 5, 10.01)

		assert.Equal(t, uint64(15), e.VolumeAt(10))
		assert.Equal(t, uint64(15), e.VolumeAt(9.999))
		assert.Equal(t, uint64(5), e.VolumeAt(10.01))
	})
}

func TestRecentTradesCapping(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		for i := 1; i <= 3; i++ {
			_, _ = e.Place("Buy", uint64(i), 100)
			_, _ = e.Place("Sell", uint64(i), 100)
			_, err := e.MatchOnce()
			require.NoError(t, err)
		}
		tape := e.RecentTrades()
		require.Len(t, tape.Trades(), 3)
		assert.Equal(t, uint64(3), tape[0].Quantity)
		assert.Equal(t, uint64(1), tape[2].Quantity)
		for _, tr := range tape[3:] {
			assert.True(t, tr.IsZero())
		}

		for i := 4; i <= 15; i++ {
			_, _ = e.Place("Buy", uint64(i), 100)
			_, _ = e.Place("Sell", uint64(i), 100)
			_, err := e.MatchOnce()
			require.NoError(t, err)
		}
		tape = e.RecentTrades()
		got := tape.Trades()
		require.Len(t, got, Depth)
		for i, tr := range got {
			assert.Equal(t, uint64(15-i), tr.Quantity)
		}
	})
}

func TestBookSnapshotPadding(t *testing.T) {
	each(t, func(t *testing.T, e *Engine) {
		for i := 1; i <= 12; i++ {
			_, _ = e.Place("Buy", 1, float64(i))
		}
		_, _ = e.Place("Sell", 1, 50)

		bids, asks := e.Book()
		assert.Len(t, bids.Orders(), Depth)
		assert.Equal(t, 12.0, bids[0].Price)
		assert.Len(t, asks.Orders(), 1)
		assert.True(t, asks[1].IsZero())
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "New", StatusNew.String())
	assert.Equal(t, "Filled", StatusFilled.String())
	assert.Equal(t, "Rejected", StatusRejected.String())
}
