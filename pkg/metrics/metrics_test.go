package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
)

func TestObserverCounts(t *testing.T) {
	m := New()
	e := engine.New(book.NewSortedBook(), nil)
	e.Observe(m)

	_, err := e.Place("Buy", 10, 100)
	require.NoError(t, err)
	_, err = e.Place("Buy", 4, 90)
	require.NoError(t, err)
	_, err = e.Place("Sell", 6, 99.5)
	require.NoError(t, err)
	_, err = e.MatchOnce()
	require.NoError(t, err)
	_, err = e.Amend(2, 3, 91)
	require.NoError(t, err)
	require.NoError(t, e.Cancel(2))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersPlaced.WithLabelValues("Buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersPlaced.WithLabelValues("Sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trades))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.tradedQuantity))
	assert.Equal(t, 99.5, testutil.ToFloat64(m.lastPrice))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersAmended))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCanceled))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.RequestServed("NewOrder", "ExecutionReport")
	m.TradeExecuted(engine.Trade{Quantity: 3, Price: 10, Timestamp: time.Now()})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `venue_gateway_requests_total{request="NewOrder",response="ExecutionReport"} 1`)
	assert.Contains(t, string(body), "venue_trades_executed_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
