package feed

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/util"
)

type published struct {
	subject string
	data    []byte
}

type capture struct {
	msgs []published
	err  error
}

func (c *capture) Publish(subject string, data []byte) error {
	c.msgs = append(c.msgs, published{subject, data})
	return c.err
}

func TestFeedPublishesEngineEvents(t *testing.T) {
	pub := &capture{}
	start := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	e := engine.New(book.NewLevelBook(), util.NewManualClock(start))
	e.Observe(New(pub, "venue", nil))

	_, err := e.Place("Buy", 5, 10.5)
	require.NoError(t, err)
	_, err = e.Place("Sell", 5, 10)
	require.NoError(t, err)
	_, err = e.MatchOnce()
	require.NoError(t, err)
	id, _ := e.Place("Sell", 1, 30)
	_, err = e.Amend(id, 2, 31)
	require.NoError(t, err)
	require.NoError(t, e.Cancel(id))

	require.Len(t, pub.msgs, 6)
	subjects := make([]string, len(pub.msgs))
	for i, m := range pub.msgs {
		subjects[i] = m.subject
	}
	assert.Equal(t, []string{"venue.orders", "venue.orders", "venue.trades", "venue.orders", "venue.amends", "venue.cancels"}, subjects)

	var order OrderEvent
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &order))
	assert.Equal(t, OrderEvent{ID: 1, Side: "Buy", Quantity: 5, Price: 10.5}, order)

	var trade TradeEvent
	require.NoError(t, json.Unmarshal(pub.msgs[2].data, &trade))
	assert.Equal(t, TradeEvent{BidID: 1, AskID: 2, Quantity: 5, Price: 10, Timestamp: start.UnixMilli()}, trade)

	var amended OrderEvent
	require.NoError(t, json.Unmarshal(pub.msgs[4].data, &amended))
	assert.Equal(t, OrderEvent{ID: 3, Side: "Sell", Quantity: 2, Price: 31}, amended)

	assert.JSONEq(t, `{"id":3}`, string(pub.msgs[5].data))
}

func TestFeedSurvivesPublishErrors(t *testing.T) {
	pub := &capture{err: errors.New("nats: connection closed")}
	f := New(pub, "venue", nil)

	assert.NotPanics(t, func() { f.OrderCanceled(1) })
	assert.Len(t, pub.msgs, 1)
	assert.NoError(t, f.Close())
}
