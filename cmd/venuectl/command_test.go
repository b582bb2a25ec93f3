package main

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/client"
	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/util"
	"github.com/uhyunpark/matchbook/pkg/venue"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args []string
		want command
	}{
		{[]string{"buy", "10,99.5"}, command{name: "buy", qty: 10, price: 99.5}},
		{[]string{"sell", " 3 , 101 "}, command{name: "sell", qty: 3, price: 101}},
		{[]string{"amend", "7,5,98"}, command{name: "amend", id: 7, qty: 5, price: 98}},
		{[]string{"cancel", "7"}, command{name: "cancel", id: 7}},
		{[]string{"report", "12"}, command{name: "report", id: 12}},
		{[]string{"volume", "99"}, command{name: "volume", price: 99}},
		{[]string{"price"}, command{name: "price"}},
		{[]string{"trades"}, command{name: "trades"}},
		{[]string{"book"}, command{name: "book"}},
	}
	for _, tc := range tests {
		got, err := parseCommand(tc.args)
		require.NoError(t, err, "%v", tc.args)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseCommandRejects(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "missing command"},
		{[]string{"hold"}, `unknown command "hold"`},
		{[]string{"buy"}, "buy: expected 1 argument(s), got 0"},
		{[]string{"price", "now"}, "price: expected 0 argument(s), got 1"},
		{[]string{"buy", "10"}, `buy: want quantity,price, got "10"`},
		{[]string{"sell", "x,99"}, `sell: invalid quantity "x"`},
		{[]string{"sell", "-1,99"}, `sell: invalid quantity "-1"`},
		{[]string{"buy", "1,abc"}, `buy: invalid price "abc"`},
		{[]string{"amend", "1,2"}, `amend: want id,quantity,price, got "1,2"`},
		{[]string{"amend", "a,2,3"}, `amend: invalid order id "a"`},
		{[]string{"cancel", "seven"}, `cancel: invalid order id "seven"`},
		{[]string{"volume", "?"}, `volume: invalid price "?"`},
	}
	for _, tc := range tests {
		_, err := parseCommand(tc.args)
		assert.EqualError(t, err, tc.want, "%v", tc.args)
	}
}

func TestRunAgainstVenue(t *testing.T) {
	eng := engine.New(book.NewLevelBook(), util.NewManualClock(time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)))
	seq := venue.NewSequencer(eng, nil)
	gw := venue.NewGateway(venue.GatewayConfig{}, venue.NewDispatcher(seq), nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = seq.Run(ctx) }()
	served := make(chan struct{})
	go func() {
		_ = gw.Serve(ctx, ln)
		close(served)
	}()
	defer func() {
		cancel()
		<-served
	}()

	c := client.New(ln.Addr().String())
	exec := func(args ...string) string {
		t.Helper()
		cmd, err := parseCommand(args)
		require.NoError(t, err)
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), c, cmd, &out))
		return out.String()
	}

	assert.Equal(t, "order 1 accepted\n", exec("buy", "10,99"))
	assert.Equal(t, "order 2 accepted\n", exec("sell", "4,101"))
	assert.Equal(t, "order 2 amended\n", exec("amend", "2,4,100"))
	assert.Equal(t, "order 1: New\n", exec("report", "1"))
	assert.Equal(t, "volume at 99: 10\n", exec("volume", "99"))
	assert.Equal(t, "price: 99.5\n", exec("price"))
	assert.Equal(t, "no trades\n", exec("trades"))
	assert.Equal(t, "asks:\n  4 @ 100\nbids:\n  10 @ 99\n", exec("book"))
	assert.Equal(t, "order 1 canceled\n", exec("cancel", "1"))
	assert.Equal(t, "order 1: Rejected\n", exec("report", "1"))

	cmd, err := parseCommand([]string{"cancel", "1"})
	require.NoError(t, err)
	var rej *client.RejectError
	assert.ErrorAs(t, run(context.Background(), c, cmd, &bytes.Buffer{}), &rej)
}
