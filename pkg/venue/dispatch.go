package venue

import (
	"context"
	"fmt"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/wire"
)

// Dispatcher turns one request message into one response. Engine errors and
// malformed requests become Reject responses; Handle itself never fails.
type Dispatcher struct {
	seq *Sequencer
}

func NewDispatcher(seq *Sequencer) *Dispatcher {
	return &Dispatcher{seq: seq}
}

func sideToken(s wire.Side) string {
	if s == wire.Buy {
		return book.Buy.String()
	}
	if s == wire.Sell {
		return book.Sell.String()
	}
	return string(rune(s))
}

func statusCode(st engine.OrderStatus) wire.Status {
	switch st {
	case engine.StatusNew:
		return wire.StatusNew
	case engine.StatusFilled:
		return wire.StatusFilled
	}
	return wire.StatusRejected
}

func missing(name string) wire.Message {
	return wire.RejectMsg("missing field " + name)
}

func (d *Dispatcher) Handle(ctx context.Context, req wire.Message) wire.Message {
	var resp wire.Message
	err := d.seq.Exec(ctx, func(e *engine.Engine) {
		resp = d.apply(e, req)
	})
	if err != nil {
		return wire.RejectMsg(err.Error())
	}
	return resp
}

func (d *Dispatcher) apply(e *engine.Engine, req wire.Message) wire.Message {
	switch req.Type {
	case wire.NewOrder:
		side, ok := wire.Lookup[wire.SideField](req)
		if !ok {
			return missing("side")
		}
		qty, ok := wire.Lookup[wire.Quantity](req)
		if !ok {
			return missing("quantity")
		}
		price, ok := wire.Lookup[wire.Price](req)
		if !ok {
			return missing("price")
		}
		id, err := e.Place(sideToken(wire.Side(side)), uint64(qty), float64(price))
		if err != nil {
			return wire.RejectMsg(err.Error())
		}
		return wire.ExecReport(id)

	case wire.OrderReplaceRequest:
		id, ok := wire.Lookup[wire.OrderID](req)
		if !ok {
			return missing("order id")
		}
		qty, ok := wire.Lookup[wire.Quantity](req)
		if !ok {
			return missing("quantity")
		}
		price, ok := wire.Lookup[wire.Price](req)
		if !ok {
			return missing("price")
		}
		if _, err := e.Amend(uint64(id), uint64(qty), float64(price)); err != nil {
			return wire.RejectMsg(err.Error())
		}
		return wire.ExecReport(uint64(id))

	case wire.OrderCancelRequest:
		id, ok := wire.Lookup[wire.OrderID](req)
		if !ok {
			return missing("order id")
		}
		if err := e.Cancel(uint64(id)); err != nil {
			return wire.RejectMsg(err.Error())
		}
		return wire.ExecReport(uint64(id))

	case wire.OrderStatusRequest:
		id, ok := wire.Lookup[wire.OrderID](req)
		if !ok {
			return missing("order id")
		}
		st, err := e.Status(uint64(id))
		if err != nil {
			return wire.RejectMsg(err.Error())
		}
		return wire.ExecStatus(uint64(id), statusCode(st))

	case wire.MarketDataRequest:
		return marketData(e, req)
	}
	return wire.RejectMsg(fmt.Sprintf("invalid message type %s", req.Type))
}

// marketData answers each request field once, in request order. A field's
// presence asks the question; the flag value is not consulted.
func marketData(e *engine.Engine, req wire.Message) wire.Message {
	resp := wire.Message{Type: wire.MarketData}
	seen := make(map[wire.Tag]bool)
	for _, f := range req.Fields {
		if seen[f.Tag()] {
			continue
		}
		seen[f.Tag()] = true

		switch v := f.(type) {
		case wire.VolumeAtLimit:
			resp.Fields = append(resp.Fields, wire.Quantity(e.VolumeAt(float64(v))))
		case wire.MarketPrice:
			mid, err := e.MidPrice()
			if err != nil {
				return wire.RejectMsg(err.Error())
			}
			resp.Fields = append(resp.Fields, wire.Price(mid))
		case wire.MarketTrades:
			resp.Fields = append(resp.Fields, tradesField(e.RecentTrades()))
		case wire.MarketBook:
			bids, asks := e.Book()
			resp.Fields = append(resp.Fields, wire.BookField{Bids: levels(bids), Asks: levels(asks)})
		}
	}
	return resp
}

func tradesField(tape engine.Tape) wire.Trades {
	var out wire.Trades
	for _, t := range tape.Trades() {
		out = append(out, wire.Trade{Quantity: t.Quantity, Price: t.Price, Timestamp: t.Timestamp.UTC()})
	}
	return out
}

func levels(l engine.Levels) []wire.Level {
	var out []wire.Level
	for _, o := range l.Orders() {
		out = append(out, wire.Level{Quantity: o.Quantity, Price: o.Price})
	}
	return out
}
