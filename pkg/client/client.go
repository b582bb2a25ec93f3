// Package client speaks the wire protocol to a running venue. Each call
// opens a connection, sends one request and reads one response.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/uhyunpark/matchbook/pkg/wire"
)

// RejectError carries the reason of a Reject response.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string { return "rejected: " + e.Reason }

var ErrUnexpectedResponse = errors.New("client: unexpected response")

type Client struct {
	Addr    string
	Timeout time.Duration
}

func New(addr string) *Client {
	return &Client{Addr: addr, Timeout: 5 * time.Second}
}

// Do performs one round trip. A Reject response is returned as the message
// together with a *RejectError.
func (c *Client) Do(ctx context.Context, req wire.Message) (wire.Message, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return wire.Message{}, err
	}
	defer conn.Close()

	if c.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.Timeout))
	}
	if err := wire.WriteMessage(conn, req); err != nil {
		return wire.Message{}, fmt.Errorf("send %s: %w", req.Type, err)
	}
	resp, err := wire.ReadMessage(conn, 0)
	if err != nil {
		return wire.Message{}, fmt.Errorf("read response: %w", err)
	}
	if resp.Type == wire.Reject {
		reason, _ := wire.Lookup[wire.Reason](resp)
		return resp, &RejectError{Reason: string(reason)}
	}
	return resp, nil
}

func (c *Client) orderID(ctx context.Context, req wire.Message) (uint64, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	id, ok := wire.Lookup[wire.OrderID](resp)
	if resp.Type != wire.ExecutionReport || !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedResponse, wire.Encode(resp))
	}
	return uint64(id), nil
}

func (c *Client) Buy(ctx context.Context, qty uint64, price float64) (uint64, error) {
	return c.orderID(ctx, wire.NewOrderMsg(wire.Buy, qty, price))
}

func (c *Client) Sell(ctx context.Context, qty uint64, price float64) (uint64, error) {
	return c.orderID(ctx, wire.NewOrderMsg(wire.Sell, qty, price))
}

func (c *Client) Amend(ctx context.Context, id, qty uint64, price float64) (uint64, error) {
	return c.orderID(ctx, wire.AmendMsg(id, qty, price))
}

func (c *Client) Cancel(ctx context.Context, id uint64) error {
	_, err := c.orderID(ctx, wire.CancelMsg(id))
	return err
}

func (c *Client) Status(ctx context.Context, id uint64) (wire.Status, error) {
	resp, err := c.Do(ctx, wire.StatusMsg(id))
	if err != nil {
		return 0, err
	}
	st, ok := wire.Lookup[wire.StatusField](resp)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedResponse, wire.Encode(resp))
	}
	return wire.Status(st), nil
}

func (c *Client) marketData(ctx context.Context, f wire.Field) (wire.Message, error) {
	resp, err := c.Do(ctx, wire.Message{Type: wire.MarketDataRequest, Fields: []wire.Field{f}})
	if err != nil {
		return wire.Message{}, err
	}
	if resp.Type != wire.MarketData {
		return wire.Message{}, fmt.Errorf("%w: %s", ErrUnexpectedResponse, wire.Encode(resp))
	}
	return resp, nil
}

func (c *Client) Volume(ctx context.Context, price float64) (uint64, error) {
	resp, err := c.marketData(ctx, wire.VolumeAtLimit(price))
	if err != nil {
		return 0, err
	}
	q, _ := wire.Lookup[wire.Quantity](resp)
	return uint64(q), nil
}

func (c *Client) Price(ctx context.Context) (float64, error) {
	resp, err := c.marketData(ctx, wire.MarketPrice(true))
	if err != nil {
		return 0, err
	}
	p, _ := wire.Lookup[wire.Price](resp)
	return float64(p), nil
}

func (c *Client) Trades(ctx context.Context) ([]wire.Trade, error) {
	resp, err := c.marketData(ctx, wire.MarketTrades(true))
	if err != nil {
		return nil, err
	}
	trades, _ := wire.Lookup[wire.Trades](resp)
	return trades, nil
}

func (c *Client) Book(ctx context.Context) (wire.Book, error) {
	resp, err := c.marketData(ctx, wire.MarketBook(true))
	if err != nil {
		return wire.Book{}, err
	}
	b, _ := wire.Lookup[wire.BookField](resp)
	return wire.Book(b), nil
}
