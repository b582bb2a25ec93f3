package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/uhyunpark/matchbook/pkg/client"
	"github.com/uhyunpark/matchbook/pkg/wire"
)

// command is a parsed invocation, ready to run against a client.
type command struct {
	name  string
	id    uint64
	qty   uint64
	price float64
}

const usage = `usage: venuectl [-addr host:port] <command> [args]

commands:
  buy q,p          place a bid of q lots at price p
  sell q,p         place an ask of q lots at price p
  amend id,q,p     replace quantity and price of order id
  cancel id        cancel order id
  report id        status of order id (N=new, F=filled, R=rejected)
  volume p         resting quantity at price p
  price            current mid price
  trades           recent trades, newest first
  book             top of book, both sides
`

// parseCommand validates the arguments without touching the network.
func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, fmt.Errorf("missing command")
	}
	cmd := command{name: args[0]}
	rest := args[1:]

	want := 0
	switch cmd.name {
	case "buy", "sell", "amend", "cancel", "report", "volume":
		want = 1
	case "price", "trades", "book":
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
	if len(rest) != want {
		return command{}, fmt.Errorf("%s: expected %d argument(s), got %d", cmd.name, want, len(rest))
	}
	if want == 0 {
		return cmd, nil
	}

	parts := strings.Split(rest[0], ",")
	var err error
	switch cmd.name {
	case "buy", "sell":
		if len(parts) != 2 {
			return command{}, fmt.Errorf("%s: want quantity,price, got %q", cmd.name, rest[0])
		}
		if cmd.qty, err = parseQty(parts[0]); err != nil {
			return command{}, fmt.Errorf("%s: %w", cmd.name, err)
		}
		if cmd.price, err = parsePrice(parts[1]); err != nil {
			return command{}, fmt.Errorf("%s: %w", cmd.name, err)
		}
	case "amend":
		if len(parts) != 3 {
			return command{}, fmt.Errorf("amend: want id,quantity,price, got %q", rest[0])
		}
		if cmd.id, err = parseID(parts[0]); err != nil {
			return command{}, fmt.Errorf("amend: %w", err)
		}
		if cmd.qty, err = parseQty(parts[1]); err != nil {
			return command{}, fmt.Errorf("amend: %w", err)
		}
		if cmd.price, err = parsePrice(parts[2]); err != nil {
			return command{}, fmt.Errorf("amend: %w", err)
		}
	case "cancel", "report":
		if cmd.id, err = parseID(rest[0]); err != nil {
			return command{}, fmt.Errorf("%s: %w", cmd.name, err)
		}
	case "volume":
		if cmd.price, err = parsePrice(rest[0]); err != nil {
			return command{}, fmt.Errorf("volume: %w", err)
		}
	}
	return cmd, nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid order id %q", s)
	}
	return id, nil
}

func parseQty(s string) (uint64, error) {
	q, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return q, nil
}

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return p, nil
}

// run executes cmd and prints the outcome to w.
func run(ctx context.Context, c *client.Client, cmd command, w io.Writer) error {
	switch cmd.name {
	case "buy", "sell":
		place := c.Buy
		if cmd.name == "sell" {
			place = c.Sell
		}
		id, err := place(ctx, cmd.qty, cmd.price)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "order %d accepted\n", id)
	case "amend":
		id, err := c.Amend(ctx, cmd.id, cmd.qty, cmd.price)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "order %d amended\n", id)
	case "cancel":
		if err := c.Cancel(ctx, cmd.id); err != nil {
			return err
		}
		fmt.Fprintf(w, "order %d canceled\n", cmd.id)
	case "report":
		st, err := c.Status(ctx, cmd.id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "order %d: %s\n", cmd.id, statusName(st))
	case "volume":
		v, err := c.Volume(ctx, cmd.price)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "volume at %g: %d\n", cmd.price, v)
	case "price":
		p, err := c.Price(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "price: %g\n", p)
	case "trades":
		trades, err := c.Trades(ctx)
		if err != nil {
			return err
		}
		if len(trades) == 0 {
			fmt.Fprintln(w, "no trades")
		}
		for _, t := range trades {
			fmt.Fprintf(w, "%s  %d @ %g\n", t.Timestamp.Format(wire.TimeLayout), t.Quantity, t.Price)
		}
	case "book":
		b, err := c.Book(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "asks:")
		for i := len(b.Asks) - 1; i >= 0; i-- {
			fmt.Fprintf(w, "  %d @ %g\n", b.Asks[i].Quantity, b.Asks[i].Price)
		}
		fmt.Fprintln(w, "bids:")
		for _, l := range b.Bids {
			fmt.Fprintf(w, "  %d @ %g\n", l.Quantity, l.Price)
		}
	}
	return nil
}

func statusName(st wire.Status) string {
	switch st {
	case wire.StatusNew:
		return "New"
	case wire.StatusFilled:
		return "Filled"
	case wire.StatusRejected:
		return "Rejected"
	}
	return string(rune(st))
}
