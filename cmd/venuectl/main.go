package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/uhyunpark/matchbook/pkg/client"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6379", "venue TCP address")
	timeout := flag.Duration("timeout", 5*time.Second, "round-trip timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	// Malformed arguments fail before dialing
	cmd, err := parseCommand(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s", err, usage)
		os.Exit(2)
	}

	c := client.New(*addr)
	c.Timeout = *timeout

	if err := run(context.Background(), c, cmd, os.Stdout); err != nil {
		var rej *client.RejectError
		if errors.As(err, &rej) {
			fmt.Fprintf(os.Stderr, "Rejected: %s\n", rej.Reason)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
