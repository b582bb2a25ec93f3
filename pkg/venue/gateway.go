package venue

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uhyunpark/matchbook/pkg/wire"
)

const (
	ModeConcurrent = "concurrent"
	ModeSequential = "sequential"

	acceptBackoff = 50 * time.Millisecond
)

type GatewayConfig struct {
	Addr string
	// Mode is ModeConcurrent (one goroutine per connection) or ModeSequential
	// (the next connection is accepted only after the previous one is done).
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxFrame     uint32
}

// Gateway serves the wire protocol over TCP. Every connection carries
// exactly one request and one response.
//
// In sequential mode a client that never finishes its frame blocks every
// other client unless ReadTimeout is set.
type Gateway struct {
	cfg        GatewayConfig
	dispatcher *Dispatcher
	logger     *zap.SugaredLogger
	wg         sync.WaitGroup

	// Requests, if set, is told about every answered request.
	Requests RequestObserver
}

type RequestObserver interface {
	RequestServed(request, response string)
}

func NewGateway(cfg GatewayConfig, d *Dispatcher, logger *zap.SugaredLogger) *Gateway {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeConcurrent
	}
	return &Gateway{cfg: cfg, dispatcher: d, logger: logger}
}

func (g *Gateway) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.cfg.Addr)
	if err != nil {
		return err
	}
	return g.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then closes ln and
// waits for in-flight connections.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	g.logger.Infow("gateway_listening", "addr", ln.Addr().String(), "mode", g.cfg.Mode)
	defer g.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			g.logger.Warnw("gateway_accept_failed", "err", err)
			time.Sleep(acceptBackoff)
			continue
		}

		if g.cfg.Mode == ModeSequential {
			g.handle(ctx, conn)
			continue
		}
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			g.handle(ctx, conn)
		}()
	}
}

func (g *Gateway) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	connID := uuid.NewString()
	remote := conn.RemoteAddr().String()

	if g.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(g.cfg.ReadTimeout))
	}
	req, err := wire.ReadMessage(conn, g.cfg.MaxFrame)
	if err != nil {
		if errors.Is(err, wire.ErrDecode) {
			g.logger.Warnw("request_decode_failed", "conn", connID, "remote", remote, "err", err)
		} else {
			g.logger.Warnw("request_read_failed", "conn", connID, "remote", remote, "err", err)
		}
		return
	}

	resp := g.dispatcher.Handle(ctx, req)
	g.logger.Debugw("request_handled", "conn", connID, "type", req.Type.String(), "response", resp.Type.String())
	if g.Requests != nil {
		g.Requests.RequestServed(req.Type.String(), resp.Type.String())
	}

	if g.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout))
	}
	if err := wire.WriteMessage(conn, resp); err != nil {
		g.logger.Warnw("response_write_failed", "conn", connID, "remote", remote, "err", err)
	}
}
