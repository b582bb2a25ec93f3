// Package venue runs the engine for a live process: a sequencer goroutine
// that owns the engine, the TCP gateway that speaks the wire protocol, the
// background matcher and the mid-price sampler used by the HTTP facade.
package venue

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/uhyunpark/matchbook/pkg/engine"
)

var ErrStopped = errors.New("venue: sequencer stopped")

type op struct {
	fn   func(*engine.Engine)
	done chan error
}

// Sequencer serializes all engine access. Run owns the engine; every other
// goroutine reaches it through Exec. Operations execute in hand-off order
// with no fairness between callers.
type Sequencer struct {
	eng    *engine.Engine
	ops    chan op
	done   chan struct{}
	logger *zap.SugaredLogger
}

func NewSequencer(eng *engine.Engine, logger *zap.SugaredLogger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sequencer{
		eng:    eng,
		ops:    make(chan op),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes operations until ctx is canceled. It must be called once.
func (s *Sequencer) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o := <-s.ops:
			o.done <- s.apply(o.fn)
		}
	}
}

func (s *Sequencer) apply(fn func(*engine.Engine)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("sequencer_op_panic", "panic", r)
			err = fmt.Errorf("venue: operation panicked: %v", r)
		}
	}()
	fn(s.eng)
	return nil
}

// Exec runs fn on the sequencer goroutine and waits for it to return. fn must
// not block and must not keep references to engine state after returning.
func (s *Sequencer) Exec(ctx context.Context, fn func(*engine.Engine)) error {
	o := op{fn: fn, done: make(chan error, 1)}
	select {
	case s.ops <- o:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
	// accepted operations always complete
	return <-o.done
}

// Stopped is closed once Run has returned.
func (s *Sequencer) Stopped() <-chan struct{} { return s.done }
