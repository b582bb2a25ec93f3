package venue

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/util"
)

// Matcher attempts one match per interval. A book that does not cross is the
// normal case and is not reported.
type Matcher struct {
	seq      *Sequencer
	interval time.Duration
	clock    util.Clock
	logger   *zap.SugaredLogger
}

func NewMatcher(seq *Sequencer, interval time.Duration, clock util.Clock, logger *zap.SugaredLogger) *Matcher {
	if clock == nil {
		clock = util.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Matcher{seq: seq, interval: interval, clock: clock, logger: logger}
}

// Run returns when ctx is canceled or the sequencer stops.
func (m *Matcher) Run(ctx context.Context) error {
	for {
		if err := util.Sleep(ctx, m.clock, m.interval); err != nil {
			return nil
		}
		if err := m.Step(ctx); errors.Is(err, ErrStopped) || ctx.Err() != nil {
			return nil
		}
	}
}

// Step performs a single match attempt.
func (m *Matcher) Step(ctx context.Context) error {
	var (
		trade engine.Trade
		err   error
	)
	if execErr := m.seq.Exec(ctx, func(e *engine.Engine) {
		trade, err = e.MatchOnce()
	}); execErr != nil {
		return execErr
	}

	switch {
	case err == nil:
		m.logger.Debugw("trade_executed",
			"bid", trade.BidID, "ask", trade.AskID,
			"quantity", trade.Quantity, "price", trade.Price)
	case errors.Is(err, engine.ErrNoMatch):
	default:
		m.logger.Errorw("match_failed", "err", err)
	}
	return err
}
