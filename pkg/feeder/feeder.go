package feeder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/util"
)

// Executor runs a closure against the engine; *venue.Sequencer satisfies it.
type Executor interface {
	Exec(ctx context.Context, fn func(*engine.Engine)) error
}

type Config struct {
	Mode     string
	Interval time.Duration
	Mean     float64
	Seed     int64 // 0 = time based
}

type Stats struct {
	Placed   int
	Rejected int
}

// Run places one generated order per interval until ctx is canceled.
func Run(ctx context.Context, exec Executor, cfg Config, clock util.Clock, logger *zap.SugaredLogger) (Stats, error) {
	if clock == nil {
		clock = util.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	gen, err := NewGenerator(cfg.Mode, cfg.Mean, cfg.Seed)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	start := clock.Now()
	logger.Infow("feeder_started", "mode", cfg.Mode, "interval_ms", cfg.Interval.Milliseconds(), "mean", cfg.Mean)
	defer func() {
		logger.Infow("feeder_stopped",
			"placed", stats.Placed,
			"rejected", stats.Rejected,
			"elapsed", clock.Now().Sub(start).Round(time.Second).String())
	}()

	for {
		if err := util.Sleep(ctx, clock, cfg.Interval); err != nil {
			return stats, nil
		}

		o := gen.Next()
		var placeErr error
		if err := exec.Exec(ctx, func(e *engine.Engine) {
			_, placeErr = e.Place(o.Side, o.Quantity, o.Price)
		}); err != nil {
			return stats, nil
		}
		if placeErr != nil {
			stats.Rejected++
			logger.Debugw("feeder_order_rejected", "side", o.Side, "quantity", o.Quantity, "price", o.Price, "err", placeErr)
			continue
		}
		stats.Placed++
	}
}
