package venue

import (
	"context"
	"time"

	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/util"
)

// Candle summarizes a window of mid-price samples. Timestamp is Unix
// milliseconds at the end of the window.
type Candle struct {
	Open      float64 `json:"open"`
	Close     float64 `json:"close"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Timestamp int64   `json:"timestamp"`
}

type Sampler struct {
	seq     *Sequencer
	clock   util.Clock
	samples int
	gap     time.Duration
}

func NewSampler(seq *Sequencer, clock util.Clock, samples int, gap time.Duration) *Sampler {
	if clock == nil {
		clock = util.RealClock{}
	}
	if samples <= 0 {
		samples = 1
	}
	return &Sampler{seq: seq, clock: clock, samples: samples, gap: gap}
}

// OHLC takes the configured number of mid-price samples. Each sample is its
// own sequencer operation, so other work interleaves during the gaps. The
// first failing sample aborts the window.
func (s *Sampler) OHLC(ctx context.Context) (Candle, error) {
	var c Candle
	for i := 0; i < s.samples; i++ {
		if i > 0 {
			if err := util.Sleep(ctx, s.clock, s.gap); err != nil {
				return Candle{}, err
			}
		}

		var (
			mid float64
			err error
		)
		if execErr := s.seq.Exec(ctx, func(e *engine.Engine) {
			mid, err = e.MidPrice()
		}); execErr != nil {
			return Candle{}, execErr
		}
		if err != nil {
			return Candle{}, err
		}

		if i == 0 {
			c.Open, c.High, c.Low = mid, mid, mid
		}
		c.High = max(c.High, mid)
		c.Low = min(c.Low, mid)
		c.Close = mid
	}
	c.Timestamp = s.clock.Now().UnixMilli()
	return c, nil
}
