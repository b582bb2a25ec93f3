// Package feeder simulates traders by placing random limit orders on a fixed
// cadence, for demos and load.
package feeder

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

const (
	ModeGaussian   = "gaussian"
	ModeRandomWalk = "randomwalk"
)

// Order is one simulated request.
type Order struct {
	Side     string
	Quantity uint64
	Price    float64
}

// Generator produces orders. Gaussian mode draws prices from N(mean, 10)
// with 5-15 lots; random-walk mode drifts the price by ±1 and ±0.1 per order
// with 10-50 lots. Sides are a fair coin in both.
type Generator struct {
	mode  string
	mean  float64
	drift float64
	rng   *rand.Rand
}

func NewGenerator(mode string, mean float64, seed int64) (*Generator, error) {
	switch mode {
	case ModeGaussian, ModeRandomWalk:
	default:
		return nil, fmt.Errorf("unknown feeder mode %q", mode)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{mode: mode, mean: mean, rng: rand.New(rand.NewSource(seed))}, nil
}

func (g *Generator) side() string {
	if g.rng.Intn(2) == 0 {
		return "Sell"
	}
	return "Buy"
}

func (g *Generator) Next() Order {
	if g.mode == ModeRandomWalk {
		return g.walk()
	}
	return Order{
		Side:     g.side(),
		Quantity: uint64(g.rng.Intn(11) + 5),
		Price:    math.Abs(g.rng.NormFloat64()*10 + g.mean),
	}
}

func (g *Generator) walk() Order {
	if g.rng.Intn(2) == 0 {
		g.drift--
	} else {
		g.drift++
	}
	if g.rng.Intn(2) == 0 {
		g.drift -= 0.1
	} else {
		g.drift += 0.1
	}
	// keep the price at or above one unit
	g.drift = math.Max(g.drift, 1-g.mean)

	return Order{
		Side:     g.side(),
		Quantity: uint64(g.rng.Intn(41) + 10),
		Price:    g.mean + g.drift,
	}
}
