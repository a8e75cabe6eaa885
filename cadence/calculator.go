// ABOUTME: Due-date calculator with pluggable jitter strategies
// ABOUTME: Computes next_due from an anchor date and a resolved stage policy; never fails
package cadence

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Strategy names accepted by StrategyByName.
const (
	StrategyUniform      = "uniform"
	StrategyProportional = "proportional"
)

// DefaultUniformJitterDays is the ± bound of the uniform strategy.
const DefaultUniformJitterDays = 5

// RandomSource yields integers in [0, n). Tests inject fixed sequences.
type RandomSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// GlobalRandom is the process-wide source; safe for concurrent use.
var GlobalRandom RandomSource = globalSource{}

// Strategy decides the jitter applied to a policy's interval and the minimum total offset.
type Strategy interface {
	Name() string
	Jitter(p Policy, rnd RandomSource) int
	MinDays() int
}

// Uniform draws jitter from [-MaxDays, MaxDays]. It never moves the due date before the anchor.
type Uniform struct {
	MaxDays int
}

func (Uniform) Name() string { return StrategyUniform }
func (Uniform) MinDays() int { return 0 }

func (u Uniform) Jitter(p Policy, rnd RandomSource) int {
	if !p.Randomize {
		return 0
	}
	bound := p.RandomVariation
	if bound <= 0 {
		bound = u.MaxDays
	}
	return between(rnd, -bound, bound)
}

// Proportional scales jitter with the interval and keeps due dates at least one day out:
// up to a week gets none, up to a month ±1, anything longer ±3.
type Proportional struct{}

func (Proportional) Name() string { return StrategyProportional }
func (Proportional) MinDays() int { return 1 }

func (Proportional) Jitter(p Policy, rnd RandomSource) int {
	if !p.Randomize {
		return 0
	}
	if p.RandomVariation > 0 {
		return between(rnd, -p.RandomVariation, p.RandomVariation)
	}
	switch {
	case p.IntervalDays <= 7:
		return 0
	case p.IntervalDays <= 30:
		return between(rnd, -1, 1)
	default:
		return between(rnd, -3, 3)
	}
}

// StrategyByName maps a configuration value to a strategy.
func StrategyByName(name string, uniformMax int) (Strategy, error) {
	switch name {
	case StrategyProportional, "":
		return Proportional{}, nil
	case StrategyUniform:
		if uniformMax <= 0 {
			uniformMax = DefaultUniformJitterDays
		}
		return Uniform{MaxDays: uniformMax}, nil
	default:
		return nil, fmt.Errorf("unknown jitter strategy %q", name)
	}
}

// Calculator turns anchors and policies into due dates.
type Calculator struct {
	strategy Strategy
	rnd      RandomSource
}

// NewCalculator builds a calculator; nil arguments select Proportional and GlobalRandom.
func NewCalculator(strategy Strategy, rnd RandomSource) *Calculator {
	if strategy == nil {
		strategy = Proportional{}
	}
	if rnd == nil {
		rnd = GlobalRandom
	}
	return &Calculator{strategy: strategy, rnd: rnd}
}

// Strategy returns the configured strategy.
func (c *Calculator) Strategy() Strategy {
	return c.strategy
}

// Days returns the total offset in days for one draw, floored by the strategy.
func (c *Calculator) Days(p Policy) int {
	days := p.IntervalDays + c.strategy.Jitter(p, c.rnd)
	if floor := c.strategy.MinDays(); days < floor {
		days = floor
	}
	return days
}

// Next computes the due date for p anchored at anchor, or at now when anchor is nil.
// Sentinel policies yield nil.
func (c *Calculator) Next(anchor *time.Time, now time.Time, p Policy) *time.Time {
	if !p.Scheduled() {
		return nil
	}
	base := now
	if anchor != nil && !anchor.IsZero() {
		base = *anchor
	}
	due := base.UTC().AddDate(0, 0, c.Days(p))
	return &due
}

func between(rnd RandomSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rnd.IntN(hi-lo+1)
}
