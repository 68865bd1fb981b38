package srs

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Params defines all configurable parameters for the interval policy
type Params struct {
	// BaseInterval is the wait after the first reminder and after every "forgot".
	BaseInterval time.Duration

	// GrowthFactor multiplies the interval for each confirmed "remember".
	// Must be greater than 1 so intervals strictly increase.
	GrowthFactor float64

	// LearnedThreshold is the notification count at which a task is retired.
	LearnedThreshold int
}

// Validation errors for Params
var (
	ErrInvalidBaseInterval     = errors.New("base interval must be positive")
	ErrInvalidGrowthFactor     = errors.New("growth factor must be greater than 1")
	ErrInvalidLearnedThreshold = errors.New("learned threshold must be at least 1")
	ErrIntervalOverflow        = errors.New("largest interval overflows a duration")
	ErrIntervalNotIncreasing   = errors.New("intervals must strictly increase")
)

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	BaseInterval     time.Duration
	GrowthFactor     float64
	LearnedThreshold int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		// First reminder half an hour after a confirmed answer
		BaseInterval: 30 * time.Minute,

		// Doubling: 1h, 2h, 4h, ... up to roughly ten days
		GrowthFactor: 2.0,

		LearnedThreshold: 10,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero fields keep their default values.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.BaseInterval > 0 {
		params.BaseInterval = config.BaseInterval
	}
	if config.GrowthFactor > 0 {
		params.GrowthFactor = config.GrowthFactor
	}
	if config.LearnedThreshold > 0 {
		params.LearnedThreshold = config.LearnedThreshold
	}

	return params
}

// Validate checks that the parameters produce a strictly increasing schedule
// whose largest interval fits in a time.Duration. Intervals are truncated to
// whole nanoseconds, so a tiny BaseInterval with a small GrowthFactor can
// repeat the same interval and is rejected.
func (p *Params) Validate() error {
	if p.BaseInterval <= 0 {
		return ErrInvalidBaseInterval
	}
	if p.GrowthFactor <= 1 || math.IsNaN(p.GrowthFactor) || math.IsInf(p.GrowthFactor, 0) {
		return ErrInvalidGrowthFactor
	}
	if p.LearnedThreshold < 1 {
		return ErrInvalidLearnedThreshold
	}

	// The largest interval handed out belongs to count LearnedThreshold-1.
	largest := float64(p.BaseInterval) * math.Pow(p.GrowthFactor, float64(p.LearnedThreshold-1))
	if largest >= math.MaxInt64 {
		return fmt.Errorf("%w: threshold %d with growth %.2f", ErrIntervalOverflow,
			p.LearnedThreshold, p.GrowthFactor)
	}

	prev := calculateInterval(0, p)
	for count := 1; count < p.LearnedThreshold; count++ {
		next := calculateInterval(count, p)
		if next <= prev {
			return fmt.Errorf("%w: count %d gives %v after %v", ErrIntervalNotIncreasing,
				count, next, prev)
		}
		prev = next
	}

	return nil
}
