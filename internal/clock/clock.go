// Package clock provides the production implementations of the Clock
// and Rand interfaces used by the sequencer and the network info
// fillers.
package clock

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"speedboard/internal/models"
)

// System is the wall-clock implementation.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time { return time.Now() }

// Sleep blocks for d or until ctx is cancelled, whichever comes first.
func (System) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Scaled wraps System and multiplies every sleep by a factor. A factor
// of zero skips delays entirely, which the one-shot CLI mode uses.
type Scaled struct {
	System
	Factor float64
}

func (s Scaled) Sleep(ctx context.Context, d time.Duration) error {
	scaled := time.Duration(float64(d) * s.Factor)
	if scaled <= 0 {
		return ctx.Err()
	}
	return s.System.Sleep(ctx, scaled)
}

// Adjustable is a wall clock whose delay factor can be changed while
// the process runs, for config hot reload. The zero value sleeps at
// full length.
type Adjustable struct {
	System
	bits atomic.Uint64
}

// NewAdjustable returns an Adjustable at the given factor.
func NewAdjustable(factor float64) *Adjustable {
	a := &Adjustable{}
	a.SetFactor(factor)
	return a
}

// SetFactor updates the delay multiplier. Negative values clamp to 0.
func (a *Adjustable) SetFactor(factor float64) {
	if factor < 0 {
		factor = 0
	}
	// Stored with a +1 offset so the zero value (never set) reads as
	// full-length delays rather than factor 0.
	a.bits.Store(math.Float64bits(factor) + 1)
}

// Factor returns the current delay multiplier.
func (a *Adjustable) Factor() float64 {
	b := a.bits.Load()
	if b == 0 {
		return 1.0
	}
	return math.Float64frombits(b - 1)
}

func (a *Adjustable) Sleep(ctx context.Context, d time.Duration) error {
	scaled := time.Duration(float64(d) * a.Factor())
	if scaled <= 0 {
		return ctx.Err()
	}
	return a.System.Sleep(ctx, scaled)
}

type source struct {
	rng *rand.Rand
}

func (s *source) Float64() float64 { return s.rng.Float64() }

// NewRand returns a Rand seeded from the given value.
func NewRand(seed int64) models.Rand {
	return &source{rng: rand.New(rand.NewSource(seed))}
}

// DefaultRand returns a Rand seeded from the current time.
func DefaultRand() models.Rand {
	return NewRand(time.Now().UnixNano())
}
