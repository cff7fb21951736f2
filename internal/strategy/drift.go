package strategy

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DriftPolicy describes the market-noise model: hold, drop or rise with fixed
// probabilities, magnitudes drawn uniformly from [Min, Max) of the current price.
type DriftPolicy struct {
	HoldProbability float64 `yaml:"hold_probability"`
	DropProbability float64 `yaml:"drop_probability"`
	DropMin         float64 `yaml:"drop_min"`
	DropMax         float64 `yaml:"drop_max"`
	RiseMin         float64 `yaml:"rise_min"`
	RiseMax         float64 `yaml:"rise_max"`
}

// DefaultDriftPolicy returns the reference policy: 65% hold, 23% drop of 1-8%, 12% rise of 1-4%
func DefaultDriftPolicy() DriftPolicy {
	return DriftPolicy{
		HoldProbability: 0.65,
		DropProbability: 0.23,
		DropMin:         0.01,
		DropMax:         0.08,
		RiseMin:         0.01,
		RiseMax:         0.04,
	}
}

// Validate checks the policy is a usable probability model
func (p DriftPolicy) Validate() error {
	if p.HoldProbability < 0 || p.DropProbability < 0 {
		return fmt.Errorf("probabilities must be non-negative")
	}
	if p.HoldProbability+p.DropProbability > 1 {
		return fmt.Errorf("hold + drop probability exceeds 1 (%.2f)", p.HoldProbability+p.DropProbability)
	}
	if p.DropMin < 0 || p.DropMax < p.DropMin || p.DropMax >= 1 {
		return fmt.Errorf("invalid drop range [%.2f, %.2f)", p.DropMin, p.DropMax)
	}
	if p.RiseMin < 0 || p.RiseMax < p.RiseMin {
		return fmt.Errorf("invalid rise range [%.2f, %.2f)", p.RiseMin, p.RiseMax)
	}
	return nil
}

// Bounds returns the lowest and highest price the policy can produce from price
func (p DriftPolicy) Bounds(price decimal.Decimal) (lo, hi decimal.Decimal) {
	lo = price.Mul(decimal.NewFromFloat(1 - p.DropMax))
	hi = price.Mul(decimal.NewFromFloat(1 + p.RiseMax))
	return lo, hi
}

// RandomDrift implements PriceSimulator with a DriftPolicy.
// It is stateless apart from the random source and safe for concurrent use.
type RandomDrift struct {
	policy DriftPolicy

	mu  sync.Mutex
	rng RandomSource
}

// NewRandomDrift creates a simulator. A nil rng gets a time-seeded source.
func NewRandomDrift(policy DriftPolicy, rng RandomSource) *RandomDrift {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomDrift{policy: policy, rng: rng}
}

// Policy returns the active policy
func (d *RandomDrift) Policy() DriftPolicy {
	return d.policy
}

// Simulate performs one simulated price check.
func (d *RandomDrift) Simulate(price decimal.Decimal) decimal.Decimal {
	next, _ := d.Step(price)
	return next
}

// Step is Simulate that also reports which move was taken
func (d *RandomDrift) Step(price decimal.Decimal) (decimal.Decimal, MoveType) {
	d.mu.Lock()
	roll := d.rng.Float64()
	var magnitude float64
	move := MoveHold
	switch {
	case roll < d.policy.HoldProbability:
	case roll < d.policy.HoldProbability+d.policy.DropProbability:
		move = MoveDrop
		magnitude = uniform(d.rng, d.policy.DropMin, d.policy.DropMax)
	default:
		move = MoveRise
		magnitude = uniform(d.rng, d.policy.RiseMin, d.policy.RiseMax)
	}
	d.mu.Unlock()

	switch move {
	case MoveDrop:
		raw := price.Mul(decimal.NewFromFloat(1 - magnitude))
		return d.roundWithin(price, raw), move
	case MoveRise:
		raw := price.Mul(decimal.NewFromFloat(1 + magnitude))
		return d.roundWithin(price, raw), move
	default:
		return price, move
	}
}

// roundWithin rounds to cents without leaving the policy band.
// Plain half-up rounding can step just outside [lo, hi] when the bound itself
// is not a whole cent; in that case round toward the band instead.
func (d *RandomDrift) roundWithin(price, raw decimal.Decimal) decimal.Decimal {
	lo, hi := d.policy.Bounds(price)
	r := raw.Round(2)
	if r.LessThan(lo) {
		r = raw.RoundCeil(2)
	}
	if r.GreaterThan(hi) {
		r = raw.RoundFloor(2)
	}
	return r
}

func uniform(rng RandomSource, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
