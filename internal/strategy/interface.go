package strategy

import "github.com/shopspring/decimal"

// MoveType classifies what a simulated price check did
type MoveType int

const (
	MoveHold MoveType = iota
	MoveDrop
	MoveRise
)

// String returns the string representation of MoveType
func (m MoveType) String() string {
	switch m {
	case MoveHold:
		return "HOLD"
	case MoveDrop:
		return "DROP"
	case MoveRise:
		return "RISE"
	default:
		return "UNKNOWN"
	}
}

// PriceSimulator is the interface every price source used by the tracking loops implements.
// It is called synchronously, once per item per tick.
type PriceSimulator interface {
	// Simulate returns the next observed price for an item currently priced at price.
	Simulate(price decimal.Decimal) decimal.Decimal
}

// RandomSource is the subset of *rand.Rand the drift policy needs.
// Tests plug in scripted sources to force exact transitions.
type RandomSource interface {
	Float64() float64
}
