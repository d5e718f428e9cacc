package models

// Signal is an entry opinion produced outside this core. The runner gates
// it on spread before any order is placed.
type Signal struct {
	Pair   string
	Volume float64
	Regime string // TREND | RANGE | TRANSITION, empty falls back to default
	Reason string
}
