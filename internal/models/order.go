package models

import "math"

// Order sides and types as sent to venue adapters.
const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrderMarket = "market"
	OrderLimit  = "limit"
)

// Sell contexts. A sell without a context is rejected unless its reason
// reads as an emergency close.
const (
	SellContextExitEngine = "exit_engine"
	SellContextTimeStop   = "time_stop"
	SellContextManual     = "manual"
)

// OrderIntent is a validated-to-be trade request.
type OrderIntent struct {
	Pair        string
	Side        string
	OrderType   string
	Volume      float64
	Price       float64 // reference price at decision time
	Reason      string
	SellContext string // required for sells, see execution gates
	LotID       string // set for sells and DCA buys
}

// VenueResponse is adapter output with exchange field names already mapped,
// but values possibly absent (zero or NaN). The execution pipeline resolves
// it into an ExecutionResult via the fallback chain.
type VenueResponse struct {
	TxID     string
	OrderID  string
	Price    float64
	Volume   float64
	Notional float64
}

// Empty reports a response carrying no usable identifier. Not an error by
// itself: some venues settle asynchronously.
func (r VenueResponse) Empty() bool { return r.TxID == "" && r.OrderID == "" }

// ExecutionResult holds the canonical settled numbers for one venue call.
type ExecutionResult struct {
	OrderRef string
	Price    float64
	Volume   float64
	Notional float64
}

// Ticker is the current market quote for one pair.
type Ticker struct {
	Pair string
	Bid  float64
	Ask  float64
	Last float64
}

// FiniteAndPositive is the price guard enforced at the evaluator call site.
func FiniteAndPositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
