package execution

import "fmt"

// Validation reject codes. Stable: downstream alerting keys off these.
const (
	RejectBadQuote         = "bad_quote_currency"
	RejectNoSellContext    = "missing_sell_context"
	RejectBelowMinOrder    = "below_min_order"
	RejectInsufficientFees = "insufficient_after_fees"
	RejectPairHeld         = "pair_already_held"
	RejectOrderInFlight    = "order_in_flight"
)

// RejectError is a synchronous validation failure. No venue call was made.
type RejectError struct {
	Code string
	Msg  string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("trade rejected (%s): %s", e.Code, e.Msg)
}

func reject(code, format string, args ...any) *RejectError {
	return &RejectError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
