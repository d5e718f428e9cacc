package execution

import (
	"strings"

	"trade_guard/internal/models"
)

// ValidatePairQuote admits only pairs settled in the approved quote
// currency. Checked before anything touches a venue.
func (p *Pipeline) ValidatePairQuote(pair string) error {
	if !strings.HasSuffix(pair, "/"+p.quoteCurrency) {
		return reject(RejectBadQuote, "pair %s not quoted in %s", pair, p.quoteCurrency)
	}
	return nil
}

// validateSellContext requires every sell to name where it came from.
// Emergency closes are the deliberate exception: a panic-exit must never
// be blocked by a bookkeeping gap.
func (p *Pipeline) validateSellContext(intent models.OrderIntent) error {
	if intent.SellContext != "" {
		return nil
	}
	if isEmergencyWording(intent.Reason) {
		return nil
	}
	return reject(RejectNoSellContext, "sell without context, reason=%q", intent.Reason)
}

func isEmergencyWording(reason string) bool {
	r := strings.ToLower(reason)
	return strings.Contains(r, "stop-loss") ||
		strings.Contains(r, "stoploss") ||
		strings.Contains(r, "stop_loss") ||
		strings.Contains(r, "emergency") ||
		strings.Contains(r, strings.ToLower(models.ReasonEmergencyStop)) // reason codes pass too
}

// validateMinOrder enforces the venue-agnostic notional floor. Exactly at
// the floor passes; available is what the settlement currency can fund
// (quote balance for buys, position value for sells), 0 means unknown and
// skips the funding check.
func (p *Pipeline) validateMinOrder(notional, available float64) error {
	if notional < p.minNotional {
		return reject(RejectBelowMinOrder, "notional %.2f below floor %.2f", notional, p.minNotional)
	}
	if available > 0 {
		feeCushion := notional * p.takerFeePct / 100
		if available-feeCushion < p.minNotional {
			return reject(RejectInsufficientFees,
				"available %.2f minus fee cushion %.2f under floor %.2f",
				available, feeCushion, p.minNotional)
		}
	}
	return nil
}
