package execution

import (
	"trade_guard/internal/models"
	"trade_guard/pkg/logger"
)

// resolveExecution turns a loosely filled venue response into canonical
// numbers. Fallback chain, in order: explicit fields, price computed from
// notional/volume, finally the originally requested values. Never a hard
// error; the fallback path is logged for audit.
func resolveExecution(intent models.OrderIntent, resp models.VenueResponse) models.ExecutionResult {
	fallback := false

	volume := resp.Volume
	if !models.FiniteAndPositive(volume) {
		volume = intent.Volume
		fallback = true
	}

	price := resp.Price
	if !models.FiniteAndPositive(price) {
		if models.FiniteAndPositive(resp.Notional) && volume > 0 {
			price = resp.Notional / volume
		} else {
			price = intent.Price
		}
		fallback = true
	}

	notional := resp.Notional
	if !models.FiniteAndPositive(notional) {
		notional = price * volume
	}

	// venue-native txid wins over a generic order id
	ref := resp.TxID
	if ref == "" {
		ref = resp.OrderID
	}

	if fallback {
		logger.Warn("execution resolve: venue response incomplete for %s %s, using fallback price=%.8f volume=%.8f ref=%q",
			intent.Side, intent.Pair, price, volume, ref)
	}

	return models.ExecutionResult{
		OrderRef: ref,
		Price:    price,
		Volume:   volume,
		Notional: notional,
	}
}
