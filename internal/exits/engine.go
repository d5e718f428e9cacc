package exits

import (
	"trade_guard/internal/models"
)

// Evaluate runs one lot through the exit pipeline against the current price.
// Pure decision logic, no I/O: guard state is advanced in place on p and
// Modified reports whether the lot must be persisted.
//
// Caller contract: price must be finite and positive. A zero price reads as
// a -100% move and trips the emergency stop; the guard lives at the single
// call site in the runner, not here.
func Evaluate(p *models.Position, price float64, cfg models.ExitConfig) models.ExitDecision {
	changePct := (price - p.EntryPrice) / p.EntryPrice * 100

	// --- 1) emergency stop-loss: unconditional, checked before anything else ---
	if changePct <= -cfg.EmergencyStopPct {
		return models.ExitDecision{
			Sell:   true,
			Reason: models.ReasonEmergencyStop,
			Event:  models.EventEmergencyStopLoss,
		}
	}

	// --- 2) fixed take-profit ---
	if cfg.TakeProfitEnabled && changePct >= cfg.TakeProfitPct {
		return models.ExitDecision{
			Sell:   true,
			Reason: models.ReasonTakeProfit,
			Event:  models.EventTakeProfitFixed,
		}
	}

	var dec models.ExitDecision

	if price > p.HighestPrice {
		p.HighestPrice = price
		dec.Modified = true
	}

	// --- 3) break-even arming: stop floor that survives fees on both legs.
	// A zero threshold means the stage is not configured. The floor never
	// replaces a stop that already sits higher.
	if !p.BreakEvenActivated && cfg.BreakEvenAtPct > 0 && changePct >= cfg.BreakEvenAtPct {
		p.BreakEvenActivated = true
		if cand := p.EntryPrice * (1 + cfg.FeeCushionPct/100); cand > p.CurrentStopPrice {
			p.CurrentStopPrice = cand
		}
		dec.Modified = true
		dec.Event = models.EventBreakEvenArmed
	}

	// --- 4) trailing activation: zero threshold means not configured ---
	if !p.TrailingActivated && cfg.TrailStartPct > 0 && changePct >= cfg.TrailStartPct {
		p.TrailingActivated = true
		// never ratchet below a stop break-even already granted
		if cand := price * (1 - cfg.TrailDistancePct/100); cand > p.CurrentStopPrice {
			p.CurrentStopPrice = cand
		}
		dec.Modified = true
		if dec.Event == "" {
			dec.Event = models.EventTrailingActivated
		}
	}

	// --- 5) trailing update: step hysteresis keeps tick noise out ---
	if p.TrailingActivated && p.HasStop() {
		newStop := price * (1 - cfg.TrailDistancePct/100)
		minStep := p.CurrentStopPrice * (1 + cfg.TrailStepPct/100)
		if newStop > minStep {
			p.CurrentStopPrice = newStop
			dec.Modified = true
			if dec.Event == "" {
				dec.Event = models.EventTrailingUpdated
			}
		}
	}

	// --- partial take once the scale-out threshold clears ---
	if cfg.ScaleOutEnabled && !p.ScaleOutDone &&
		cfg.ScaleOutFrac > 0 && changePct >= cfg.ScaleOutAtPct {
		p.ScaleOutDone = true
		dec.Sell = true
		dec.SellVolume = p.Amount * cfg.ScaleOutFrac
		dec.Reason = models.ReasonScaleOut
		dec.Modified = true
		if dec.Event == "" {
			dec.Event = models.EventScaleOut
		}
		return dec
	}

	// --- 6) stop hit ---
	if p.HasStop() && price <= p.CurrentStopPrice {
		reason := models.ReasonBreakEvenHit
		if p.TrailingActivated {
			reason = models.ReasonTrailHit
		}
		dec.Sell = true
		dec.Reason = reason
		dec.Event = models.EventExitTriggered
		return dec
	}

	return dec
}
