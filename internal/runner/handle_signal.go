package runner

import (
	"context"

	"trade_guard/internal/models"
	"trade_guard/internal/spread"
	"trade_guard/pkg/logger"

	"go.uber.org/zap"
)

// onSignal consults the spread gate, then hands the buy to the execution
// pipeline. The gate decides whether an order may be placed at all.
func (r *Runner) onSignal(ctx context.Context, sig models.Signal) {
	ticker, err := r.venue.Ticker(ctx, sig.Pair)
	if err != nil {
		logger.Warn("signal %s: ticker unavailable: %v", sig.Pair, err)
		return
	}

	dec := spread.Check(ticker.Bid, ticker.Ask, sig.Regime, r.venue.Name(), r.cfg.Spread)
	if !dec.Allowed {
		logger.Event("ENTRY_VETOED", sig.Pair, dec.Reason,
			zap.Float64("spread_pct", dec.SpreadPct),
			zap.Float64("effective_pct", dec.EffectivePct),
			zap.Float64("threshold_pct", dec.ThresholdPct),
			zap.String("regime", sig.Regime),
		)
		return
	}

	if !models.FiniteAndPositive(ticker.Last) {
		logger.Error("signal %s: invalid price %v", sig.Pair, ticker.Last)
		return
	}

	execCtx, cancel := execContext()
	defer cancel()

	pos, err := r.exec.ExecuteBuy(execCtx, models.OrderIntent{
		Pair:      sig.Pair,
		OrderType: models.OrderMarket,
		Volume:    sig.Volume,
		Price:     ticker.Last,
		Reason:    sig.Reason,
	})
	if err != nil {
		logger.Error("buy %s: %v", sig.Pair, err)
		return
	}

	if r.notifier.IsReady() {
		_ = r.notifier.Sendf(execCtx,
			"[%s] BUY %.6f @ %.4f | lot=%s | %s",
			pos.Pair, pos.Amount, pos.EntryPrice, pos.LotID, sig.Reason,
		)
	}
}
