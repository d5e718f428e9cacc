package runner

import (
	"context"
	"time"

	"trade_guard/internal/exits"
	"trade_guard/internal/models"
	"trade_guard/pkg/logger"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// tick evaluates one pair's open lot against the latest quote. Failures
// halt this pair's tick only; the next interval retries.
func (r *Runner) tick(ctx context.Context, pair string) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.tick")
	span.SetTag("pair", pair)
	defer span.Finish()

	r.state.TouchTick(time.Now())
	if open, err := r.store.OpenPositions(ctx); err == nil {
		r.state.SetOpenLots(len(open))
	}

	ticker, err := r.venue.Ticker(ctx, pair)
	if err != nil {
		logger.Warn("tick %s: ticker unavailable: %v", pair, err)
		return
	}
	price := ticker.Last

	// single guard point for the evaluator's price precondition: a zero or
	// negative price would read as a -100% move and trip the emergency stop
	if !models.FiniteAndPositive(price) {
		logger.Error("tick %s: invalid price %v, skipping evaluation", pair, price)
		return
	}

	pos, ok := r.store.GetByPair(ctx, pair)
	if !ok {
		return
	}

	// one in-flight order per lot; a lot still reconciling skips this tick
	if !r.store.TryAcquire(pos.LotID) {
		return
	}
	defer r.store.Release(pos.LotID)

	// re-read under the latch: the store is the source of truth, not the
	// snapshot from before acquisition
	pos, ok = r.store.Get(ctx, pos.LotID)
	if !ok {
		return
	}

	probe := pos
	dec := exits.Evaluate(&probe, price, probe.Config)

	if dec.Modified {
		// re-run on the authoritative copy under the store's write lock;
		// evaluation is idempotent so the replay lands identically
		err := r.store.Update(ctx, pos.LotID, func(lot *models.Position) error {
			exits.Evaluate(lot, price, lot.Config)
			return nil
		})
		if err != nil {
			logger.Error("tick %s: persist guard state: %v", pair, err)
			return
		}
	}
	if dec.Event != "" {
		logger.Event(dec.Event, pair, dec.Reason,
			zap.String("lot_id", pos.LotID),
			zap.Float64("price", price),
			zap.Float64("stop", probe.CurrentStopPrice),
		)
	}

	if dec.Sell {
		r.sell(pair, pos.LotID, price, dec)
		return
	}

	r.checkTimeStop(pos, price)
}

func (r *Runner) sell(pair, lotID string, price float64, dec models.ExitDecision) {
	ctx, cancel := execContext()
	defer cancel()

	intent := models.OrderIntent{
		Pair:        pair,
		LotID:       lotID,
		OrderType:   models.OrderMarket,
		Volume:      dec.SellVolume, // 0 = full close
		Price:       price,
		Reason:      dec.Reason,
		SellContext: models.SellContextExitEngine,
	}
	trade, err := r.exec.ExecuteSell(ctx, intent)
	if err != nil {
		logger.Error("sell %s (%s): %v", pair, dec.Reason, err)
		// the scale-out stamp was persisted with the decision; un-stamp it
		// so the next tick retries the partial take instead of forfeiting it
		if dec.Reason == models.ReasonScaleOut {
			if uerr := r.store.Update(ctx, lotID, func(lot *models.Position) error {
				lot.ScaleOutDone = false
				return nil
			}); uerr != nil {
				logger.Error("scale-out unwind %s: %v", lotID, uerr)
			}
		}
		return
	}

	if r.notifier.IsReady() {
		_ = r.notifier.Sendf(ctx,
			"[%s] SELL %.6f @ %.4f | %s | net=%.2f (%.2f%%)",
			pair, trade.Volume, trade.Price, trade.Reason, trade.NetPnL, trade.NetPnLPct,
		)
	}
}

// checkTimeStop raises the age alert at most once per lot. The expiry
// stamp is written only after a successful send, so an unavailable channel
// retries next tick. Hard mode additionally closes the lot; soft mode is
// advisory and never sells.
func (r *Runner) checkTimeStop(pos models.Position, price float64) {
	now := time.Now().UTC()
	if !exits.TimeStopDue(&pos, pos.Config, now) {
		return
	}
	if !r.notifier.IsReady() {
		return // retried next tick
	}

	ctx, cancel := execContext()
	defer cancel()

	mode := "advisory, close manually"
	if exits.TimeStopForcesClose(pos.Config) {
		mode = "hard, closing now"
	}
	err := r.notifier.Sendf(ctx,
		"[%s] time stop: lot %s open %.1fh (limit %.0fh), %s",
		pos.Pair, pos.LotID, pos.Age(now).Hours(), pos.Config.TimeStopHours, mode,
	)
	if err != nil {
		logger.Warn("time stop alert %s failed: %v", pos.LotID, err)
		return // not marked sent, retried next tick
	}

	if err := r.store.Update(ctx, pos.LotID, func(lot *models.Position) error {
		lot.TimeStopExpiredAt = now
		return nil
	}); err != nil {
		logger.Error("time stop mark %s: %v", pos.LotID, err)
	}
	logger.Event(models.EventTimeStopExpired, pos.Pair, models.ReasonTimeStop,
		zap.String("lot_id", pos.LotID))

	if exits.TimeStopForcesClose(pos.Config) {
		intent := models.OrderIntent{
			Pair:        pos.Pair,
			LotID:       pos.LotID,
			OrderType:   models.OrderMarket,
			Price:       price,
			Reason:      models.ReasonTimeStop,
			SellContext: models.SellContextTimeStop,
		}
		if _, err := r.exec.ExecuteSell(ctx, intent); err != nil {
			logger.Error("time stop close %s: %v", pos.LotID, err)
		}
	}
}
