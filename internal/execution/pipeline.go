// Package execution carries a trade intent through validation, venue
// submission, response normalization and settlement into position state.
package execution

import (
	"context"
	"fmt"
	"math"
	"time"

	"trade_guard/internal/models"
	"trade_guard/internal/modules/config"
	"trade_guard/internal/modules/venue"
	"trade_guard/internal/store"
	"trade_guard/pkg/logger"

	"github.com/oklog/ulid/v2"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type Pipeline struct {
	venue   venue.Adapter
	store   store.Store
	presets *config.Presets

	quoteCurrency string
	minNotional   float64
	takerFeePct   float64
	dcaEnabled    bool
}

func New(v venue.Adapter, s store.Store, presets *config.Presets, cfg *config.Config) *Pipeline {
	return &Pipeline{
		venue:         v,
		store:         s,
		presets:       presets,
		quoteCurrency: cfg.QuoteCurrency,
		minNotional:   cfg.MinOrderNotional,
		takerFeePct:   cfg.TakerFeePct,
		dcaEnabled:    cfg.DCAEnabled,
	}
}

// ExecuteBuy opens a new lot or, when DCA applies, merges the fill into the
// pair's existing lot. The exit config snapshot is taken here, once, and
// never rewritten for the lot's life.
func (p *Pipeline) ExecuteBuy(ctx context.Context, intent models.OrderIntent) (models.Position, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "execution.buy")
	defer span.Finish()
	span.SetTag("pair", intent.Pair)

	if err := p.ValidatePairQuote(intent.Pair); err != nil {
		p.logReject(intent, err)
		return models.Position{}, err
	}

	notional := intent.Price * intent.Volume
	available := p.availableQuote(ctx)
	if err := p.validateMinOrder(notional, available); err != nil {
		p.logReject(intent, err)
		return models.Position{}, err
	}

	existing, held := p.store.GetByPair(ctx, intent.Pair)
	if held {
		if !p.dcaEnabled {
			err := reject(RejectPairHeld, "pair %s already holds lot %s", intent.Pair, existing.LotID)
			p.logReject(intent, err)
			return models.Position{}, err
		}
		// one in-flight order per lot: a merge must not race a close
		if !p.store.TryAcquire(existing.LotID) {
			err := reject(RejectOrderInFlight, "lot %s has an order in flight", existing.LotID)
			p.logReject(intent, err)
			return models.Position{}, err
		}
		defer p.store.Release(existing.LotID)
		// the lot can settle away between lookup and latch
		if _, ok := p.store.Get(ctx, existing.LotID); !ok {
			held = false
		}
	}

	intent.Side = models.SideBuy
	resp, err := p.venue.PlaceOrder(ctx, intent)
	if err != nil {
		logger.Event("VENUE_ERROR", intent.Pair, "order_not_confirmed", zap.Error(err))
		return models.Position{}, fmt.Errorf("buy %s not confirmed: %w", intent.Pair, err)
	}
	res := resolveExecution(intent, resp)
	fillFee := res.Notional * p.takerFeePct / 100

	var pos models.Position
	if held {
		err = p.store.Update(ctx, existing.LotID, func(lot *models.Position) error {
			avg, amount, fee := MergeDCA(lot.EntryPrice, lot.Amount, lot.EntryFee, res.Price, res.Volume, fillFee)
			lot.EntryPrice = avg
			lot.Amount = amount
			lot.EntryFee = fee
			// config snapshot stays from the original open
			pos = *lot
			return nil
		})
		if err != nil {
			return models.Position{}, fmt.Errorf("dca merge %s: %w", existing.LotID, err)
		}
	} else {
		pos = models.Position{
			LotID:        ulid.Make().String(),
			Pair:         intent.Pair,
			EntryPrice:   res.Price,
			Amount:       res.Volume,
			EntryFee:     fillFee,
			HighestPrice: res.Price,
			OpenedAt:     time.Now().UTC(),
			Config:       p.presets.Active(intent.Pair),
		}
		if err := p.store.Set(ctx, pos); err != nil {
			return models.Position{}, fmt.Errorf("persist lot %s: %w", pos.LotID, err)
		}
	}

	trade := models.Trade{
		LotID:      pos.LotID,
		Pair:       intent.Pair,
		Side:       "BUY",
		Price:      res.Price,
		Volume:     res.Volume,
		Notional:   res.Notional,
		EntryFee:   fillFee,
		Reason:     intent.Reason,
		OrderRef:   res.OrderRef,
		ExecutedAt: time.Now().UTC(),
	}
	if err := p.store.SaveTrade(ctx, trade); err != nil {
		logger.Error("save buy trade %s: %v", pos.LotID, err)
	}

	logger.Event("ORDER_FILLED", intent.Pair, intent.Reason,
		zap.String("side", "BUY"),
		zap.String("lot_id", pos.LotID),
		zap.Float64("price", res.Price),
		zap.Float64("volume", res.Volume),
	)
	return pos, nil
}

// ExecuteSell closes the lot in full or in part. The lot is re-read from
// the store here: position state at decision time may be stale.
func (p *Pipeline) ExecuteSell(ctx context.Context, intent models.OrderIntent) (models.Trade, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "execution.sell")
	defer span.Finish()
	span.SetTag("pair", intent.Pair)
	span.SetTag("reason", intent.Reason)

	pos, ok := p.store.Get(ctx, intent.LotID)
	if !ok {
		return models.Trade{}, fmt.Errorf("lot %s not found", intent.LotID)
	}

	if err := p.ValidatePairQuote(intent.Pair); err != nil {
		p.logReject(intent, err)
		return models.Trade{}, err
	}
	if err := p.validateSellContext(intent); err != nil {
		p.logReject(intent, err)
		return models.Trade{}, err
	}

	volume := intent.Volume
	if volume <= 0 || volume > pos.Amount {
		volume = pos.Amount
	}
	intent.Volume = volume
	if err := p.validateMinOrder(intent.Price*volume, intent.Price*pos.Amount); err != nil {
		p.logReject(intent, err)
		return models.Trade{}, err
	}

	intent.Side = models.SideSell
	resp, err := p.venue.PlaceOrder(ctx, intent)
	if err != nil {
		logger.Event("VENUE_ERROR", intent.Pair, "order_not_confirmed", zap.Error(err))
		return models.Trade{}, fmt.Errorf("sell %s not confirmed: %w", intent.Pair, err)
	}
	res := resolveExecution(intent, resp)

	pnl := CalcSellPnL(pos.EntryPrice, res.Price, res.Volume, pos.Amount, pos.EntryFee, p.takerFeePct)
	trade := models.Trade{
		LotID:      pos.LotID,
		Pair:       pos.Pair,
		Side:       "SELL",
		Price:      res.Price,
		Volume:     res.Volume,
		Notional:   res.Notional,
		GrossPnL:   pnl.Gross,
		EntryFee:   pnl.EntryFee,
		ExitFee:    pnl.ExitFee,
		NetPnL:     pnl.Net,
		NetPnLPct:  pnl.NetPct,
		Reason:     intent.Reason,
		OrderRef:   res.OrderRef,
		ExecutedAt: time.Now().UTC(),
	}

	const volEps = 1e-9
	if res.Volume >= pos.Amount-volEps {
		if err := p.store.Delete(ctx, pos.LotID); err != nil {
			return models.Trade{}, fmt.Errorf("remove lot %s: %w", pos.LotID, err)
		}
	} else {
		err := p.store.Update(ctx, pos.LotID, func(lot *models.Position) error {
			lot.Amount = math.Max(0, lot.Amount-res.Volume)
			if lot.EntryFee > 0 {
				lot.EntryFee = math.Max(0, lot.EntryFee-pnl.EntryFee)
			}
			return nil
		})
		if err != nil {
			return models.Trade{}, fmt.Errorf("shrink lot %s: %w", pos.LotID, err)
		}
	}

	if err := p.store.SaveTrade(ctx, trade); err != nil {
		logger.Error("save sell trade %s: %v", pos.LotID, err)
	}

	logger.Event("ORDER_FILLED", pos.Pair, intent.Reason,
		zap.String("side", "SELL"),
		zap.String("lot_id", pos.LotID),
		zap.Float64("price", res.Price),
		zap.Float64("volume", res.Volume),
		zap.Float64("net_pnl", pnl.Net),
	)
	return trade, nil
}

// availableQuote asks the venue for the settlement-currency balance.
// Preflight only: a failed balance call skips the funding check instead of
// blocking the trade.
func (p *Pipeline) availableQuote(ctx context.Context) float64 {
	balances, err := p.venue.Balances(ctx)
	if err != nil {
		logger.Warn("balance preflight failed: %v", err)
		return 0
	}
	return balances[p.quoteCurrency]
}

func (p *Pipeline) logReject(intent models.OrderIntent, err error) {
	code := "validation"
	if re, ok := err.(*RejectError); ok {
		code = re.Code
	}
	logger.Event("TRADE_REJECTED", intent.Pair, code,
		zap.String("side", intent.Side),
		zap.String("intent_reason", intent.Reason),
	)
}
