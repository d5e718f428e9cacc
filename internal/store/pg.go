package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trade_guard/internal/models"
	"trade_guard/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// PgStore keeps the working set in memory and writes through to postgres.
// A nil TxManager runs memory-only, which the paper venue and tests use.
type PgStore struct {
	tx db.TxManager

	mu        sync.RWMutex
	positions map[string]models.Position // lotID -> position

	inflightMu sync.Mutex
	inflight   map[string]bool
}

func NewPgStore(tx db.TxManager) *PgStore {
	return &PgStore{
		tx:        tx,
		positions: make(map[string]models.Position),
		inflight:  make(map[string]bool),
	}
}

// Warmup loads open positions from the database into the working set.
func (s *PgStore) Warmup(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	rows, err := s.tx.Conn().Query(ctx, `
		SELECT lot_id, pair, entry_price, amount, entry_fee, highest_price,
		       break_even, trailing, stop_price, scale_out_done,
		       opened_at, time_stop_disabled, time_stop_expired_at, config
		FROM positions`)
	if err != nil {
		return errors.Wrap(err, "query open positions")
	}
	defer rows.Close()

	loaded := make(map[string]models.Position)
	for rows.Next() {
		var (
			p        models.Position
			expired  *time.Time
			cfgBytes []byte
		)
		if err := rows.Scan(
			&p.LotID, &p.Pair, &p.EntryPrice, &p.Amount, &p.EntryFee, &p.HighestPrice,
			&p.BreakEvenActivated, &p.TrailingActivated, &p.CurrentStopPrice, &p.ScaleOutDone,
			&p.OpenedAt, &p.TimeStopDisabled, &expired, &cfgBytes,
		); err != nil {
			return errors.Wrap(err, "scan position")
		}
		if expired != nil {
			p.TimeStopExpiredAt = *expired
		}
		if len(cfgBytes) > 0 {
			if err := sonic.Unmarshal(cfgBytes, &p.Config); err != nil {
				return errors.Wrapf(err, "decode config for lot %s", p.LotID)
			}
		}
		loaded[p.LotID] = p
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate positions")
	}

	s.mu.Lock()
	s.positions = loaded
	s.mu.Unlock()
	return nil
}

func (s *PgStore) OpenPositions(ctx context.Context) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	return out, nil
}

func (s *PgStore) Get(ctx context.Context, lotID string) (models.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[lotID]
	return p, ok
}

func (s *PgStore) GetByPair(ctx context.Context, pair string) (models.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.positions {
		if p.Pair == pair {
			return p, true
		}
	}
	return models.Position{}, false
}

func (s *PgStore) Set(ctx context.Context, p models.Position) error {
	if err := s.persist(ctx, p); err != nil {
		return err
	}
	s.mu.Lock()
	s.positions[p.LotID] = p
	s.mu.Unlock()
	return nil
}

func (s *PgStore) Update(ctx context.Context, lotID string, fn func(p *models.Position) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[lotID]
	if !ok {
		return fmt.Errorf("lot %s not found", lotID)
	}
	if err := fn(&p); err != nil {
		return err
	}
	if err := s.persist(ctx, p); err != nil {
		return err
	}
	s.positions[lotID] = p
	return nil
}

func (s *PgStore) Delete(ctx context.Context, lotID string) error {
	if s.tx != nil {
		err := s.tx.Run(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctxTx, `DELETE FROM positions WHERE lot_id = $1`, lotID)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "delete lot %s", lotID)
		}
	}
	s.mu.Lock()
	delete(s.positions, lotID)
	s.mu.Unlock()
	return nil
}

func (s *PgStore) SaveTrade(ctx context.Context, t models.Trade) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Run(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO trades (lot_id, pair, side, price, volume, notional,
			                    gross_pnl, entry_fee, exit_fee, net_pnl, net_pnl_pct,
			                    reason, order_ref, executed_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			t.LotID, t.Pair, t.Side, t.Price, t.Volume, t.Notional,
			t.GrossPnL, t.EntryFee, t.ExitFee, t.NetPnL, t.NetPnLPct,
			t.Reason, t.OrderRef, t.ExecutedAt,
		)
		return err
	})
	return errors.Wrap(err, "save trade")
}

func (s *PgStore) persist(ctx context.Context, p models.Position) error {
	if s.tx == nil {
		return nil
	}
	cfgBytes, err := sonic.Marshal(p.Config)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	var expired *time.Time
	if !p.TimeStopExpiredAt.IsZero() {
		expired = &p.TimeStopExpiredAt
	}

	err = s.tx.Run(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO positions (lot_id, pair, entry_price, amount, entry_fee, highest_price,
			                       break_even, trailing, stop_price, scale_out_done,
			                       opened_at, time_stop_disabled, time_stop_expired_at, config)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (lot_id) DO UPDATE SET
				amount = EXCLUDED.amount,
				entry_price = EXCLUDED.entry_price,
				entry_fee = EXCLUDED.entry_fee,
				highest_price = EXCLUDED.highest_price,
				break_even = EXCLUDED.break_even,
				trailing = EXCLUDED.trailing,
				stop_price = EXCLUDED.stop_price,
				scale_out_done = EXCLUDED.scale_out_done,
				time_stop_disabled = EXCLUDED.time_stop_disabled,
				time_stop_expired_at = EXCLUDED.time_stop_expired_at`,
			p.LotID, p.Pair, p.EntryPrice, p.Amount, p.EntryFee, p.HighestPrice,
			p.BreakEvenActivated, p.TrailingActivated, p.CurrentStopPrice, p.ScaleOutDone,
			p.OpenedAt, p.TimeStopDisabled, expired, cfgBytes,
		)
		return err
	})
	return errors.Wrapf(err, "persist lot %s", p.LotID)
}

func (s *PgStore) TryAcquire(lotID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if s.inflight[lotID] {
		return false
	}
	s.inflight[lotID] = true
	return true
}

func (s *PgStore) Release(lotID string) {
	s.inflightMu.Lock()
	delete(s.inflight, lotID)
	s.inflightMu.Unlock()
}
