package postgres

import (
	"context"
	"fmt"
	"trade_guard/internal/modules/config"
	"trade_guard/internal/store"
	"trade_guard/pkg/db"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (db.TxManager, error) {
				if cfg.DB == "" {
					// paper runs can go memory-only
					return nil, nil
				}
				pool, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create pool: %w", err)
				}

				if err = pool.Ping(ctx); err != nil {
					return nil, err
				}

				return db.NewPgTxManager(pool), nil
			},
			func(tx db.TxManager) (store.Store, *store.PgStore, error) {
				s := store.NewPgStore(tx)
				return s, s, nil
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, s *store.PgStore) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return s.Warmup(ctx)
					},
				})
			},
		),
	)
}
