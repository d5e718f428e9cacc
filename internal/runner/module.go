package runner

import (
	"context"

	"trade_guard/internal/execution"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			execution.New, // *execution.Pipeline
			New,           // *Runner
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *Runner,
		) {
			loopCtx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					r.Start(loopCtx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					// stop scheduling, then let in-flight ticks settle
					cancel()
					r.Wait()
					return nil
				},
			})
		}),
	)
}
