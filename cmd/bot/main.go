package main

import (
	"context"
	"log"

	"trade_guard/internal/modules/config"
	"trade_guard/internal/modules/health"
	"trade_guard/internal/modules/postgres"
	telegram "trade_guard/internal/modules/telegram_bot"
	"trade_guard/internal/modules/venue"
	"trade_guard/internal/runner"
	"trade_guard/pkg/logger"
	"trade_guard/pkg/tracing"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

const serviceName = "trade_guard"

func main() {
	_ = godotenv.Load()

	logger.SetServiceName(serviceName)
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		health.Module(),
		postgres.Module(),
		venue.Module(),
		runner.Module(),
		telegram.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			tracing.SetServiceName(serviceName)
			tracer, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Warn("tracing disabled: %v", err)
				return
			}
			_ = tracer
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)
	app.Run()
}
