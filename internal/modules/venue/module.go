package venue

import (
	"context"
	"fmt"

	"trade_guard/internal/modules/config"
	"trade_guard/internal/modules/venue/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("venue",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (Adapter, error) {
				switch cfg.Venue.Active {
				case "kraken", "":
					c := service.NewKraken(cfg.Venue.APIKey, cfg.Venue.APISecret)
					c.StreamTickers(ctx, cfg.Pairs)
					return c, nil
				case "paper":
					return service.NewPaper(cfg.Venue.PaperMarkupPct), nil
				default:
					return nil, fmt.Errorf("unknown venue: %q", cfg.Venue.Active)
				}
			},
		),
	)
}
