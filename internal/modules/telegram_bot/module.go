package telegram

import (
	"trade_guard/internal/modules/telegram_bot/service"
	"trade_guard/internal/runner"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram,

			// adapter: *service.Telegram -> runner.Notifier
			func(t *service.Telegram) runner.Notifier {
				return t
			},
		),
	)
}
