package venue

import (
	"context"

	"trade_guard/internal/models"
)

// Adapter is the uniform capability set implemented once per exchange.
// Exchange-specific field names never leave the adapter: responses come
// back as models.VenueResponse with values possibly absent.
type Adapter interface {
	Name() string
	Ticker(ctx context.Context, pair string) (models.Ticker, error)
	Balances(ctx context.Context) (map[string]float64, error)
	PlaceOrder(ctx context.Context, intent models.OrderIntent) (models.VenueResponse, error)
}
