// Package store owns the authoritative position state. Everything else
// reads and mutates lots through this interface only; mutations are atomic
// per lotID so a dashboard read never sees a half-armed guard.
package store

import (
	"context"

	"trade_guard/internal/models"
)

type Store interface {
	OpenPositions(ctx context.Context) ([]models.Position, error)
	Get(ctx context.Context, lotID string) (models.Position, bool)
	GetByPair(ctx context.Context, pair string) (models.Position, bool)
	Set(ctx context.Context, p models.Position) error
	// Update applies fn under the lot's write lock and persists the result.
	// fn returning an error leaves the stored position untouched.
	Update(ctx context.Context, lotID string, fn func(p *models.Position) error) error
	Delete(ctx context.Context, lotID string) error
	SaveTrade(ctx context.Context, t models.Trade) error

	// TryAcquire marks the lot as having an order in flight. A second tick
	// must not re-submit against a lot that has not reconciled yet.
	TryAcquire(lotID string) bool
	Release(lotID string)
}
