package repository

import (
	"context"

	"github.com/RaikyD/laundry-queue/internal/domain"
)

// OrderRepo is the durable copy of the order collection. SaveAll overwrites
// everything with the given orders, in order; it is not an upsert.
type OrderRepo interface {
	LoadAll(ctx context.Context) ([]domain.Order, error)
	SaveAll(ctx context.Context, orders []domain.Order) error
	Clear(ctx context.Context) error
}
