package repository

import (
	"context"
	"sync"

	"github.com/RaikyD/laundry-queue/internal/domain"
)

// MemoryRepository keeps the durable copy in process memory. It backs
// STORAGE=memory and tests.
type MemoryRepository struct {
	mu     sync.Mutex
	orders []domain.Order
	saves  int
}

var _ OrderRepo = (*MemoryRepository)(nil)

func NewMemoryRepository(seed ...domain.Order) *MemoryRepository {
	return &MemoryRepository{orders: cloneOrders(seed)}
}

func (r *MemoryRepository) LoadAll(_ context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneOrders(r.orders), nil
}

func (r *MemoryRepository) SaveAll(_ context.Context, orders []domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = cloneOrders(orders)
	r.saves++
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = nil
	return nil
}

// Saves reports how many SaveAll calls have completed.
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func cloneOrders(in []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(in))
	for _, o := range in {
		out = append(out, o.Clone())
	}
	return out
}
