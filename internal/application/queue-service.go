package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RaikyD/laundry-queue/internal/domain"
	"github.com/RaikyD/laundry-queue/internal/logger"
	"github.com/RaikyD/laundry-queue/internal/repository"
)

var ErrOrderNotFound = errors.New("order not found")

// EventPublisher receives queue events after they have been handed to storage.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

// Stats are the aggregate counters shown above the queue.
type Stats struct {
	Pending             int `json:"pending"`
	Completed           int `json:"completed"`
	TotalPendingClothes int `json:"totalPendingClothes"`
	DailyLimit          int `json:"dailyLimit"`
}

// QueueService owns the order collection. All views are computed from the
// single orders slice; mutations are serialized by mu and each one schedules a
// full-collection write on the persister.
type QueueService struct {
	repo       repository.OrderRepo
	events     EventPublisher
	dailyLimit int
	timeout    time.Duration
	now        func() time.Time

	mu     sync.RWMutex
	orders []domain.Order

	persist *persister
}

type Option func(*QueueService)

func WithDailyLimit(n int) Option {
	return func(s *QueueService) {
		if n > 0 {
			s.dailyLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *QueueService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStorageTimeout bounds every storage call, including the startup load.
func WithStorageTimeout(d time.Duration) Option {
	return func(s *QueueService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *QueueService) {
		s.events = p
	}
}

func NewQueueService(r repository.OrderRepo, opts ...Option) *QueueService {
	s := &QueueService{
		repo:       r,
		dailyLimit: domain.DefaultDailyLimit,
		timeout:    5 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.persist = newPersister(r, s.events, s.timeout)
	return s
}

func (s *QueueService) DailyLimit() int { return s.dailyLimit }

// Load replaces the in-memory collection with the durable copy. A storage
// failure is logged and leaves the queue empty.
func (s *QueueService) Load(ctx context.Context) []domain.Order {
	orders, err := s.Restore(ctx)
	if err != nil {
		logger.Warn("load orders failed, starting with an empty queue", "err", err)
		s.mu.Lock()
		s.orders = nil
		s.mu.Unlock()
		return []domain.Order{}
	}
	return orders
}

// Restore is Load for callers that must not continue on a failed read. On
// error the in-memory collection is left as it was.
func (s *QueueService) Restore(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	orders, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.orders = cloneAll(orders)
	s.mu.Unlock()

	logger.Info("orders loaded", "count", len(orders))
	return cloneAll(orders), nil
}

// Add validates the input, estimates the ready date against the current
// pending orders and appends the new order. Invalid input leaves the queue
// untouched and returns an error wrapping domain.ErrValidation.
func (s *QueueService) Add(name string, clothesCount int) (domain.Order, error) {
	name, err := domain.ValidateInput(name, clothesCount)
	if err != nil {
		return domain.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ready := domain.EstimateReadyDate(s.pendingLocked(), clothesCount, s.dailyLimit, now)
	o, err := domain.NewOrder(name, clothesCount, now, ready)
	if err != nil {
		return domain.Order{}, err
	}
	s.orders = append(s.orders, o)

	added := o.Clone()
	s.persist.save(cloneAll(s.orders), domain.Event{Type: domain.EventOrderAdded, Order: &added, At: now})

	logger.Info("order added", "id", o.ID, "name", o.Name, "clothes", o.ClothesCount, "ready", o.ReadyDate.Format(time.DateOnly))
	return o.Clone(), nil
}

// Complete marks the order done. Completing an already completed order
// returns it unchanged; an unknown id returns ErrOrderNotFound.
func (s *QueueService) Complete(id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Order{}, ErrOrderNotFound
	}

	now := s.now()
	if !s.orders[i].Complete(now) {
		return s.orders[i].Clone(), nil
	}

	done := s.orders[i].Clone()
	s.persist.save(cloneAll(s.orders), domain.Event{Type: domain.EventOrderCompleted, Order: &done, At: now})

	logger.Info("order completed", "id", id)
	return done.Clone(), nil
}

// Clear empties the queue and erases the durable copy. The erase runs after
// every previously scheduled write and Clear waits for its outcome, so a
// confirmed clear is always reported truthfully. Each storage call is bounded
// by the storage timeout. The in-memory queue is empty either way.
func (s *QueueService) Clear() error {
	s.mu.Lock()
	s.orders = nil
	res := s.persist.clear(domain.Event{Type: domain.EventQueueCleared, At: s.now()})
	s.mu.Unlock()

	if err := <-res; err != nil {
		logger.Warn("clear orders failed", "err", err)
		return err
	}
	logger.Info("all orders cleared")
	return nil
}

// Flush blocks until every write scheduled so far has been attempted.
func (s *QueueService) Flush(ctx context.Context) error {
	return s.persist.flush(ctx)
}

// Close drains outstanding writes and stops the persister.
func (s *QueueService) Close() {
	s.persist.close()
}

func (s *QueueService) Get(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.orders[i].Clone(), true
	}
	return domain.Order{}, false
}

func (s *QueueService) All() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.orders)
}

// Pending returns orders not yet completed, in insertion order.
func (s *QueueService) Pending() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.pendingLocked())
}

// Completed returns completed orders, in insertion order.
func (s *QueueService) Completed() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if o.Completed {
			out = append(out, o.Clone())
		}
	}
	return out
}

func (s *QueueService) TotalPendingClothes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.TotalClothes(s.pendingLocked())
}

// Position is the 1-based rank of a pending order; false for completed or unknown ids.
func (s *QueueService) Position(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos := 0
	for _, o := range s.orders {
		if o.Completed {
			continue
		}
		pos++
		if o.ID == id {
			return pos, true
		}
	}
	return 0, false
}

func (s *QueueService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked(s.pendingLocked())
}

// Snapshot is a consistent view of the queue: every field is taken under
// the same read lock.
type Snapshot struct {
	DailyLimit int
	Stats      Stats
	Pending    []domain.Order
	Completed  []domain.Order
}

func (s *QueueService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := s.pendingLocked()
	completed := make([]domain.Order, 0, len(s.orders)-len(pending))
	for _, o := range s.orders {
		if o.Completed {
			completed = append(completed, o.Clone())
		}
	}
	return Snapshot{
		DailyLimit: s.dailyLimit,
		Stats:      s.statsLocked(pending),
		Pending:    cloneAll(pending),
		Completed:  completed,
	}
}

func (s *QueueService) statsLocked(pending []domain.Order) Stats {
	return Stats{
		Pending:             len(pending),
		Completed:           len(s.orders) - len(pending),
		TotalPendingClothes: domain.TotalClothes(pending),
		DailyLimit:          s.dailyLimit,
	}
}

func (s *QueueService) pendingLocked() []domain.Order {
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if !o.Completed {
			out = append(out, o)
		}
	}
	return out
}

func (s *QueueService) indexLocked(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(in []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(in))
	for _, o := range in {
		out = append(out, o.Clone())
	}
	return out
}
