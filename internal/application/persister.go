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

var errPersisterClosed = errors.New("persister closed")

type jobKind int

const (
	jobSave jobKind = iota
	jobClear
	jobBarrier
)

type writeJob struct {
	kind   jobKind
	orders []domain.Order
	events []domain.Event
	result chan error
}

// persister is the single writer for the durable copy. Jobs run in submission
// order; saves are best effort and a failed one is logged and dropped.
//
// Enqueueing never blocks. Consecutive saves that the writer has not picked up
// yet collapse into one job holding the newest snapshot and every event in
// order, since SaveAll overwrites the whole collection anyway.
type persister struct {
	repo    repository.OrderRepo
	events  EventPublisher
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  []*writeJob
	wake   chan struct{}
	done   chan struct{}
}

func newPersister(r repository.OrderRepo, events EventPublisher, timeout time.Duration) *persister {
	p := &persister{
		repo:    r,
		events:  events,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) save(orders []domain.Order, e domain.Event) {
	if !p.submit(&writeJob{kind: jobSave, orders: orders, events: []domain.Event{e}}) {
		logger.Warn("persister closed, write dropped", "count", len(orders))
	}
}

func (p *persister) clear(e domain.Event) <-chan error {
	res := make(chan error, 1)
	if !p.submit(&writeJob{kind: jobClear, events: []domain.Event{e}, result: res}) {
		res <- errPersisterClosed
	}
	return res
}

func (p *persister) flush(ctx context.Context) error {
	res := make(chan error, 1)
	if !p.submit(&writeJob{kind: jobBarrier, result: res}) {
		return nil
	}
	select {
	case <-res:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *persister) submit(j *writeJob) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	if n := len(p.queue); j.kind == jobSave && n > 0 && p.queue[n-1].kind == jobSave {
		last := p.queue[n-1]
		last.orders = j.orders
		last.events = append(last.events, j.events...)
	} else {
		p.queue = append(p.queue, j)
	}
	p.mu.Unlock()

	p.signal()
	return true
}

func (p *persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.signal()
	<-p.done
}

func (p *persister) run() {
	defer close(p.done)

	for {
		p.mu.Lock()
		batch := p.queue
		p.queue = nil
		closed := p.closed
		p.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-p.wake
			continue
		}
		for _, j := range batch {
			p.process(j)
		}
	}
}

func (p *persister) process(j *writeJob) {
	var err error
	switch j.kind {
	case jobSave:
		err = p.withTimeout(func(ctx context.Context) error {
			return p.repo.SaveAll(ctx, j.orders)
		})
		if err != nil {
			logger.Warn("persist orders failed, write dropped", "err", err, "count", len(j.orders))
		}
	case jobClear:
		err = p.withTimeout(p.repo.Clear)
	}

	if p.events != nil {
		for _, e := range j.events {
			if perr := p.withTimeout(func(ctx context.Context) error {
				return p.events.Publish(ctx, e)
			}); perr != nil {
				logger.Warn("publish event failed", "type", e.Type, "err", perr)
			}
		}
	}

	if j.result != nil {
		j.result <- err
	}
}

func (p *persister) withTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return fn(ctx)
}
