package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaikyD/laundry-queue/internal/domain"
)

// OrderRepository stores orders in PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

var _ OrderRepo = (*OrderRepository)(nil)

func NewOrderRepository(p *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: p}
}

func (p *OrderRepository) LoadAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, clothes_count, date_added, ready_date, completed, completed_date
		FROM laundry.orders
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			o             domain.Order
			completedDate *time.Time
		)
		if err := rows.Scan(&o.ID, &o.Name, &o.ClothesCount, &o.DateAdded, &o.ReadyDate, &o.Completed, &completedDate); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.CompletedDate = completedDate
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (p *OrderRepository) SaveAll(ctx context.Context, orders []domain.Order) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM laundry.orders`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}

	if len(orders) > 0 {
		batch := &pgx.Batch{}
		for i, o := range orders {
			batch.Queue(`
				INSERT INTO laundry.orders
					(id, position, name, clothes_count, date_added, ready_date, completed, completed_date)
				VALUES
					($1, $2, $3, $4, $5, $6, $7, $8)
			`,
				o.ID,
				i,
				o.Name,
				o.ClothesCount,
				o.DateAdded,
				o.ReadyDate,
				o.Completed,
				o.CompletedDate,
			)
		}
		br := tx.SendBatch(ctx, batch)
		if err = br.Close(); err != nil {
			return fmt.Errorf("insert orders: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	tx = nil
	return nil
}

func (p *OrderRepository) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM laundry.orders`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	return nil
}
