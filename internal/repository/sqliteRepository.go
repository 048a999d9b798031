package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/RaikyD/laundry-queue/internal/domain"
	"github.com/RaikyD/laundry-queue/internal/migrate"
)

// SQLiteRepository keeps orders in a local SQLite file. Timestamps are stored
// as RFC 3339 text in UTC.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

var _ OrderRepo = (*SQLiteRepository)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := migrate.Up(ctx, db, migrate.SQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db, path: path}, nil
}

func (s *SQLiteRepository) Path() string { return s.path }

func (s *SQLiteRepository) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteRepository) LoadAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, clothes_count, date_added, ready_date, completed, completed_date
		FROM orders
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			o             domain.Order
			dateAdded     string
			readyDate     string
			completed     int
			completedDate sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Name, &o.ClothesCount, &dateAdded, &readyDate, &completed, &completedDate); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.DateAdded, err = parseTime(dateAdded); err != nil {
			return nil, fmt.Errorf("order %s date_added: %w", o.ID, err)
		}
		if o.ReadyDate, err = parseTime(readyDate); err != nil {
			return nil, fmt.Errorf("order %s ready_date: %w", o.ID, err)
		}
		o.Completed = completed != 0
		if completedDate.Valid {
			t, err := parseTime(completedDate.String)
			if err != nil {
				return nil, fmt.Errorf("order %s completed_date: %w", o.ID, err)
			}
			o.CompletedDate = &t
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (s *SQLiteRepository) SaveAll(ctx context.Context, orders []domain.Order) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders
			(id, position, name, clothes_count, date_added, ready_date, completed, completed_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range orders {
		if _, err = stmt.ExecContext(ctx,
			o.ID,
			i,
			o.Name,
			o.ClothesCount,
			formatTime(o.DateAdded),
			formatTime(o.ReadyDate),
			boolToInt(o.Completed),
			nullableTime(o.CompletedDate),
		); err != nil {
			return fmt.Errorf("insert order %s: %w", o.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
