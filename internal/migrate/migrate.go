package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/RaikyD/laundry-queue/internal/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// goose keeps its base FS and dialect in package state.
var mu sync.Mutex

func dirFor(d Dialect) (string, error) {
	switch d {
	case Postgres:
		return "migrations/postgres", nil
	case SQLite:
		return "migrations/sqlite", nil
	}
	return "", fmt.Errorf("unsupported dialect %q", d)
}

// Up applies every pending migration for the dialect on an open database.
func Up(ctx context.Context, db *sql.DB, d Dialect) error {
	dir, err := dirFor(d)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(string(d)); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate %s: %w", d, err)
	}
	return nil
}

// UpPostgres opens its own connection through the pgx stdlib driver.
func UpPostgres(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return Up(ctx, db, Postgres)
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.Debug("goose: " + fmt.Sprintf(format, v...))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logger.Error("goose: " + fmt.Sprintf(format, v...))
	logger.Sync()
	os.Exit(1)
}
