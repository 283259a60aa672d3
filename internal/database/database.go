package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cafe-pos/internal/config"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Open connects to the configured database, retrying the first ping the way the service
// has always done at startup.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("DATABASE", fmt.Sprintf("Using SQLite database %s", cfg.DSN))
		if err := CreateSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.LogDatabase("CREATE", "schema", fmt.Sprintf("%d tables ready", len(schemaModels)))
		return db, nil
	case "postgres", "":
		return openPostgres(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	for i := 0; i < connectAttempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, connectAttempts))
		if err = sqldb.PingContext(ctx); err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < connectAttempts-1 {
			select {
			case <-ctx.Done():
				sqldb.Close()
				return nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}
	}
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", connectAttempts, err)
	}

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	log.LogDatabase("CONNECT", "pool", fmt.Sprintf("max open %d, max idle %d", cfg.MaxOpenConns, cfg.MaxIdleConns))
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite opens a SQLite database through bun. In-memory databases are pinned to one
// connection because every new connection would otherwise see an empty database.
func OpenSQLite(dsn string) (*bun.DB, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// OpenInMemory returns a fresh SQLite database with every table created.
func OpenInMemory(ctx context.Context) (*bun.DB, error) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	if err := CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schemaModels = []interface{}{
	(*models.Category)(nil),
	(*models.Product)(nil),
	(*models.Ticket)(nil),
	(*models.TicketCounter)(nil),
	(*models.Order)(nil),
	(*models.FiscalData)(nil),
	(*models.InventoryCategory)(nil),
	(*models.InventoryItem)(nil),
	(*models.InventoryMovement)(nil),
}

// CreateSchema creates tables straight from the bun models. Postgres deployments use the
// SQL migrations instead; this path serves SQLite dev runs and tests.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range schemaModels {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}
