package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"training-analyzer/utils"
)

// averages stay JSON, not JSONB, so metric order survives a round trip.
var postgresDialect = dialect{
	driver: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS %[1]s (
			seq          BIGSERIAL    PRIMARY KEY,
			id           TEXT         UNIQUE NOT NULL,
			session_name TEXT         NOT NULL,
			row_count    INTEGER      NOT NULL DEFAULT 0,
			averages     JSON         NOT NULL,
			raw_data     JSON,
			analyzed_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s(created_at DESC);
	`,
	epochMillis: func(column string) string {
		return fmt.Sprintf("(EXTRACT(EPOCH FROM %s) * 1000)::BIGINT", column)
	},
}

// OpenPostgres connects to PostgreSQL, pinging with retry, and migrates the
// report table.
func OpenPostgres(ctx context.Context, dsn, table string, retry *utils.RetryConfig, logger *utils.Logger) (*SQLStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", db.PingContext); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	s, err := newSQLStore(ctx, db, table, postgresDialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("[store] Connected to PostgreSQL, collection %s", table)
	return s, nil
}
