package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"training-analyzer/utils"
)

const sqliteNowMillis = "(CAST((julianday('now') - 2440587.5) * 86400000 AS INTEGER))"

var sqliteDialect = dialect{
	driver: "sqlite3",
	schema: `
		CREATE TABLE IF NOT EXISTS %[1]s (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT    NOT NULL UNIQUE,
			session_name TEXT    NOT NULL,
			row_count    INTEGER NOT NULL DEFAULT 0,
			averages     TEXT    NOT NULL,
			raw_data     TEXT,
			analyzed_at  INTEGER NOT NULL DEFAULT ` + sqliteNowMillis + `,
			created_at   INTEGER NOT NULL DEFAULT ` + sqliteNowMillis + `
		);

		CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s(created_at DESC);
	`,
	// timestamps are already stored as epoch milliseconds
	epochMillis: func(column string) string { return column },
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// the report table. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path, table string, logger *utils.Logger) (*SQLStore, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:?_busy_timeout=5000"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite3: create database directory: %w", err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite3: open: %w", err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite3: %w", err)
	}

	s, err := newSQLStore(ctx, db, table, sqliteDialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("[store] Opened SQLite database %s, collection %s", path, table)
	return s, nil
}
