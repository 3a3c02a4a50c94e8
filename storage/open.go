package storage

import (
	"context"
	"fmt"
	"time"

	"training-analyzer/apperrors"
	"training-analyzer/config"
	"training-analyzer/utils"
)

// Open connects the backend selected by cfg.StoreDriver. Any failure is a
// StoreUnavailable error; callers may keep running without a store.
func Open(ctx context.Context, cfg *config.Config, table string, logger *utils.Logger) (ReportStore, error) {
	var (
		s   *SQLStore
		err error
	)
	switch cfg.StoreDriver {
	case "postgres":
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.StoreConnectRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		}
		s, err = OpenPostgres(ctx, cfg.DSN(), table, retry, logger)
	case "sqlite", "":
		s, err = OpenSQLite(ctx, cfg.SQLitePath, table, logger)
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		logger.Error("[store] %v", err)
		return nil, apperrors.StoreUnavailable(err)
	}
	return s, nil
}
