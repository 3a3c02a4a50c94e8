package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"training-analyzer/apperrors"
	"training-analyzer/models"
	"training-analyzer/utils"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	driver string
	// schema is a format string; %[1]s is the table name.
	schema string
	// epochMillis converts a timestamp column to epoch milliseconds.
	epochMillis func(column string) string
}

var _ ReportStore = (*SQLStore)(nil)

// SQLStore keeps report records in one SQL table.
type SQLStore struct {
	db      *sqlx.DB
	table   string
	dialect dialect
	logger  *utils.Logger
}

// newSQLStore wraps an open db and migrates its schema.
func newSQLStore(ctx context.Context, db *sqlx.DB, table string, d dialect, logger *utils.Logger) (*SQLStore, error) {
	s := &SQLStore{db: db, table: table, dialect: d, logger: logger}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("%s: migrate: %w", d.driver, err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(s.dialect.schema, s.table))
	return err
}

// SaveAll inserts one row per session inside a single transaction.
func (s *SQLStore) SaveAll(ctx context.Context, a *models.Analysis) ([]string, error) {
	if a == nil || a.Result.Len() == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.StoreOperationFailed("save", fmt.Errorf("%s: begin: %w", s.dialect.driver, err))
	}
	defer func() { _ = tx.Rollback() }()

	sessions := a.Result.Sessions
	ids := make([]string, 0, len(sessions))

	const batchSize = 50
	for i := 0; i < len(sessions); i += batchSize {
		end := i + batchSize
		if end > len(sessions) {
			end = len(sessions)
		}
		batchIDs, err := s.insertBatch(ctx, tx, sessions[i:end])
		if err != nil {
			return nil, apperrors.StoreOperationFailed("save", err)
		}
		ids = append(ids, batchIDs...)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.StoreOperationFailed("save", fmt.Errorf("%s: commit: %w", s.dialect.driver, err))
	}

	s.logger.Debug("[store] Committed %d records to %s", len(ids), s.table)
	return ids, nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sqlx.Tx, batch []*models.SessionSummary) ([]string, error) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*5)
	ids := make([]string, 0, len(batch))

	for _, sess := range batch {
		averages, err := json.Marshal(sess.Averages)
		if err != nil {
			return nil, fmt.Errorf("encode averages of %q: %w", sess.SessionName, err)
		}
		var rawData interface{}
		if len(sess.Rows) > 0 {
			raw, err := json.Marshal(sess.Rows)
			if err != nil {
				return nil, fmt.Errorf("encode rows of %q: %w", sess.SessionName, err)
			}
			rawData = string(raw)
		}

		id := uuid.NewString()
		ids = append(ids, id)
		valueStrings = append(valueStrings, "(?, ?, ?, ?, ?)")
		valueArgs = append(valueArgs, id, sess.SessionName, sess.RowCount, string(averages), rawData)
	}

	query := s.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (id, session_name, row_count, averages, raw_data) VALUES %s",
		s.table, strings.Join(valueStrings, ",")))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return nil, fmt.Errorf("%s: insert: %w", s.dialect.driver, err)
	}
	return ids, nil
}

// recordRow is the scan target of LoadRecent.
type recordRow struct {
	ID          string         `db:"id"`
	SessionName string         `db:"session_name"`
	RowCount    int            `db:"row_count"`
	Averages    string         `db:"averages"`
	RawData     sql.NullString `db:"raw_data"`
	CreatedMs   int64          `db:"created_ms"`
	AnalyzedMs  sql.NullInt64  `db:"analyzed_ms"`
}

// LoadRecent returns up to limit records, newest first. Records created in
// the same millisecond come back in reverse insertion order.
func (s *SQLStore) LoadRecent(ctx context.Context, limit int) ([]*models.StoredRecord, error) {
	if limit < 1 {
		return []*models.StoredRecord{}, nil
	}

	query := s.db.Rebind(fmt.Sprintf(`
		SELECT id, session_name, row_count, averages, raw_data,
		       %s AS created_ms, %s AS analyzed_ms
		FROM %s
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`,
		s.dialect.epochMillis("created_at"), s.dialect.epochMillis("analyzed_at"), s.table))

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, apperrors.StoreOperationFailed("load", fmt.Errorf("%s: select: %w", s.dialect.driver, err))
	}

	records := make([]*models.StoredRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, apperrors.StoreOperationFailed("load", fmt.Errorf("%s: decode %s: %w", s.dialect.driver, r.ID, err))
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r recordRow) record() (*models.StoredRecord, error) {
	rec := &models.StoredRecord{
		ID:          r.ID,
		SessionName: r.SessionName,
		RowCount:    r.RowCount,
		CreatedAt:   time.UnixMilli(r.CreatedMs).UTC(),
	}
	if err := json.Unmarshal([]byte(r.Averages), &rec.Averages); err != nil {
		return nil, fmt.Errorf("averages: %w", err)
	}
	if r.RawData.Valid && r.RawData.String != "" {
		if err := json.Unmarshal([]byte(r.RawData.String), &rec.RawData); err != nil {
			return nil, fmt.Errorf("raw data: %w", err)
		}
	}
	if r.AnalyzedMs.Valid {
		at := time.UnixMilli(r.AnalyzedMs.Int64).UTC()
		rec.AnalyzedAt = &at
	}
	return rec, nil
}

// DeleteByID removes the record with id. An unknown id is logged, not returned.
func (s *SQLStore) DeleteByID(ctx context.Context, id string) error {
	query := s.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table))

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.StoreOperationFailed("delete", fmt.Errorf("%s: delete %s: %w", s.dialect.driver, id, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Warn("[store] Delete of unknown record %s ignored", id)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
