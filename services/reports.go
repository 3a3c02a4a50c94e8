package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"training-analyzer/apperrors"
	"training-analyzer/metrics"
	"training-analyzer/models"
	"training-analyzer/storage"
	"training-analyzer/utils"
)

// ReportOptions tunes a ReportService.
type ReportOptions struct {
	// MaxLoadRecords caps LoadRecent.
	MaxLoadRecords int
	// KeepRawData stores each session's raw rows with its summary.
	KeepRawData bool
	// Excluded lists columns that are never averaged, as in Aggregate.
	Excluded []string
	// Unavailable is why store is nil, shown by Status.
	Unavailable error
}

// StoreStatus is the store connectivity shown in the status banner.
type StoreStatus struct {
	Connected bool   `json:"connected"`
	Driver    string `json:"driver,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReportService runs the save, load and delete actions against a store.
type ReportService struct {
	store   storage.ReportStore
	driver  string
	opts    ReportOptions
	logger  *utils.Logger
	metrics *metrics.Recorder
}

// NewReportService wraps store, which may be nil when it could not be opened.
func NewReportService(store storage.ReportStore, driver string, opts ReportOptions, logger *utils.Logger, rec *metrics.Recorder) *ReportService {
	if opts.MaxLoadRecords < 1 {
		opts.MaxLoadRecords = 20
	}
	return &ReportService{store: store, driver: driver, opts: opts, logger: logger, metrics: rec}
}

func (s *ReportService) available() error {
	if s.store == nil {
		return apperrors.StoreUnavailable(s.opts.Unavailable)
	}
	return nil
}

// Save persists every session of a in one batch and returns the new ids.
func (s *ReportService) Save(ctx context.Context, a *models.Analysis) ([]string, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	if a == nil || a.Result.Len() == 0 {
		return nil, &apperrors.Error{
			Kind:    apperrors.KindNoData,
			Message: "Nothing to save. Analyze a CSV file first.",
		}
	}
	a = s.recomputed(a)
	if !s.opts.KeepRawData {
		a = a.WithoutRawRows()
	}

	start := time.Now()
	ids, err := s.store.SaveAll(ctx, a)
	err = storeError("save", err)
	s.metrics.ObserveStoreOp("save", start, err)
	if err != nil {
		s.logger.Error("[reports] Save of %d sessions failed: %v", a.Result.Len(), err)
		return nil, err
	}

	s.logger.Info("[reports] Saved %d sessions from %s", len(ids), sourceLabel(a))
	return ids, nil
}

// LoadRecent returns the newest records. A limit outside 1..MaxLoadRecords
// is replaced by MaxLoadRecords.
func (s *ReportService) LoadRecent(ctx context.Context, limit int) ([]*models.StoredRecord, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	if limit < 1 || limit > s.opts.MaxLoadRecords {
		limit = s.opts.MaxLoadRecords
	}

	start := time.Now()
	records, err := s.store.LoadRecent(ctx, limit)
	err = storeError("load", err)
	s.metrics.ObserveStoreOp("load", start, err)
	if err != nil {
		s.logger.Error("[reports] Load failed: %v", err)
		return nil, err
	}

	s.logger.Debug("[reports] Loaded %d records (limit %d)", len(records), limit)
	return records, nil
}

// Delete removes one record. Callers reload the list to see the change.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.available(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.InvalidInput("A record id is required.")
	}

	start := time.Now()
	err := storeError("delete", s.store.DeleteByID(ctx, id))
	s.metrics.ObserveStoreOp("delete", start, err)
	if err != nil {
		s.logger.Error("[reports] Delete %s failed: %v", id, err)
		return err
	}

	s.logger.Info("[reports] Deleted %s", id)
	return nil
}

// Status pings the store.
func (s *ReportService) Status(ctx context.Context) StoreStatus {
	st := StoreStatus{Driver: s.driver}
	if s.store == nil {
		if s.opts.Unavailable != nil {
			st.Error = s.opts.Unavailable.Error()
		} else {
			st.Error = "store not configured"
		}
		return st
	}
	if err := s.store.Ping(ctx); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Connected = true
	return st
}

func (s *ReportService) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// recomputed rebuilds every session that carries raw rows from those rows,
// so a posted analysis cannot store averages its rows do not support.
// Sessions without rows are kept as given.
func (s *ReportService) recomputed(a *models.Analysis) *models.Analysis {
	skip := skipSet(a.SessionColumn, s.opts.Excluded)
	result := &models.AnalysisResult{Sessions: make([]*models.SessionSummary, 0, a.Result.Len())}

	for _, sess := range a.Result.Sessions {
		if len(sess.Rows) == 0 {
			result.Sessions = append(result.Sessions, sess)
			continue
		}
		rebuilt := summarise(&models.SessionGroup{Name: sess.SessionName, Rows: sess.Rows}, skip)
		if rebuilt.RowCount != sess.RowCount || len(rebuilt.Averages) != len(sess.Averages) {
			s.logger.Warn("[reports] Session %q did not match its rows; saving the recomputed summary", sess.SessionName)
		}
		result.Sessions = append(result.Sessions, rebuilt)
	}

	return models.NewAnalysis(a.SourceName, a.SessionColumn, result, a.AnalyzedAt)
}

// storeError makes sure a store failure carries a kind.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.StoreOperationFailed(op, err)
}

func sourceLabel(a *models.Analysis) string {
	if a.SourceName == "" {
		return "an unnamed upload"
	}
	return a.SourceName
}
