package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"training-analyzer/apperrors"
	"training-analyzer/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveAll(ctx context.Context, a *models.Analysis) ([]string, error) {
	args := m.Called(ctx, a)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockStore) LoadRecent(ctx context.Context, limit int) ([]*models.StoredRecord, error) {
	args := m.Called(ctx, limit)
	recs, _ := args.Get(0).([]*models.StoredRecord)
	return recs, args.Error(1)
}

func (m *mockStore) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func sampleAnalysis() *models.Analysis {
	row := textRow("Session", "A", "Pace", "5")
	return models.NewAnalysis("a.csv", "Session", &models.AnalysisResult{Sessions: []*models.SessionSummary{
		{SessionName: "A", RowCount: 1, Averages: models.Averages{{Metric: "Pace", Value: 5}}, Rows: []models.Row{row}},
		{SessionName: "B", RowCount: 0},
	}}, time.Now())
}

func TestReportServiceSave(t *testing.T) {
	store := &mockStore{}
	store.On("SaveAll", mock.Anything, mock.MatchedBy(func(a *models.Analysis) bool {
		return a.Result.Len() == 2 && len(a.Result.Sessions[0].Rows) == 1
	})).Return([]string{"id-a", "id-b"}, nil)

	svc := NewReportService(store, "sqlite", ReportOptions{MaxLoadRecords: 20, KeepRawData: true}, newTestLogger(), nil)
	ids, err := svc.Save(context.Background(), sampleAnalysis())

	require.NoError(t, err)
	assert.Equal(t, []string{"id-a", "id-b"}, ids)
	store.AssertExpectations(t)
}

func TestReportServiceSaveRecomputesFromRows(t *testing.T) {
	posted := models.NewAnalysis("a.csv", "Session", &models.AnalysisResult{Sessions: []*models.SessionSummary{{
		SessionName: "A",
		RowCount:    10,
		Averages:    models.Averages{{Metric: "Pace", Value: 99}, {Metric: "Fake", Value: 1}, {Metric: "Timestamp", Value: 3}},
		Rows: []models.Row{
			textRow("Timestamp", "1700000000", "Session", "A", "Pace", "5"),
			textRow("Timestamp", "1700000060", "Session", "A", "Pace", "7", "Notes", "easy"),
		},
	}}}, time.Now())

	store := &mockStore{}
	store.On("SaveAll", mock.Anything, mock.MatchedBy(func(a *models.Analysis) bool {
		s := a.Result.Sessions[0]
		pace, ok := s.Averages.Get("Pace")
		return ok && pace == 6 && s.RowCount == 2 && len(s.Averages) == 1 &&
			a.TotalSessions == 1 && a.TotalRecords == 2
	})).Return([]string{"id-a"}, nil)

	svc := NewReportService(store, "sqlite", ReportOptions{KeepRawData: true, Excluded: []string{"Timestamp"}}, newTestLogger(), nil)
	_, err := svc.Save(context.Background(), posted)

	require.NoError(t, err)
	store.AssertExpectations(t)
	assert.Equal(t, 10, posted.Result.Sessions[0].RowCount, "caller's analysis is not modified")
}

func TestReportServiceSaveStripsRawRows(t *testing.T) {
	store := &mockStore{}
	store.On("SaveAll", mock.Anything, mock.MatchedBy(func(a *models.Analysis) bool {
		return a.Result.Sessions[0].Rows == nil
	})).Return([]string{"x", "y"}, nil)

	svc := NewReportService(store, "sqlite", ReportOptions{KeepRawData: false}, newTestLogger(), nil)
	original := sampleAnalysis()
	_, err := svc.Save(context.Background(), original)

	require.NoError(t, err)
	assert.Len(t, original.Result.Sessions[0].Rows, 1, "caller's analysis is not modified")
	store.AssertExpectations(t)
}

func TestReportServiceSaveRejectsEmptyAnalysis(t *testing.T) {
	store := &mockStore{}
	svc := NewReportService(store, "sqlite", ReportOptions{}, newTestLogger(), nil)

	_, err := svc.Save(context.Background(), nil)
	assert.True(t, errors.Is(err, apperrors.ErrNoData))

	_, err = svc.Save(context.Background(), &models.Analysis{})
	assert.True(t, errors.Is(err, apperrors.ErrNoData))
	store.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestReportServiceWrapsStoreErrors(t *testing.T) {
	store := &mockStore{}
	store.On("SaveAll", mock.Anything, mock.Anything).Return(nil, errors.New("batch rejected"))
	store.On("LoadRecent", mock.Anything, 20).Return(nil, errors.New("timeout"))
	store.On("DeleteByID", mock.Anything, "abc").Return(errors.New("permission denied"))

	svc := NewReportService(store, "postgres", ReportOptions{}, newTestLogger(), nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, sampleAnalysis())
	assert.True(t, errors.Is(err, apperrors.ErrStoreOperationFailed))
	assert.Equal(t, "An error occurred while saving the data.", apperrors.UserMessage(err))

	_, err = svc.LoadRecent(ctx, 0)
	assert.True(t, errors.Is(err, apperrors.ErrStoreOperationFailed))
	assert.Equal(t, "An error occurred while loading the saved data.", apperrors.UserMessage(err))

	err = svc.Delete(ctx, "abc")
	assert.True(t, errors.Is(err, apperrors.ErrStoreOperationFailed))
	assert.Equal(t, "An error occurred while deleting the data.", apperrors.UserMessage(err))
}

func TestReportServiceLoadRecentClampsLimit(t *testing.T) {
	store := &mockStore{}
	store.On("LoadRecent", mock.Anything, 5).Return([]*models.StoredRecord{{ID: "1"}}, nil).Twice()
	store.On("LoadRecent", mock.Anything, 3).Return([]*models.StoredRecord{}, nil).Once()

	svc := NewReportService(store, "sqlite", ReportOptions{MaxLoadRecords: 5}, newTestLogger(), nil)
	ctx := context.Background()

	recs, err := svc.LoadRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = svc.LoadRecent(ctx, 500)
	require.NoError(t, err)

	_, err = svc.LoadRecent(ctx, 3)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReportServiceDeleteRequiresID(t *testing.T) {
	store := &mockStore{}
	svc := NewReportService(store, "sqlite", ReportOptions{}, newTestLogger(), nil)

	err := svc.Delete(context.Background(), "  ")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	store.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestReportServiceWithoutStore(t *testing.T) {
	svc := NewReportService(nil, "postgres", ReportOptions{Unavailable: errors.New("connection refused")}, newTestLogger(), nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, sampleAnalysis())
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	_, err = svc.LoadRecent(ctx, 1)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	assert.True(t, errors.Is(svc.Delete(ctx, "x"), apperrors.ErrStoreUnavailable))

	st := svc.Status(ctx)
	assert.False(t, st.Connected)
	assert.Equal(t, "connection refused", st.Error)
	assert.NoError(t, svc.Close())
}

func TestReportServiceStatus(t *testing.T) {
	store := &mockStore{}
	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("gone")).Once()

	svc := NewReportService(store, "sqlite", ReportOptions{}, newTestLogger(), nil)

	assert.Equal(t, StoreStatus{Connected: true, Driver: "sqlite"}, svc.Status(context.Background()))
	assert.Equal(t, StoreStatus{Driver: "sqlite", Error: "gone"}, svc.Status(context.Background()))
}
