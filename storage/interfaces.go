package storage

import (
	"context"

	"training-analyzer/models"
)

// ReportStore is the interface any report backend must satisfy. All records
// live in one logical collection.
type ReportStore interface {
	// SaveAll writes one record per session of a, all or nothing, and
	// returns the new ids in session order.
	SaveAll(ctx context.Context, a *models.Analysis) ([]string, error)
	// LoadRecent returns up to limit records, newest first.
	LoadRecent(ctx context.Context, limit int) ([]*models.StoredRecord, error)
	// DeleteByID removes one record. Deleting an unknown id is not an error.
	DeleteByID(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
