package models

import "time"

// StoredRecord is one persisted session summary as read back from the store.
type StoredRecord struct {
	ID          string     `json:"id"`
	SessionName string     `json:"sessionName"`
	RowCount    int        `json:"rowCount"`
	Averages    Averages   `json:"averages"`
	RawData     []Row      `json:"rawData,omitempty"`
	AnalyzedAt  *time.Time `json:"analyzedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
