package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadRecord is the durable row written once per terminal job
// transition. The in-memory registry holds the live session; records
// survive restarts.
type DownloadRecord struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	URL       string    `json:"url" gorm:"not null;index"`
	FormatID  string    `json:"format_id"`
	Status    JobStatus `json:"status" gorm:"not null;index"`
	Progress  float64   `json:"progress"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// NewDownloadRecord builds a record from a terminal job state.
func NewDownloadRecord(key, formatID string, state JobState) *DownloadRecord {
	rec := &DownloadRecord{
		ID:        uuid.New().String(),
		URL:       key,
		FormatID:  formatID,
		Status:    state.Status,
		Progress:  state.Progress,
		Error:     state.Error,
		StartedAt: state.StartedAt,
	}
	if state.EndedAt != nil {
		rec.EndedAt = *state.EndedAt
	}
	return rec
}

// HistoryRepository persists terminal download records.
type HistoryRepository interface {
	// Create stores one record.
	Create(record *DownloadRecord) error

	// Recent returns the most recently finished records, newest first.
	Recent(limit int) ([]*DownloadRecord, error)

	// Stats returns aggregate counts.
	Stats() (*HistoryStats, error)

	// Close releases the underlying store.
	Close() error
}

// HistoryStats represents aggregate download history counts.
type HistoryStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}
