package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// SQLiteHistoryRepository persists terminal download records. The in-memory
// registry answers live status; this is the durable record across restarts.
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository opens (creating if needed) the history database
// at the given path and migrates the schema.
func NewSQLiteHistoryRepository(path string) (*SQLiteHistoryRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.AutoMigrate(&domain.DownloadRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Create stores one terminal record.
func (r *SQLiteHistoryRepository) Create(record *domain.DownloadRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to save download record: %w", err)
	}
	return nil
}

// Recent returns the most recently finished records, newest first.
func (r *SQLiteHistoryRepository) Recent(limit int) ([]*domain.DownloadRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []*domain.DownloadRecord
	err := r.db.Order("ended_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query download history: %w", err)
	}
	return records, nil
}

// Stats aggregates record counts by terminal status.
func (r *SQLiteHistoryRepository) Stats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.DownloadRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count download records: %w", err)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&domain.DownloadRecord{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate download records: %w", err)
	}

	for _, row := range rows {
		switch domain.JobStatus(row.Status) {
		case domain.StatusCompleted:
			stats.Completed = row.Count
		case domain.StatusFailed:
			stats.Failed = row.Count
		}
	}
	return stats, nil
}

// Close releases the underlying database handle.
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
