package postgres

import (
	"context"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type HistoryPostgreSQL struct {
	db *gorm.DB
}

func NewHistoryPostgreSQL(db *gorm.DB) *HistoryPostgreSQL {
	return &HistoryPostgreSQL{db: db}
}

var _ repositories.HistoryRepository = (*HistoryPostgreSQL)(nil)

func (h HistoryPostgreSQL) Append(ctx context.Context, entry *models.HistoryEntry) error {
	return h.db.WithContext(ctx).Create(entry).Error
}

func (h HistoryPostgreSQL) List(ctx context.Context, filters repositories.HistoryFilters) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry

	query := h.db.WithContext(ctx).Model(&models.HistoryEntry{}).Order("date DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Migrate creates the history table.
func (h HistoryPostgreSQL) Migrate() error {
	return h.db.AutoMigrate(&models.HistoryEntry{})
}
