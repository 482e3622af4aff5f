package repositories

import (
	"context"

	"github.com/quizforge/quiz-service/internal/models"
)

// HistoryFilters narrows history listings.
type HistoryFilters struct {
	Limit int
}

// HistoryRepository is the persistent score-history log. Append is the only
// mutation the quiz core performs against durable state; List returns
// entries most-recent-first. Implementations must treat a corrupt or
// missing store as empty rather than failing reads.
type HistoryRepository interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
	List(ctx context.Context, filters HistoryFilters) ([]*models.HistoryEntry, error)
}
