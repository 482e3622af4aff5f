// Package filestore persists the score history as a single serialized JSON
// collection with read-modify-write appends. A corrupt or missing store is
// treated as empty, never as a fatal error.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
)

type HistoryFile struct {
	path string
	mu   sync.Mutex
}

func NewHistoryFile(path string) repositories.HistoryRepository {
	return &HistoryFile{path: path}
}

// Append prepends the entry so the stored collection stays
// most-recent-first, then rewrites the whole file.
func (h *HistoryFile) Append(ctx context.Context, entry *models.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.load()
	if entry.ID == 0 {
		entry.ID = nextID(entries)
	}
	entries = append([]*models.HistoryEntry{entry}, entries...)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(h.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(h.path, data, 0o644)
}

func (h *HistoryFile) List(ctx context.Context, filters repositories.HistoryFilters) ([]*models.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.load()
	if filters.Limit > 0 && filters.Limit < len(entries) {
		entries = entries[:filters.Limit]
	}
	return entries, nil
}

// load reads the stored collection. Missing or unparseable files read as
// empty.
func (h *HistoryFile) load() []*models.HistoryEntry {
	data, err := os.ReadFile(h.path)
	if err != nil {
		// missing and unreadable stores both read as empty
		return nil
	}

	var entries []*models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}

func nextID(entries []*models.HistoryEntry) uint {
	max := uint(0)
	for _, e := range entries {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}
