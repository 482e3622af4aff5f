package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (repositories.HistoryRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	return NewHistoryFile(path), path
}

func entry(score, total int) *models.HistoryEntry {
	return &models.HistoryEntry{
		Score:      score,
		Total:      total,
		Percentage: score * 100 / total,
		Date:       time.Now(),
	}
}

func TestAppendAndListMostRecentFirst(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entry(1, 4)))
	require.NoError(t, store.Append(ctx, entry(2, 4)))
	require.NoError(t, store.Append(ctx, entry(3, 4)))

	entries, err := store.List(ctx, repositories.HistoryFilters{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 3, entries[0].Score)
	assert.Equal(t, 2, entries[1].Score)
	assert.Equal(t, 1, entries[2].Score)
}

func TestAppendAssignsIDs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := entry(1, 4)
	second := entry(2, 4)
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)
}

func TestListLimit(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, entry(i, 5)))
	}

	entries, err := store.List(ctx, repositories.HistoryFilters{Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 5, entries[0].Score)

	all, err := store.List(ctx, repositories.HistoryFilters{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMissingFileReadsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	entries, err := store.List(context.Background(), repositories.HistoryFilters{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCorruptFileReadsEmpty(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{{{ not json"), 0o644))

	entries, err := store.List(context.Background(), repositories.HistoryFilters{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	// an append over a corrupt store starts a fresh collection
	require.NoError(t, store.Append(context.Background(), entry(1, 2)))
	entries, err = store.List(context.Background(), repositories.HistoryFilters{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAppendCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.json")
	store := NewHistoryFile(path)

	require.NoError(t, store.Append(context.Background(), entry(1, 2)))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
