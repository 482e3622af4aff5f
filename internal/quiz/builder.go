package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/quizforge/quiz-service/internal/models"
)

var (
	// ErrInsufficientQuestions means the requested per-type counts exceed
	// the pool remaining after filtering.
	ErrInsufficientQuestions = errors.New("not enough questions in pool for requested counts")

	// ErrNoEnabledTypes means the build request enables no question type
	// at all.
	ErrNoEnabledTypes = errors.New("no question types enabled")
)

// poolTypes are the types drawn from the shared shuffled pool, in
// consumption order. Table questions are sourced separately.
var poolTypes = []models.QuizType{
	models.MultipleChoice,
	models.Identification,
	models.TrueOrFalse,
}

// BuildConfig controls session assembly.
type BuildConfig struct {
	UniqueAnswerOnly bool
	TypeCounts       map[models.QuizType]int
	WithOptions      bool
}

// Build assembles an ordered session from a bank. The pool is optionally
// reduced to unique answers, shuffled once, and consumed sequentially per
// type with a single cursor: a record taken by one type is unavailable to
// the next. Table questions from tableSources are appended unconditionally.
// A final shuffle assigns global indexes; it does not determine display
// order, which the session regroups by section.
func Build(bank []models.QuestionRecord, cfg BuildConfig, tableSources []models.QuestionRecord, rng *rand.Rand) ([]models.SessionQuestion, error) {
	requested := 0
	for _, t := range poolTypes {
		if cfg.TypeCounts[t] > 0 {
			requested += cfg.TypeCounts[t]
		}
	}

	tables := make([]models.QuestionRecord, 0, len(tableSources))
	for _, q := range tableSources {
		if q.QuizType == models.FillInTheBlankTable {
			tables = append(tables, q)
		}
	}

	if requested == 0 && len(tables) == 0 {
		return nil, ErrNoEnabledTypes
	}

	pool := bank
	if cfg.UniqueAnswerOnly {
		pool = filterUniqueAnswers(bank)
	}
	if requested > len(pool) {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientQuestions, requested, len(pool))
	}

	shuffled := make([]models.QuestionRecord, len(pool))
	copy(shuffled, pool)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	composed := make([]models.QuestionRecord, 0, requested+len(tables))
	cursor := 0
	for _, t := range poolTypes {
		count := cfg.TypeCounts[t]
		for i := 0; i < count; i++ {
			record := shuffled[cursor]
			record.QuizType = t
			composed = append(composed, record)
			cursor++
		}
	}

	for _, table := range tables {
		table.WithOptions = cfg.WithOptions
		composed = append(composed, table)
	}

	rng.Shuffle(len(composed), func(i, j int) {
		composed[i], composed[j] = composed[j], composed[i]
	})

	session := make([]models.SessionQuestion, len(composed))
	for i, record := range composed {
		session[i] = models.SessionQuestion{QuestionRecord: record, GlobalIndex: i}
	}
	return session, nil
}

// filterUniqueAnswers keeps the first record per normalized correct answer.
// Records answering "true" or "false" are exempt: boolean statements are
// inherently non-unique by answer text, so each keeps its own group keyed
// by answer plus record id (or a counter when the id is absent).
func filterUniqueAnswers(bank []models.QuestionRecord) []models.QuestionRecord {
	seen := make(map[string]bool, len(bank))
	kept := make([]models.QuestionRecord, 0, len(bank))
	fallback := 0

	for _, q := range bank {
		key := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
		if key == "true" || key == "false" {
			if q.ID != "" {
				key = key + "_" + q.ID
			} else {
				key = key + "_" + strconv.Itoa(fallback)
				fallback++
			}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, q)
	}
	return kept
}
