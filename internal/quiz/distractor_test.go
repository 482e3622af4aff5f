package quiz

import (
	"math/rand"
	"testing"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestSimilarityScoreRanksRelatedHigher(t *testing.T) {
	related := SimilarityScore("North America", "South America")
	unrelated := SimilarityScore("North America", "Photosynthesis")

	assert.Greater(t, related, 0.0)
	assert.Equal(t, 0.0, unrelated)
	assert.Greater(t, related, unrelated)
}

func TestSimilarityScoreContainment(t *testing.T) {
	contained := SimilarityScore("York", "New York")
	assert.Greater(t, contained, 0.0)

	// identical folded forms are not candidates
	assert.Equal(t, 0.0, SimilarityScore("Paris", "paris!"))
	assert.Equal(t, 0.0, SimilarityScore("", "anything"))
}

func TestSimilarityScorePrefixBonus(t *testing.T) {
	withPrefix := SimilarityScore("carbon dioxide", "carbon monoxide")
	assert.GreaterOrEqual(t, withPrefix, prefixBonus)
}

func TestGenerateOptionsBooleanSpecialCase(t *testing.T) {
	q := models.QuestionRecord{CorrectAnswer: "True"}
	options := GenerateOptions(q, []string{"Paris", "Berlin", "True", "False"}, testRand())

	require.Len(t, options, 2)
	assert.ElementsMatch(t, []string{"True", "False"}, options)
}

func TestGenerateOptionsContract(t *testing.T) {
	bank := []string{"Paris", "Berlin", "Madrid", "Rome", "Lisbon", "Vienna"}
	q := models.QuestionRecord{CorrectAnswer: "Paris"}

	options := GenerateOptions(q, bank, testRand())

	assert.GreaterOrEqual(t, len(options), 1)
	assert.LessOrEqual(t, len(options), OptionCount)

	correctCount := 0
	seen := make(map[string]bool)
	for _, opt := range options {
		key := foldAnswer(opt)
		assert.False(t, seen[key], "duplicate normalized option %q", opt)
		seen[key] = true
		if key == foldAnswer("Paris") {
			correctCount++
		}
	}
	assert.Equal(t, 1, correctCount, "correct answer must appear exactly once")
}

func TestGenerateOptionsPrefersRecordOptions(t *testing.T) {
	q := models.QuestionRecord{
		CorrectAnswer: "Mitochondria",
		Options:       []string{"Mitochondria", "Nucleus", "Ribosome", "Golgi Apparatus"},
	}

	options := GenerateOptions(q, []string{"Paris", "Berlin"}, testRand())

	require.Len(t, options, OptionCount)
	assert.ElementsMatch(t, q.Options, options)
}

func TestGenerateOptionsSynthesizesOnEmptyBank(t *testing.T) {
	q := models.QuestionRecord{CorrectAnswer: "Paris"}

	options := GenerateOptions(q, nil, testRand())

	require.NotEmpty(t, options)
	assert.Contains(t, options, "Paris")
	for _, opt := range options {
		if opt == "Paris" {
			continue
		}
		assert.NotEqual(t, foldAnswer("Paris"), foldAnswer(opt))
	}
}

func TestPickDisplayedStatementFromOptions(t *testing.T) {
	q := models.QuestionRecord{
		CorrectAnswer: "Paris",
		Options:       []string{"Paris", "Berlin"},
	}

	rng := testRand()
	for i := 0; i < 20; i++ {
		statement := PickDisplayedStatement(q, []string{"Rome"}, rng)
		assert.Contains(t, q.Options, statement)
	}
}

func TestPickDisplayedStatementCoinFlip(t *testing.T) {
	q := models.QuestionRecord{CorrectAnswer: "Paris"}
	bank := []string{"Paris", "Berlin", "Madrid"}

	rng := testRand()
	sawTrue, sawFalse := false, false
	for i := 0; i < 100; i++ {
		statement := PickDisplayedStatement(q, bank, rng)
		if equalsFolded(statement, "Paris") {
			sawTrue = true
		} else {
			sawFalse = true
			assert.Contains(t, []string{"Berlin", "Madrid"}, statement)
		}
	}
	assert.True(t, sawTrue, "correct statement never displayed")
	assert.True(t, sawFalse, "wrong statement never displayed")
}

func TestPickDisplayedStatementNoWrongCandidates(t *testing.T) {
	q := models.QuestionRecord{CorrectAnswer: "Paris"}

	rng := testRand()
	for i := 0; i < 20; i++ {
		assert.Equal(t, "Paris", PickDisplayedStatement(q, []string{"paris", " PARIS "}, rng))
	}
}

func TestTableOptionPool(t *testing.T) {
	q := models.QuestionRecord{
		QuizType: models.FillInTheBlankTable,
		Answers: map[models.CellKey]string{
			{Row: 0, Col: 1}: "Paris",
			{Row: 1, Col: 1}: "Berlin",
		},
		WrongOptions: []string{"Rome", "  Paris  ", "Madrid"},
	}

	pool := TableOptionPool(q, testRand())

	assert.ElementsMatch(t, []string{"Paris", "Berlin", "Rome", "Madrid"}, pool)
}
