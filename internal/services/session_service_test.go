package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quizforge/quiz-service/internal/cache"
	"github.com/quizforge/quiz-service/internal/events"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/quiz"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/quizforge/quiz-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHistoryRepository is a mock implementation of HistoryRepository.
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) List(ctx context.Context, filters repositories.HistoryFilters) ([]*models.HistoryEntry, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HistoryEntry), args.Error(1)
}

type sessionFixture struct {
	service   SessionService
	banks     BankService
	repo      *MockHistoryRepository
	publisher *events.MockEventPublisher
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	logger := testLogger()
	repo := new(MockHistoryRepository)
	publisher := events.NewMockEventPublisher(logger)
	banks := NewBankService(cache.NewNoopCache(), logger)

	return &sessionFixture{
		service:   NewSessionService(repo, banks, publisher, logger, validator.New(), 0),
		banks:     banks,
		repo:      repo,
		publisher: publisher,
	}
}

const sessionBankJSON = `[
	{"id": "q1", "question": "Capital of France?", "options": ["Paris", "Berlin", "Madrid", "Rome"], "correctAnswer": "Paris"},
	{"id": "q2", "question": "Capital of Germany?", "options": [], "correctAnswer": "Berlin"},
	{"id": "q3", "question": "Capital of Spain?", "options": [], "correctAnswer": "Madrid"},
	{"id": "q4", "question": "Capital of Italy?", "options": [], "correctAnswer": "Rome"}
]`

func (f *sessionFixture) importBank(t *testing.T) *models.QuestionBank {
	t.Helper()
	bank, err := f.banks.ImportBank(context.Background(), strings.NewReader(sessionBankJSON), "capitals.json")
	require.NoError(t, err)
	return bank
}

func TestCreateSession(t *testing.T) {
	f := newSessionFixture(t)
	bank := f.importBank(t)

	view, err := f.service.Create(context.Background(), &CreateSessionRequest{
		BankID:             bank.ID,
		TotalQuestionCount: 3,
		PerTypeCounts: map[models.QuizType]int{
			models.MultipleChoice: 2,
			models.Identification: 1,
		},
		Seed: 7,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, quiz.PhaseMultipleChoice, view.Phase)
	assert.False(t, view.SectionStarted)
	assert.Equal(t, 3, view.Total)
	require.NotNil(t, view.Question)
	assert.Equal(t, models.MultipleChoice, view.Question.QuizType)
	assert.NotEmpty(t, view.Question.Options)
	assert.Nil(t, view.Result)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newSessionFixture(t)
	bank := f.importBank(t)

	t.Run("missing bank id", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), &CreateSessionRequest{})
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown quiz type", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), &CreateSessionRequest{
			BankID:             bank.ID,
			TotalQuestionCount: 1,
			PerTypeCounts:      map[models.QuizType]int{"essay": 1},
		})
		assert.True(t, IsValidation(err))
	})

	t.Run("negative count", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), &CreateSessionRequest{
			BankID:             bank.ID,
			TotalQuestionCount: 1,
			PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: -1},
		})
		assert.True(t, IsValidation(err))
	})

	t.Run("count mismatch", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), &CreateSessionRequest{
			BankID:             bank.ID,
			TotalQuestionCount: 3,
			PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: 2},
		})
		assert.ErrorIs(t, err, ErrCountMismatch)
	})

	t.Run("unknown bank", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), &CreateSessionRequest{
			BankID:             "nope",
			TotalQuestionCount: 1,
			PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: 1},
		})
		assert.ErrorIs(t, err, ErrBankNotFound)
	})

	t.Run("too many questions", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), &CreateSessionRequest{
			BankID:             bank.ID,
			TotalQuestionCount: 50,
			PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: 50},
		})
		assert.ErrorIs(t, err, quiz.ErrInsufficientQuestions)
	})
}

func TestGetSessionNotFound(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.service.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// driveToLoading answers every question of a running session until the
// grading phase is reached.
func driveToLoading(t *testing.T, svc SessionService, id string) {
	t.Helper()
	ctx := context.Background()

	for {
		view, err := svc.Get(ctx, id)
		require.NoError(t, err)
		if view.Phase == quiz.PhaseLoading {
			return
		}
		require.NotNil(t, view.Question, "phase %s has no question", view.Phase)

		if !view.SectionStarted {
			view, err = svc.StartSection(ctx, id)
			require.NoError(t, err)
		}

		req := &SubmitAnswerRequest{}
		switch view.Question.QuizType {
		case models.MultipleChoice:
			req.Answer = view.Question.Options[0]
		case models.Identification:
			req.Answer = "some answer"
		case models.TrueOrFalse:
			req.Answer = "true"
		}
		_, err = svc.SubmitAnswer(ctx, id, req)
		require.NoError(t, err)

		_, err = svc.Advance(ctx, id)
		require.NoError(t, err)
	}
}

func TestFullSessionFlow(t *testing.T) {
	f := newSessionFixture(t)
	bank := f.importBank(t)
	f.repo.On("Append", mock.Anything, mock.AnythingOfType("*models.HistoryEntry")).Return(nil)

	view, err := f.service.Create(context.Background(), &CreateSessionRequest{
		BankID:             bank.ID,
		TotalQuestionCount: 4,
		PerTypeCounts: map[models.QuizType]int{
			models.MultipleChoice: 2,
			models.Identification: 1,
			models.TrueOrFalse:    1,
		},
		Seed: 7,
	})
	require.NoError(t, err)

	driveToLoading(t, f.service, view.ID)

	result, err := f.service.FinishGrading(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.GreaterOrEqual(t, result.Score, 0)

	// grading is idempotent once complete
	again, err := f.service.FinishGrading(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Score, again.Score)

	// history written once, event published once
	f.repo.AssertNumberOfCalls(t, "Append", 1)
	require.Len(t, f.publisher.Events, 1)
	assert.Equal(t, events.EventSessionCompleted, f.publisher.Events[0].Type)

	score, err := f.service.Confirm(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Score, score)

	_, err = f.service.Get(context.Background(), view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFinishGradingRequiresLoadingPhase(t *testing.T) {
	f := newSessionFixture(t)
	bank := f.importBank(t)

	view, err := f.service.Create(context.Background(), &CreateSessionRequest{
		BankID:             bank.ID,
		TotalQuestionCount: 1,
		PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: 1},
		Seed:               7,
	})
	require.NoError(t, err)

	_, err = f.service.FinishGrading(context.Background(), view.ID)
	assert.ErrorIs(t, err, ErrSessionNotGrading)
	f.repo.AssertNotCalled(t, "Append")
}

func TestFinishGradingAbandonedWritesNoHistory(t *testing.T) {
	f := newSessionFixture(t)
	bank := f.importBank(t)

	view, err := f.service.Create(context.Background(), &CreateSessionRequest{
		BankID:             bank.ID,
		TotalQuestionCount: 1,
		PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: 1},
		Seed:               7,
	})
	require.NoError(t, err)
	driveToLoading(t, f.service, view.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.service.FinishGrading(ctx, view.ID)
	assert.ErrorIs(t, err, context.Canceled)
	f.repo.AssertNotCalled(t, "Append")
	assert.Empty(t, f.publisher.Events)

	// the session survives and can be graded again
	f.repo.On("Append", mock.Anything, mock.Anything).Return(nil)
	_, err = f.service.FinishGrading(context.Background(), view.ID)
	assert.NoError(t, err)
}

func TestFinishGradingHistoryFailureNotFatal(t *testing.T) {
	f := newSessionFixture(t)
	bank := f.importBank(t)
	f.repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	view, err := f.service.Create(context.Background(), &CreateSessionRequest{
		BankID:             bank.ID,
		TotalQuestionCount: 1,
		PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: 1},
		Seed:               7,
	})
	require.NoError(t, err)
	driveToLoading(t, f.service, view.ID)

	result, err := f.service.FinishGrading(context.Background(), view.ID)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestConfirmBeforeResults(t *testing.T) {
	f := newSessionFixture(t)
	bank := f.importBank(t)

	view, err := f.service.Create(context.Background(), &CreateSessionRequest{
		BankID:             bank.ID,
		TotalQuestionCount: 1,
		PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: 1},
		Seed:               7,
	})
	require.NoError(t, err)

	_, err = f.service.Confirm(context.Background(), view.ID)
	assert.ErrorIs(t, err, ErrSessionNotDone)

	// the session is not discarded by a failed confirm
	_, err = f.service.Get(context.Background(), view.ID)
	assert.NoError(t, err)
}

func TestSubmitAnswerTableCells(t *testing.T) {
	f := newSessionFixture(t)
	tableBank, err := f.banks.ImportTableFile(context.Background(), strings.NewReader(validTableJSON), "tables.json")
	require.NoError(t, err)

	view, err := f.service.Create(context.Background(), &CreateSessionRequest{
		BankID:      f.importBank(t).ID,
		TableConfig: TableConfig{BankIDs: []string{tableBank.ID}},
		Seed:        7,
	})
	require.NoError(t, err)
	require.Equal(t, quiz.PhaseTable, view.Phase)

	_, err = f.service.StartSection(context.Background(), view.ID)
	require.NoError(t, err)

	_, err = f.service.SubmitAnswer(context.Background(), view.ID, &SubmitAnswerRequest{
		Cells: map[string]string{"bogus": "Paris"},
	})
	assert.ErrorIs(t, err, quiz.ErrAnswerRejected)

	updated, err := f.service.SubmitAnswer(context.Background(), view.ID, &SubmitAnswerRequest{
		Cells: map[string]string{"0_1": "Paris", "1_1": "Berlin"},
	})
	require.NoError(t, err)
	assert.True(t, updated.Question.Answered)
}

func TestDeterministicSeedReproducesSession(t *testing.T) {
	f := newSessionFixture(t)
	bank := f.importBank(t)

	req := func() *CreateSessionRequest {
		return &CreateSessionRequest{
			BankID:             bank.ID,
			TotalQuestionCount: 2,
			PerTypeCounts:      map[models.QuizType]int{models.MultipleChoice: 2},
			Seed:               99,
		}
	}

	a, err := f.service.Create(context.Background(), req())
	require.NoError(t, err)
	b, err := f.service.Create(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, a.Question.Question, b.Question.Question)
	assert.Equal(t, a.Question.Options, b.Question.Options)
}

func TestHistory(t *testing.T) {
	f := newSessionFixture(t)
	entries := []*models.HistoryEntry{
		{ID: 2, Score: 3, Total: 4},
		{ID: 1, Score: 1, Total: 4},
	}
	f.repo.On("List", mock.Anything, repositories.HistoryFilters{Limit: 10}).Return(entries, nil)

	got, err := f.service.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestHistoryReadFailureDegradesToEmpty(t *testing.T) {
	f := newSessionFixture(t)
	f.repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("corrupt store"))

	got, err := f.service.History(context.Background(), 0)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
