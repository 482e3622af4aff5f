package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizforge/quiz-service/internal/events"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/quiz"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/quizforge/quiz-service/internal/validator"
	"gorm.io/datatypes"
)

// ===== REQUEST / RESPONSE TYPES =====

// TableConfig selects imported table files for a session.
type TableConfig struct {
	WithOptions bool     `json:"with_options"`
	BankIDs     []string `json:"bank_ids"`
}

type CreateSessionRequest struct {
	BankID             string                  `json:"bank_id" validate:"required"`
	TotalQuestionCount int                     `json:"total_question_count" validate:"gte=0"`
	PerTypeCounts      map[models.QuizType]int `json:"per_type_counts"`
	UniqueAnswerOnly   bool                    `json:"unique_answer_only"`
	TableConfig        TableConfig             `json:"table_config"`

	// Seed pins the session's random source; zero means time-seeded.
	Seed int64 `json:"seed,omitempty"`
}

type SubmitAnswerRequest struct {
	// Answer carries the selected option or typed text for non-table
	// questions.
	Answer string `json:"answer"`
	// Cells carries table entries keyed by the raw "row_col" form.
	Cells map[string]string `json:"cells,omitempty"`
}

// QuestionView is the caller-facing projection of the active question. It
// never exposes the correct answer.
type QuestionView struct {
	GlobalIndex int               `json:"global_index"`
	QuizType    models.QuizType   `json:"quiz_type"`
	Question    string            `json:"question"`
	Options     []string          `json:"options,omitempty"`
	Statement   string            `json:"statement,omitempty"`
	Table       *models.TableData `json:"table,omitempty"`
	OptionPool  []string          `json:"option_pool,omitempty"`
	Answered    bool              `json:"answered"`
}

type SessionView struct {
	ID             string                `json:"id"`
	Phase          quiz.Phase            `json:"phase"`
	SectionStarted bool                  `json:"section_started"`
	Total          int                   `json:"total"`
	SectionIndex   int                   `json:"section_index"`
	SectionSize    int                   `json:"section_size"`
	Question       *QuestionView         `json:"question,omitempty"`
	Result         *models.SessionResult `json:"result,omitempty"`
}

// ===== SERVICE =====

// SessionService owns the live session registry. Each session is driven by
// one caller at a time; a per-session mutex serializes access. The only
// durable mutation is the history append after grading.
type SessionService interface {
	Create(ctx context.Context, req *CreateSessionRequest) (*SessionView, error)
	Get(ctx context.Context, id string) (*SessionView, error)
	StartSection(ctx context.Context, id string) (*SessionView, error)
	SubmitAnswer(ctx context.Context, id string, req *SubmitAnswerRequest) (*SessionView, error)
	Advance(ctx context.Context, id string) (*SessionView, error)
	FinishGrading(ctx context.Context, id string) (*models.SessionResult, error)
	Confirm(ctx context.Context, id string) (int, error)
	History(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
}

type sessionEntry struct {
	mu      sync.Mutex
	session *quiz.Session
	graded  bool
}

type sessionService struct {
	repo      repositories.HistoryRepository
	banks     BankService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator

	// one pacing step per question during the synthetic grading phase
	stepDelay time.Duration

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewSessionService(
	repo repositories.HistoryRepository,
	banks BankService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
	stepDelay time.Duration,
) SessionService {
	return &sessionService{
		repo:      repo,
		banks:     banks,
		publisher: publisher,
		logger:    logger,
		validator: v,
		stepDelay: stepDelay,
		sessions:  make(map[string]*sessionEntry),
	}
}

// ===== CORE SESSION OPERATIONS =====

func (s *sessionService) Create(ctx context.Context, req *CreateSessionRequest) (*SessionView, error) {
	s.logger.Info("Creating quiz session",
		"bank_id", req.BankID,
		"total", req.TotalQuestionCount,
		"unique_answer_only", req.UniqueAnswerOnly)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	sum := 0
	for t, count := range req.PerTypeCounts {
		if !t.IsValid() {
			return nil, NewValidationError("per_type_counts", "unknown quiz type", string(t))
		}
		if count < 0 {
			return nil, NewValidationError("per_type_counts", "counts must be non-negative", count)
		}
		sum += count
	}
	if sum != req.TotalQuestionCount {
		return nil, fmt.Errorf("%w: counts sum to %d, total is %d", ErrCountMismatch, sum, req.TotalQuestionCount)
	}

	bank, err := s.banks.GetBank(ctx, req.BankID)
	if err != nil {
		return nil, err
	}

	var tableSources []models.QuestionRecord
	for _, tableBankID := range req.TableConfig.BankIDs {
		tableBank, err := s.banks.GetBank(ctx, tableBankID)
		if err != nil {
			return nil, fmt.Errorf("table bank %s: %w", tableBankID, err)
		}
		tableSources = append(tableSources, tableBank.Questions...)
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	built, err := quiz.Build(bank.Questions, quiz.BuildConfig{
		UniqueAnswerOnly: req.UniqueAnswerOnly,
		TypeCounts:       req.PerTypeCounts,
		WithOptions:      req.TableConfig.WithOptions,
	}, tableSources, rng)
	if err != nil {
		return nil, err
	}

	session := quiz.NewSession(built, bank.CorrectAnswers(), rng)
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &sessionEntry{session: session}
	s.mu.Unlock()

	s.logger.Info("Quiz session created", "session_id", id, "questions", session.Total())
	return s.view(id, session), nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.view(id, entry.session), nil
}

func (s *sessionService) StartSection(ctx context.Context, id string) (*SessionView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.session.StartSection(); err != nil {
		return nil, err
	}
	return s.view(id, entry.session), nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, id string, req *SubmitAnswerRequest) (*SessionView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.session
	current, ok := session.CurrentQuestion()
	if !ok {
		return nil, quiz.ErrNoActiveQuestion
	}

	switch current.QuizType {
	case models.MultipleChoice:
		err = session.SubmitChoice(req.Answer)
	case models.Identification, models.TrueOrFalse:
		err = session.SubmitText(req.Answer)
	case models.FillInTheBlankTable:
		cells := make(map[models.CellKey]string, len(req.Cells))
		for rawKey, value := range req.Cells {
			key, parseErr := models.ParseCellKey(rawKey)
			if parseErr != nil {
				return nil, fmt.Errorf("%w: %v", quiz.ErrAnswerRejected, parseErr)
			}
			cells[key] = value
		}
		err = session.SubmitTable(cells)
	default:
		err = quiz.ErrSubmissionMismatch
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Answer submitted",
		"session_id", id,
		"global_index", current.GlobalIndex,
		"quiz_type", current.QuizType)
	return s.view(id, session), nil
}

func (s *sessionService) Advance(ctx context.Context, id string) (*SessionView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.session.Advance(); err != nil {
		return nil, err
	}
	return s.view(id, entry.session), nil
}

// FinishGrading runs the synthetic grading phase: one paced step per
// question for user-perceptible pacing only, since correctness was fixed at
// submission. Abandoning the context mid-phase leaves no history entry. The
// history append is attempted before results are reported; a failed write
// is logged, not fatal.
func (s *sessionService) FinishGrading(ctx context.Context, id string) (*models.SessionResult, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.session
	if session.Phase() != quiz.PhaseLoading {
		if result, ok := session.Result(); ok {
			return &result, nil
		}
		return nil, ErrSessionNotGrading
	}

	for i := 0; i < session.Total(); i++ {
		if s.stepDelay <= 0 {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		select {
		case <-ctx.Done():
			s.logger.Info("Grading abandoned, no history written", "session_id", id)
			return nil, ctx.Err()
		case <-time.After(s.stepDelay):
		}
	}

	result, err := session.CompleteGrading()
	if err != nil {
		return nil, err
	}
	entry.graded = true

	s.recordHistory(ctx, id, result)
	s.publishCompleted(ctx, id, result)

	s.logger.Info("Quiz session graded",
		"session_id", id,
		"score", result.Score,
		"total", result.Total,
		"percentage", result.Percentage)
	return &result, nil
}

// Confirm acknowledges the results screen. It returns the final score as
// the exit signal and discards the session.
func (s *sessionService) Confirm(ctx context.Context, id string) (int, error) {
	entry, err := s.entry(id)
	if err != nil {
		return 0, err
	}
	entry.mu.Lock()
	result, ok := entry.session.Result()
	entry.mu.Unlock()
	if !ok {
		return 0, ErrSessionNotDone
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.logger.Info("Quiz session confirmed and discarded", "session_id", id)
	return result.Score, nil
}

func (s *sessionService) History(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	entries, err := s.repo.List(ctx, repositories.HistoryFilters{Limit: limit})
	if err != nil {
		// a failed read degrades to an empty history, never an error
		s.logger.Warn("history read failed, returning empty", "error", err)
		return nil, nil
	}
	return entries, nil
}

// ===== HELPERS =====

func (s *sessionService) entry(id string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

func (s *sessionService) recordHistory(ctx context.Context, id string, result models.SessionResult) {
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		breakdown = nil
	}

	entry := &models.HistoryEntry{
		Score:      result.Score,
		Total:      result.Total,
		Percentage: result.Percentage,
		Breakdown:  datatypes.JSON(breakdown),
		Date:       result.Timestamp,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("history write failed", "session_id", id, "error", err)
	}
}

func (s *sessionService) publishCompleted(ctx context.Context, id string, result models.SessionResult) {
	event := events.NewSessionCompletedEvent(uuid.NewString(), id, result)
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Error("session event publish failed", "session_id", id, "error", err)
	}
}

func (s *sessionService) view(id string, session *quiz.Session) *SessionView {
	view := &SessionView{
		ID:             id,
		Phase:          session.Phase(),
		SectionStarted: session.SectionStarted(),
		Total:          session.Total(),
	}

	if q, ok := session.CurrentQuestion(); ok {
		view.SectionIndex, view.SectionSize = session.SectionProgress()
		qv := &QuestionView{
			GlobalIndex: q.GlobalIndex,
			QuizType:    q.QuizType,
			Question:    q.Question,
		}
		switch q.QuizType {
		case models.MultipleChoice:
			qv.Options = session.Options(q.GlobalIndex)
		case models.TrueOrFalse:
			qv.Statement = session.DisplayedStatement(q.GlobalIndex)
		case models.FillInTheBlankTable:
			qv.Table = q.Table
			qv.OptionPool = session.TableOptions(q.GlobalIndex)
		}
		if state, ok := session.AnswerStateFor(q.GlobalIndex); ok {
			qv.Answered = state.Submitted
		}
		view.Question = qv
	}

	if result, ok := session.Result(); ok {
		view.Result = &result
	}
	return view
}
