package quiz

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/quizforge/quiz-service/internal/models"
)

// Phase is the session's current position in its lifecycle: one typed
// section, the synthetic grading phase, the terminal results phase, or none
// when the session holds no questions.
type Phase string

const (
	PhaseMultipleChoice Phase = Phase(models.MultipleChoice)
	PhaseIdentification Phase = Phase(models.Identification)
	PhaseTrueOrFalse    Phase = Phase(models.TrueOrFalse)
	PhaseTable          Phase = Phase(models.FillInTheBlankTable)
	PhaseLoading        Phase = "loading"
	PhaseResults        Phase = "results"
	PhaseNone           Phase = "none"
)

var (
	// ErrAnswerRejected is a local input-validation rejection: the
	// submission does not meet the current question's requirements. No
	// state changes.
	ErrAnswerRejected = errors.New("answer rejected: input requirements not met")

	// ErrSubmissionMismatch means the submission kind does not match the
	// current question type.
	ErrSubmissionMismatch = errors.New("submission does not match current question type")

	ErrNoActiveQuestion  = errors.New("no active question")
	ErrSectionNotStarted = errors.New("section intro not dismissed")
	ErrAlreadyAnswered   = errors.New("current question already answered")
	ErrNotAnswered       = errors.New("current question not answered")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// Session is the quiz state machine. Questions are regrouped by type into
// sections in SectionPrecedence order; the build-time interleaving only
// determines global index assignment. All per-question state is created at
// construction and keyed by global index. A Session is owned by a single
// caller; it performs no locking of its own.
type Session struct {
	sections map[models.QuizType][]models.SessionQuestion

	phase          Phase
	currentSection models.QuizType
	sectionIndex   int
	globalIndex    int
	sectionStarted bool

	answers        map[int]*models.AnswerState
	tableSnapshots map[int]map[models.CellKey]string
	options        map[int][]string
	tfDisplay      map[int]string
	tablePools     map[int][]string

	total  int
	result *models.SessionResult
}

// NewSession organizes built questions into sections and fixes all derived
// per-question state: multiple-choice option sets, true/false displayed
// statements, table option pools, and correct-answer snapshots. bankAnswers
// is the full bank's answer pool used for distractor and statement
// sampling; rng is the injected random source.
func NewSession(questions []models.SessionQuestion, bankAnswers []string, rng *rand.Rand) *Session {
	s := &Session{
		sections:       make(map[models.QuizType][]models.SessionQuestion),
		phase:          PhaseNone,
		sectionIndex:   0,
		globalIndex:    -1,
		answers:        make(map[int]*models.AnswerState, len(questions)),
		tableSnapshots: make(map[int]map[models.CellKey]string),
		options:        make(map[int][]string),
		tfDisplay:      make(map[int]string),
		tablePools:     make(map[int][]string),
		total:          len(questions),
	}

	for _, q := range questions {
		s.sections[q.QuizType] = append(s.sections[q.QuizType], q)

		state := &models.AnswerState{CorrectSnapshot: q.CorrectAnswer}
		s.answers[q.GlobalIndex] = state

		switch q.QuizType {
		case models.MultipleChoice:
			s.options[q.GlobalIndex] = GenerateOptions(q.QuestionRecord, bankAnswers, rng)
		case models.TrueOrFalse:
			s.tfDisplay[q.GlobalIndex] = PickDisplayedStatement(q.QuestionRecord, bankAnswers, rng)
		case models.FillInTheBlankTable:
			snapshot := make(map[models.CellKey]string, len(q.Answers))
			for key, value := range q.Answers {
				snapshot[key] = value
			}
			s.tableSnapshots[q.GlobalIndex] = snapshot
			if q.WithOptions {
				s.tablePools[q.GlobalIndex] = TableOptionPool(q.QuestionRecord, rng)
			}
		}
	}

	for _, t := range models.SectionPrecedence {
		if len(s.sections[t]) > 0 {
			s.phase = Phase(t)
			s.currentSection = t
			s.globalIndex = s.sections[t][0].GlobalIndex
			break
		}
	}

	return s
}

// ===== STATE ACCESSORS =====

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) SectionStarted() bool {
	return s.sectionStarted
}

// Total is the number of session questions; a table question counts as one
// unit regardless of cell count.
func (s *Session) Total() int {
	return s.total
}

// CurrentQuestion returns the active question, or false when the session is
// not on a question phase.
func (s *Session) CurrentQuestion() (models.SessionQuestion, bool) {
	if !s.inQuestionPhase() {
		return models.SessionQuestion{}, false
	}
	return s.sections[s.currentSection][s.sectionIndex], true
}

// SectionProgress reports the 0-based position within the current section
// and the section's length.
func (s *Session) SectionProgress() (index, size int) {
	if !s.inQuestionPhase() {
		return 0, 0
	}
	return s.sectionIndex, len(s.sections[s.currentSection])
}

// Options returns the generated option set for a multiple-choice question.
func (s *Session) Options(globalIndex int) []string {
	return s.options[globalIndex]
}

// DisplayedStatement returns the fixed claim text shown for a true/false
// question. It may itself be false.
func (s *Session) DisplayedStatement(globalIndex int) string {
	return s.tfDisplay[globalIndex]
}

// TableOptions returns the selectable value pool of a "with options" table
// question. Values are reusable across cells.
func (s *Session) TableOptions(globalIndex int) []string {
	return s.tablePools[globalIndex]
}

// AnswerStateFor returns a copy of the answer state for a global index.
func (s *Session) AnswerStateFor(globalIndex int) (models.AnswerState, bool) {
	state, ok := s.answers[globalIndex]
	if !ok {
		return models.AnswerState{}, false
	}
	return *state, true
}

func (s *Session) inQuestionPhase() bool {
	switch s.phase {
	case PhaseMultipleChoice, PhaseIdentification, PhaseTrueOrFalse, PhaseTable:
		return true
	}
	return false
}

// ===== TRANSITIONS =====

// StartSection dismisses the section intro, unlocking the first question of
// the current section.
func (s *Session) StartSection() error {
	if !s.inQuestionPhase() {
		return ErrInvalidTransition
	}
	s.sectionStarted = true
	return nil
}

// Advance moves past the current (answered) question: to the next question
// of the section, to the first question of the next non-empty section, or
// to the grading phase after the last question of the last section.
func (s *Session) Advance() error {
	if !s.inQuestionPhase() {
		return ErrInvalidTransition
	}
	if !s.sectionStarted {
		return ErrSectionNotStarted
	}
	if !s.answers[s.globalIndex].Submitted {
		return ErrNotAnswered
	}

	section := s.sections[s.currentSection]
	if s.sectionIndex+1 < len(section) {
		s.sectionIndex++
		s.globalIndex = section[s.sectionIndex].GlobalIndex
		return nil
	}

	if next, ok := s.nextSection(); ok {
		s.currentSection = next
		s.phase = Phase(next)
		s.sectionIndex = 0
		s.globalIndex = s.sections[next][0].GlobalIndex
		s.sectionStarted = false
		return nil
	}

	s.phase = PhaseLoading
	return nil
}

func (s *Session) nextSection() (models.QuizType, bool) {
	passed := false
	for _, t := range models.SectionPrecedence {
		if t == s.currentSection {
			passed = true
			continue
		}
		if passed && len(s.sections[t]) > 0 {
			return t, true
		}
	}
	return "", false
}

// CompleteGrading finishes the synthetic grading phase. It is only
// reachable from loading; this is the point at which the session result is
// computed. The session is terminal afterwards.
func (s *Session) CompleteGrading() (models.SessionResult, error) {
	if s.phase != PhaseLoading {
		return models.SessionResult{}, ErrInvalidTransition
	}
	result := s.computeResult()
	s.result = &result
	s.phase = PhaseResults
	return result, nil
}

// Result returns the computed session result once grading has completed.
func (s *Session) Result() (models.SessionResult, bool) {
	if s.result == nil {
		return models.SessionResult{}, false
	}
	return *s.result, true
}

// ===== SUBMISSION =====

// SubmitChoice records a multiple-choice selection. The selection must be a
// non-empty member of the generated option set; correctness is a
// trim-then-case-insensitive match against the snapshotted correct answer.
func (s *Session) SubmitChoice(option string) error {
	q, state, err := s.submittable(models.MultipleChoice)
	if err != nil {
		return err
	}

	selected := strings.TrimSpace(option)
	if selected == "" || !containsOption(s.options[q.GlobalIndex], option) {
		return ErrAnswerRejected
	}

	s.record(state, option, strings.EqualFold(selected, strings.TrimSpace(state.CorrectSnapshot)))
	return nil
}

// SubmitText records a typed answer for the current question. For
// identification questions both sides are normalized before exact
// comparison. For true/false questions the text must read "true" or
// "false" and is graded against the truth value of the displayed statement:
// the answer is correct when the user's verdict matches whether the
// statement equals the correct answer.
func (s *Session) SubmitText(text string) error {
	if !s.inQuestionPhase() {
		return ErrNoActiveQuestion
	}

	switch s.currentSection {
	case models.Identification:
		_, state, err := s.submittable(models.Identification)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return ErrAnswerRejected
		}
		s.record(state, text, NormalizeAnswer(text) == NormalizeAnswer(state.CorrectSnapshot))
		return nil

	case models.TrueOrFalse:
		q, state, err := s.submittable(models.TrueOrFalse)
		if err != nil {
			return err
		}
		verdict := strings.ToLower(strings.TrimSpace(text))
		if verdict != "true" && verdict != "false" {
			return ErrAnswerRejected
		}
		displayed := s.tfDisplay[q.GlobalIndex]
		statementIsTrue := normalizedLower(displayed) == normalizedLower(state.CorrectSnapshot)
		userSaidTrue := verdict == "true"
		s.record(state, text, statementIsTrue == userSaidTrue)
		return nil

	default:
		return ErrSubmissionMismatch
	}
}

// SubmitTable records all cell entries of a table question. Every
// answer-bearing cell must be filled; the question is correct only when
// every cell matches its snapshot under trim+lowercase comparison. A table
// without answer-bearing cells can never be correct.
func (s *Session) SubmitTable(cells map[models.CellKey]string) error {
	q, state, err := s.submittable(models.FillInTheBlankTable)
	if err != nil {
		return err
	}

	snapshot := s.tableSnapshots[q.GlobalIndex]
	for key := range snapshot {
		if strings.TrimSpace(cells[key]) == "" {
			return ErrAnswerRejected
		}
	}

	correct := len(snapshot) > 0
	for key, want := range snapshot {
		if !equalsFolded(cells[key], want) {
			correct = false
			break
		}
	}

	state.TableAnswers = make(map[models.CellKey]string, len(cells))
	for key, value := range cells {
		state.TableAnswers[key] = value
	}
	state.Submitted = true
	state.IsCorrect = correct
	return nil
}

// submittable checks that the session is live on a question of the wanted
// type that has not been answered yet.
func (s *Session) submittable(want models.QuizType) (models.SessionQuestion, *models.AnswerState, error) {
	if !s.inQuestionPhase() {
		return models.SessionQuestion{}, nil, ErrNoActiveQuestion
	}
	if s.currentSection != want {
		return models.SessionQuestion{}, nil, ErrSubmissionMismatch
	}
	if !s.sectionStarted {
		return models.SessionQuestion{}, nil, ErrSectionNotStarted
	}
	q := s.sections[s.currentSection][s.sectionIndex]
	state := s.answers[q.GlobalIndex]
	if state.Submitted {
		return models.SessionQuestion{}, nil, ErrAlreadyAnswered
	}
	return q, state, nil
}

func (s *Session) record(state *models.AnswerState, answer string, correct bool) {
	state.UserAnswer = &answer
	state.Submitted = true
	state.IsCorrect = correct
}

func containsOption(options []string, selected string) bool {
	for _, opt := range options {
		if opt == selected {
			return true
		}
	}
	return false
}

func normalizedLower(s string) string {
	return strings.ToLower(NormalizeAnswer(s))
}
