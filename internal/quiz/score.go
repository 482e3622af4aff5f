package quiz

import (
	"math"
	"time"

	"github.com/quizforge/quiz-service/internal/models"
)

// computeResult tallies the terminal state into a SessionResult. Score
// counts questions graded correct; total counts session questions (a table
// question is one unit). Percentage is round(score/total*100), zero for an
// empty session.
func (s *Session) computeResult() models.SessionResult {
	breakdown := make(map[models.QuizType]models.TypeScore)
	score := 0

	for _, t := range models.SectionPrecedence {
		questions := s.sections[t]
		if len(questions) == 0 {
			continue
		}
		ts := models.TypeScore{Total: len(questions)}
		for _, q := range questions {
			if s.answers[q.GlobalIndex].IsCorrect {
				ts.Correct++
				score++
			}
		}
		breakdown[t] = ts
	}

	return models.SessionResult{
		Score:      score,
		Total:      s.total,
		Percentage: percentage(score, s.total),
		Timestamp:  time.Now(),
		Breakdown:  breakdown,
	}
}

func percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
