package reward

import (
	"strings"

	"github.com/tranvk/fanarena/internal/domain"
)

// AnswerResult is per-question feedback for one submission.
type AnswerResult struct {
	QuestionID    string `json:"question_id"`
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation"`
}

// grade scores answers against the question bank. Answers are matched to
// the correct option text case-insensitively with whitespace trimmed; an
// unknown question ID grades as incorrect rather than failing the attempt.
func grade(lookup func(id string) (domain.Question, bool), questionIDs, answers []string) ([]AnswerResult, int) {
	results := make([]AnswerResult, 0, len(questionIDs))
	correct := 0

	for i, id := range questionIDs {
		r := AnswerResult{QuestionID: id}
		if i < len(answers) {
			r.UserAnswer = answers[i]
		}

		if q, ok := lookup(id); ok {
			r.Question = q.Question
			r.CorrectAnswer = q.CorrectAnswer()
			r.Explanation = q.Explanation
		}

		r.IsCorrect = r.CorrectAnswer != "" && equalAnswer(r.UserAnswer, r.CorrectAnswer)
		if r.IsCorrect {
			correct++
		}

		results = append(results, r)
	}

	return results, correct
}

func equalAnswer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
