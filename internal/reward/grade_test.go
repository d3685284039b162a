package reward

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/domain"
)

func lakersBank() map[string]domain.Question {
	mk := func(id, text, answer string, wrong ...string) domain.Question {
		return domain.Question{
			ID:                 id,
			Question:           text,
			Options:            append([]string{answer}, wrong...),
			CorrectAnswerIndex: 0,
			Explanation:        "because",
		}
	}

	return map[string]domain.Question{
		"q1": mk("q1", "City?", "Los Angeles", "SF", "NY", "SD"),
		"q2": mk("q2", "Colors?", "Purple and gold", "Red", "Blue", "Green"),
		"q3": mk("q3", "Arena?", "Crypto.com Arena", "MSG", "UC", "Chase"),
		"q4": mk("q4", "League?", "NBA", "NFL", "MLB", "NHL"),
		"q5": mk("q5", "20-year Laker?", "Kobe Bryant", "Shaq", "LeBron", "Kareem"),
	}
}

func bankLookup(bank map[string]domain.Question) func(string) (domain.Question, bool) {
	return func(id string) (domain.Question, bool) {
		q, ok := bank[id]
		return q, ok
	}
}

func TestGrade(t *testing.T) {
	bank := lakersBank()

	tests := map[string]struct {
		questionIDs []string
		answers     []string
		assert      func(t *testing.T, results []AnswerResult, correct int)
	}{
		"four of five correct": {
			questionIDs: []string{"q1", "q2", "q3", "q4", "q5"},
			answers:     []string{"Los Angeles", "Purple and gold", "MSG", "NBA", "Kobe Bryant"},
			assert: func(t *testing.T, results []AnswerResult, correct int) {
				require.Equal(t, 4, correct)
				require.Len(t, results, 5)
				require.False(t, results[2].IsCorrect)
				require.Equal(t, "Crypto.com Arena", results[2].CorrectAnswer)
			},
		},

		"matching is case insensitive and whitespace tolerant": {
			questionIDs: []string{"q1", "q2"},
			answers:     []string{"  los angeles ", "PURPLE AND GOLD"},
			assert: func(t *testing.T, results []AnswerResult, correct int) {
				require.Equal(t, 2, correct)
			},
		},

		"unknown question id grades as incorrect": {
			questionIDs: []string{"q1", "missing"},
			answers:     []string{"Los Angeles", "anything"},
			assert: func(t *testing.T, results []AnswerResult, correct int) {
				require.Equal(t, 1, correct)
				require.False(t, results[1].IsCorrect)
				require.Empty(t, results[1].CorrectAnswer)
			},
		},

		"missing answers grade as incorrect": {
			questionIDs: []string{"q1", "q2", "q3"},
			answers:     []string{"Los Angeles"},
			assert: func(t *testing.T, results []AnswerResult, correct int) {
				require.Equal(t, 1, correct)
				require.Empty(t, results[1].UserAnswer)
			},
		},

		"empty answer never matches": {
			questionIDs: []string{"q1"},
			answers:     []string{""},
			assert: func(t *testing.T, results []AnswerResult, correct int) {
				require.Equal(t, 0, correct)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			results, correct := grade(bankLookup(bank), tt.questionIDs, tt.answers)
			tt.assert(t, results, correct)
		})
	}
}

func TestScorePercentage(t *testing.T) {
	// 4 of 5 correct scores 80.0 with one decimal place, and earns 40
	// points at the default 10 per question.
	score := decimal.NewFromInt(4 * 100).Div(decimal.NewFromInt(5)).Round(1)
	require.Equal(t, "80", score.String())

	rules := DefaultRules()
	require.Equal(t, int64(40), rules.PointsPerQuestion*4)

	// Thirds do not round away the decimal.
	score = decimal.NewFromInt(2 * 100).Div(decimal.NewFromInt(3)).Round(1)
	require.Equal(t, "66.7", score.String())
}
