package question_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/domain"
	"github.com/tranvk/fanarena/internal/question"
)

const poolJSON = `[
  {"id": "q1", "team": "Lakers", "level": "Easy", "question": "City?",
   "options": ["LA", "SF", "NY", "SD"], "correctAnswerIndex": 0, "explanation": "LA."},
  {"id": "q2", "team": "Lakers", "level": "Easy", "question": "Colors?",
   "options": ["Red", "Purple and gold", "Blue", "Green"], "correctAnswerIndex": 1, "explanation": "Purple and gold."},
  {"id": "q3", "team": "Lakers", "level": "Hard", "question": "Streak?",
   "options": ["28", "30", "33", "36"], "correctAnswerIndex": 2, "explanation": "33 games."},
  {"id": "q4", "team": "Warriors", "level": "Easy", "question": "Arena?",
   "options": ["Chase Center", "Oracle", "MSG", "UC"], "correctAnswerIndex": 0, "explanation": "Chase Center."}
]`

func writePool(t *testing.T, content string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T) string
		assert  func(t *testing.T, p *question.Pool, err error)
	}{
		"valid file loads every record": {
			arrange: func(t *testing.T) string {
				return writePool(t, poolJSON)
			},
			assert: func(t *testing.T, p *question.Pool, err error) {
				require.NoError(t, err)
				require.Equal(t, 4, p.Size())

				q, ok := p.Lookup("q3")
				require.True(t, ok)
				require.Equal(t, domain.LevelHard, q.Level)
				require.Equal(t, "33", q.CorrectAnswer())
			},
		},

		"missing file fails": {
			arrange: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.json")
			},
			assert: func(t *testing.T, p *question.Pool, err error) {
				require.Error(t, err)
			},
		},

		"invalid level fails": {
			arrange: func(t *testing.T) string {
				return writePool(t, `[{"id": "q1", "team": "Lakers", "level": "Expert", "question": "?", "options": ["a","b","c","d"], "correctAnswerIndex": 0}]`)
			},
			assert: func(t *testing.T, p *question.Pool, err error) {
				require.Error(t, err)
			},
		},

		"duplicate id fails": {
			arrange: func(t *testing.T) string {
				return writePool(t, `[
  {"id": "q1", "team": "Lakers", "level": "Easy", "question": "?", "options": ["a","b","c","d"], "correctAnswerIndex": 0},
  {"id": "q1", "team": "Lakers", "level": "Easy", "question": "?", "options": ["a","b","c","d"], "correctAnswerIndex": 1}
]`)
			},
			assert: func(t *testing.T, p *question.Pool, err error) {
				require.Error(t, err)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			file := tt.arrange(t)
			p, err := question.Load(file)
			tt.assert(t, p, err)
		})
	}
}

func TestPool_ForTeamLevel(t *testing.T) {
	p, err := question.Load(writePool(t, poolJSON))
	require.NoError(t, err)

	qs := p.ForTeamLevel("Lakers", domain.LevelEasy)
	require.Len(t, qs, 2)
	for _, q := range qs {
		require.Equal(t, "Lakers", q.Team)
		require.Equal(t, domain.LevelEasy, q.Level)
	}

	require.Empty(t, p.ForTeamLevel("Lakers", domain.LevelMedium))
	require.Empty(t, p.ForTeamLevel("Celtics", domain.LevelEasy))
}

func TestPool_AddRuntime(t *testing.T) {
	p, err := question.Load(writePool(t, poolJSON))
	require.NoError(t, err)

	p.AddRuntime([]domain.Question{{
		ID:                 "gen-1",
		Team:               "Lakers",
		Level:              domain.LevelEasy,
		Question:           "Generated?",
		Options:            []string{"a", "b", "c", "d"},
		CorrectAnswerIndex: 1,
	}})

	// Graded by ID like any other question.
	q, ok := p.Lookup("gen-1")
	require.True(t, ok)
	require.Equal(t, "b", q.CorrectAnswer())

	// But never drawn from the static pool.
	require.Len(t, p.ForTeamLevel("Lakers", domain.LevelEasy), 2)
}

func TestPool_Teams(t *testing.T) {
	p, err := question.Load(writePool(t, poolJSON))
	require.NoError(t, err)

	teams := p.Teams()
	require.Len(t, teams, 2)
	require.Equal(t, "Lakers", teams[0].Name)
	require.Equal(t, "Warriors", teams[1].Name)
	require.ElementsMatch(t, []domain.Level{domain.LevelEasy, domain.LevelHard}, teams[0].Levels)
}
