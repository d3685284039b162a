package progress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/domain"
)

func questions(ids ...string) []domain.Question {
	qs := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		qs = append(qs, domain.Question{ID: id})
	}
	return qs
}

func ids(qs []domain.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestDraw(t *testing.T) {
	tests := map[string]struct {
		candidates []domain.Question
		asked      map[string]bool
		count      int
		assert     func(t *testing.T, drawn []domain.Question)
	}{
		"asked questions are excluded": {
			candidates: questions("q1", "q2", "q3"),
			asked:      map[string]bool{"q1": true, "q3": true},
			count:      3,
			assert: func(t *testing.T, drawn []domain.Question) {
				require.Equal(t, []string{"q2"}, ids(drawn))
			},
		},

		"short remainder is returned whole": {
			candidates: questions("q1", "q2", "q3"),
			asked:      map[string]bool{"q1": true},
			count:      5,
			assert: func(t *testing.T, drawn []domain.Question) {
				require.ElementsMatch(t, []string{"q2", "q3"}, ids(drawn))
			},
		},

		"fully asked pool draws nothing": {
			candidates: questions("q1", "q2"),
			asked:      map[string]bool{"q1": true, "q2": true},
			count:      2,
			assert: func(t *testing.T, drawn []domain.Question) {
				require.Empty(t, drawn)
			},
		},

		"draw is truncated to count without duplicates": {
			candidates: questions("q1", "q2", "q3", "q4", "q5"),
			asked:      nil,
			count:      3,
			assert: func(t *testing.T, drawn []domain.Question) {
				require.Len(t, drawn, 3)

				seen := map[string]bool{}
				for _, q := range drawn {
					require.False(t, seen[q.ID], "question %s drawn twice", q.ID)
					seen[q.ID] = true
				}
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			drawn := draw(tt.candidates, tt.asked, tt.count)
			tt.assert(t, drawn)
		})
	}
}
