package progress

import (
	"math/rand/v2"

	"github.com/tranvk/fanarena/internal/domain"
)

// draw picks up to count questions from candidates, skipping every ID in
// asked, without replacement. A remainder smaller than count is returned
// whole rather than padded with duplicates.
func draw(candidates []domain.Question, asked map[string]bool, count int) []domain.Question {
	remaining := make([]domain.Question, 0, len(candidates))
	for _, q := range candidates {
		if !asked[q.ID] {
			remaining = append(remaining, q)
		}
	}

	rand.Shuffle(len(remaining), func(i, j int) {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	})

	if len(remaining) > count {
		remaining = remaining[:count]
	}

	return remaining
}
