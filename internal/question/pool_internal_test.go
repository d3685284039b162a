package question

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/domain"
)

func TestPool_AddRuntimeEvictsOldest(t *testing.T) {
	p := &Pool{
		byID:   make(map[string]domain.Question),
		byTeam: make(map[teamLevel][]domain.Question),
	}

	for i := 0; i < maxRuntimeQuestions+10; i++ {
		p.AddRuntime([]domain.Question{{
			ID:    fmt.Sprintf("gen-%d", i),
			Team:  "Lakers",
			Level: domain.LevelEasy,
		}})
	}

	// The set stays at the cap, dropping oldest first.
	require.Equal(t, maxRuntimeQuestions, p.Size())

	_, ok := p.Lookup("gen-0")
	require.False(t, ok)

	newest := fmt.Sprintf("gen-%d", maxRuntimeQuestions+9)
	_, ok = p.Lookup(newest)
	require.True(t, ok)

	// Re-registering a known ID does not count twice.
	p.AddRuntime([]domain.Question{{ID: newest, Team: "Lakers", Level: domain.LevelEasy}})
	require.Equal(t, maxRuntimeQuestions, p.Size())
}
