package progress

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/domain"
	"github.com/tranvk/fanarena/internal/errors"
)

// Update validates its input before touching the store; a rejected request
// must never reach the pool (nil here, so a slipped-through query panics).
func TestService_UpdateValidation(t *testing.T) {
	s := NewService(Config{})

	tests := map[string]UpdateRequest{
		"invalid level": {
			UserID: "alice", Team: "Lakers", Level: "Expert",
		},
		"negative question index": {
			UserID: "alice", Team: "Lakers", Level: domain.LevelEasy, QuestionIndex: -1,
		},
		"negative level score": {
			UserID: "alice", Team: "Lakers", Level: domain.LevelEasy, LevelScore: -1,
		},
		"negative total correct": {
			UserID: "alice", Team: "Lakers", Level: domain.LevelEasy, TotalCorrect: -1,
		},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			err := s.Update(context.Background(), req)
			require.True(t, errors.Is(err, errors.CodeInvalidArgument))
		})
	}
}

func TestService_CompleteLevelValidation(t *testing.T) {
	s := NewService(Config{})

	tests := map[string]CompleteLevelRequest{
		"invalid level": {
			UserID: "alice", Team: "Lakers", Level: "Expert", Score: decimal.NewFromInt(80),
		},
		"negative score": {
			UserID: "alice", Team: "Lakers", Level: domain.LevelEasy, Score: decimal.NewFromInt(-1),
		},
		"score above 100": {
			UserID: "alice", Team: "Lakers", Level: domain.LevelEasy, Score: decimal.NewFromInt(101),
		},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			err := s.CompleteLevel(context.Background(), req)
			require.True(t, errors.Is(err, errors.CodeInvalidArgument))
		})
	}
}

func TestService_AdvanceChoiceStop(t *testing.T) {
	s := NewService(Config{})

	// Stop leaves the saved progress alone, no write involved.
	lvl, err := s.AdvanceChoice(context.Background(), AdvanceChoiceRequest{
		UserID: "alice", Team: "Lakers", Level: domain.LevelMedium, Continue: false,
	})
	require.NoError(t, err)
	require.Equal(t, domain.LevelMedium, lvl)
}
