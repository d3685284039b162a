package reward

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/errors"
)

// Adjust validates before opening a transaction; a rejected request must
// never reach the store (nil here, so a slipped-through Begin panics).
func TestService_AdjustValidation(t *testing.T) {
	s := NewService(Config{})

	tests := map[string]struct {
		userID string
		points int64
		reason string
	}{
		"missing user":   {userID: "", points: 10, reason: "correction"},
		"zero points":    {userID: "alice", points: 0, reason: "correction"},
		"missing reason": {userID: "alice", points: 10, reason: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Adjust(context.Background(), tc.userID, tc.points, tc.reason)
			require.True(t, errors.Is(err, errors.CodeInvalidArgument))
		})
	}
}
