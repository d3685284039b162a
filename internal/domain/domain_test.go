package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/domain"
)

func TestLevel_Next(t *testing.T) {
	tests := map[string]struct {
		level domain.Level
		want  domain.Level
	}{
		"easy advances to medium": {level: domain.LevelEasy, want: domain.LevelMedium},
		"medium advances to hard": {level: domain.LevelMedium, want: domain.LevelHard},
		"hard is terminal":        {level: domain.LevelHard, want: domain.LevelHard},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.level.Next())
		})
	}
}

func TestLevel_Before(t *testing.T) {
	require.True(t, domain.LevelEasy.Before(domain.LevelMedium))
	require.True(t, domain.LevelMedium.Before(domain.LevelHard))
	require.False(t, domain.LevelHard.Before(domain.LevelEasy))
	require.False(t, domain.LevelHard.Before(domain.LevelHard))
}

func TestLevel_Valid(t *testing.T) {
	require.True(t, domain.LevelEasy.Valid())
	require.False(t, domain.Level("Expert").Valid())
	require.False(t, domain.Level("").Valid())
}

func TestQuestion_CorrectAnswer(t *testing.T) {
	q := domain.Question{
		Options:            []string{"a", "b", "c", "d"},
		CorrectAnswerIndex: 2,
	}
	require.Equal(t, "c", q.CorrectAnswer())

	q.CorrectAnswerIndex = 4
	require.Equal(t, "", q.CorrectAnswer())

	q.CorrectAnswerIndex = -1
	require.Equal(t, "", q.CorrectAnswer())
}
