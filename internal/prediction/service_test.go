package prediction_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/errors"
	"github.com/tranvk/fanarena/internal/prediction"
)

func TestService_GenerateOutcome(t *testing.T) {
	type inputs struct {
		team1, team2, sport string
		rand                float64
	}

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, o prediction.Outcome, err error)
	}{
		"low sample should pick team1": {
			arrange: func() inputs {
				return inputs{team1: "Lakers", team2: "Warriors", sport: prediction.SportNBA, rand: 0.0}
			},
			assert: func(t *testing.T, o prediction.Outcome, err error) {
				require.NoError(t, err)
				require.Equal(t, "Lakers", o.Winner)
				require.Equal(t, "Warriors", o.Loser)
				require.Greater(t, o.Confidence, 0)
				require.LessOrEqual(t, o.Confidence, 100)
				require.NotEmpty(t, o.Explanation)
			},
		},

		"high sample should pick team2": {
			arrange: func() inputs {
				return inputs{team1: "Lakers", team2: "Warriors", sport: prediction.SportNBA, rand: 0.999}
			},
			assert: func(t *testing.T, o prediction.Outcome, err error) {
				require.NoError(t, err)
				require.Equal(t, "Warriors", o.Winner)
				require.Equal(t, "Lakers", o.Loser)
			},
		},

		"unknown teams should be an even matchup": {
			arrange: func() inputs {
				return inputs{team1: "Nowhere FC", team2: "Elsewhere FC", sport: prediction.SportSoccer, rand: 0.49}
			},
			assert: func(t *testing.T, o prediction.Outcome, err error) {
				require.NoError(t, err)
				require.Equal(t, "Nowhere FC", o.Winner)
				require.Equal(t, 50, o.Confidence)
			},
		},

		"same team twice should be rejected": {
			arrange: func() inputs {
				return inputs{team1: "Lakers", team2: "Lakers", sport: prediction.SportNBA}
			},
			assert: func(t *testing.T, o prediction.Outcome, err error) {
				require.True(t, errors.Is(err, errors.CodeInvalidArgument))
			},
		},

		"missing team should be rejected": {
			arrange: func() inputs {
				return inputs{team1: "Lakers", team2: "", sport: prediction.SportNBA}
			},
			assert: func(t *testing.T, o prediction.Outcome, err error) {
				require.True(t, errors.Is(err, errors.CodeInvalidArgument))
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := tt.arrange()

			s := prediction.NewService(prediction.Config{
				Rand: func() float64 { return in.rand },
			})

			o, err := s.GenerateOutcome(in.team1, in.team2, in.sport)
			tt.assert(t, o, err)
		})
	}
}

func TestWinProbability(t *testing.T) {
	// A stronger, better-ranked team must be favored over a weaker one.
	p := prediction.WinProbability("Manchester City", "Everton")
	require.Greater(t, p, 0.5)

	// Reversing the matchup mirrors the probability.
	q := prediction.WinProbability("Everton", "Manchester City")
	require.InDelta(t, 1.0, p+q, 1e-9)

	// Two unknown teams are a coin flip.
	require.InDelta(t, 0.5, prediction.WinProbability("A", "B"), 1e-9)
}

func TestService_Evaluate(t *testing.T) {
	s := prediction.NewService(prediction.Config{})

	tests := map[string]struct {
		userPrediction string
		systemOutcome  string
		sport          string
		wantCorrect    bool
		wantPoints     int64
	}{
		"correct soccer draw earns the draw reward": {
			userPrediction: "Draw", systemOutcome: "Draw", sport: prediction.SportSoccer,
			wantCorrect: true, wantPoints: 50,
		},
		"correct soccer winner earns the win reward": {
			userPrediction: "Arsenal", systemOutcome: "Arsenal", sport: prediction.SportSoccer,
			wantCorrect: true, wantPoints: 30,
		},
		"correct nba call earns the flat reward": {
			userPrediction: "Lakers", systemOutcome: "Lakers", sport: prediction.SportNBA,
			wantCorrect: true, wantPoints: 25,
		},
		"correct nfl call earns the flat reward": {
			userPrediction: "Chiefs", systemOutcome: "Chiefs", sport: prediction.SportNFL,
			wantCorrect: true, wantPoints: 25,
		},
		"incorrect call earns nothing": {
			userPrediction: "Lakers", systemOutcome: "Warriors", sport: prediction.SportNBA,
			wantCorrect: false, wantPoints: 0,
		},
		"comparison is case sensitive": {
			userPrediction: "lakers", systemOutcome: "Lakers", sport: prediction.SportNBA,
			wantCorrect: false, wantPoints: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			correct, points := s.Evaluate(tt.userPrediction, tt.systemOutcome, tt.sport)
			require.Equal(t, tt.wantCorrect, correct)
			require.Equal(t, tt.wantPoints, points)
		})
	}
}
