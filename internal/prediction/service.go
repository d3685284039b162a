package prediction

import (
	"fmt"
	"math/rand/v2"

	"github.com/tranvk/fanarena/internal/errors"
)

const (
	SportSoccer = "soccer"
	SportNBA    = "nba"
	SportNFL    = "nfl"

	// DrawOutcome is the third possible outcome in soccer.
	DrawOutcome = "Draw"
)

// Rules is the immutable point table for prediction rewards, injected at
// construction.
type Rules struct {
	// SoccerDraw rewards correctly calling a draw; draws are harder to
	// predict so the reward is higher than calling a winner.
	SoccerDraw int64
	// SoccerWin rewards correctly calling a soccer winner.
	SoccerWin int64
	// Other rewards a correct call in sports without draws.
	Other int64
}

func DefaultRules() Rules {
	return Rules{SoccerDraw: 50, SoccerWin: 30, Other: 25}
}

type Config struct {
	Rules Rules

	// Rand returns a uniform float in [0, 1). Defaults to math/rand/v2;
	// tests inject a deterministic source.
	Rand func() float64
}

// Service produces probabilistically-weighted match outcomes and scores user
// guesses against them.
type Service struct {
	rules Rules
	rand  func() float64
}

func NewService(c Config) *Service {
	if c.Rand == nil {
		c.Rand = rand.Float64
	}
	if c.Rules == (Rules{}) {
		c.Rules = DefaultRules()
	}

	return &Service{rules: c.Rules, rand: c.Rand}
}

// Outcome is a single sampled match result.
type Outcome struct {
	Winner      string
	Loser       string
	Confidence  int
	Explanation string
}

// GenerateOutcome samples one winner for team1 vs team2. The sample is
// intentionally stochastic: the same matchup may yield different winners
// across calls, modeling uncertainty rather than a fixed power ranking.
func (s *Service) GenerateOutcome(team1, team2, sport string) (Outcome, error) {
	if team1 == "" || team2 == "" {
		return Outcome{}, errors.InvalidArgumentf("both teams are required")
	}
	if team1 == team2 {
		return Outcome{}, errors.InvalidArgumentf("teams must differ")
	}

	p := WinProbability(team1, team2)

	o := Outcome{}
	if s.rand() < p {
		o.Winner, o.Loser = team1, team2
		o.Confidence = int(p * 100)
	} else {
		o.Winner, o.Loser = team2, team1
		o.Confidence = int((1 - p) * 100)
	}
	o.Explanation = explain(o)

	return o, nil
}

// WinProbability returns the modeled probability that team1 beats team2:
// each team scores strength*0.6 + form*5 + (100 - ranking), and the
// probability is team1's share of the total.
func WinProbability(team1, team2 string) float64 {
	s1 := matchScore(ratingFor(team1))
	s2 := matchScore(ratingFor(team2))

	total := s1 + s2
	if total <= 0 {
		return 0.5
	}
	return s1 / total
}

func matchScore(r rating) float64 {
	return r.Strength*0.6 + r.RecentForm*5 + float64(100-r.Ranking)
}

// Evaluate compares the user's named choice with the system outcome by exact
// string equality. Soccer permits "Draw" with a higher reward; other sports
// compare winner identity only. Incorrect guesses earn zero.
func (s *Service) Evaluate(userPrediction, systemOutcome, sport string) (bool, int64) {
	correct := userPrediction == systemOutcome
	if !correct {
		return false, 0
	}

	if sport == SportSoccer {
		if userPrediction == DrawOutcome {
			return true, s.rules.SoccerDraw
		}
		return true, s.rules.SoccerWin
	}

	return true, s.rules.Other
}

func explain(o Outcome) string {
	w, l := ratingFor(o.Winner), ratingFor(o.Loser)

	msg := fmt.Sprintf("%s should win with %d%% confidence. ", o.Winner, o.Confidence)

	switch {
	case w.Strength > l.Strength+10:
		msg += fmt.Sprintf("Superior team strength (%.0f vs %.0f). ", w.Strength, l.Strength)
	case w.RecentForm > l.RecentForm+1:
		msg += "Better recent form. "
	case w.Ranking < l.Ranking:
		msg += fmt.Sprintf("Higher ranking (%d vs %d). ", w.Ranking, l.Ranking)
	}

	if len(w.KeyPlayers) > 0 {
		msg += fmt.Sprintf("Key player %s expected to perform well.", w.KeyPlayers[0])
	}

	return msg
}
