package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level is a quiz difficulty tier. Levels form an ordered progression
// Easy -> Medium -> Hard; Hard is terminal and advances to itself.
type Level string

const (
	LevelEasy   Level = "Easy"
	LevelMedium Level = "Medium"
	LevelHard   Level = "Hard"
)

var levelRank = map[Level]int{
	LevelEasy:   1,
	LevelMedium: 2,
	LevelHard:   3,
}

func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Next returns the level that follows l. Hard loops back to Hard.
func (l Level) Next() Level {
	switch l {
	case LevelEasy:
		return LevelMedium
	case LevelMedium:
		return LevelHard
	default:
		return LevelHard
	}
}

// Before reports whether l is a strictly lower tier than other.
func (l Level) Before(other Level) bool {
	return levelRank[l] < levelRank[other]
}

// User is a fan profile. Users are created lazily on first interaction.
type User struct {
	UserID          string
	Username        string
	FavoriteTeam    string
	TotalPoints     int64
	Badges          []string
	CreatedAt       time.Time
	LastInteraction time.Time
}

// QuizProgress tracks where a user currently is in a team's quiz.
// There is exactly one row per (user, team) pair, never deleted.
type QuizProgress struct {
	UserID               string
	Team                 string
	CurrentLevel         Level
	CurrentQuestionIndex int
	LevelScore           int
	TotalCorrect         int
	StartedAt            time.Time
	LastUpdated          time.Time
}

// CompletedLevel records the latest score for a finished level.
// A later completion of the same level overwrites the score.
type CompletedLevel struct {
	Level       Level
	Score       decimal.Decimal
	CompletedAt time.Time
}

// TeamStats summarizes a user's standing for one team.
type TeamStats struct {
	HighestLevelReached Level
	TotalCorrectAnswers int
}

// ResumeState is everything a client needs to pick a quiz back up.
type ResumeState struct {
	UserID          string
	Team            string
	HasProgress     bool
	Progress        QuizProgress
	CompletedLevels []CompletedLevel
	Stats           TeamStats
}

// Question is a static pool entry. CorrectAnswerIndex points into Options.
type Question struct {
	ID                 string
	Team               string
	Level              Level
	Question           string
	Options            []string
	CorrectAnswerIndex int
	Explanation        string
}

// CorrectAnswer returns the option text the index refers to, or "" if the
// record is malformed.
func (q Question) CorrectAnswer() string {
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectAnswerIndex]
}

// QuizAttempt is one scored submission. AttemptID is unique: resubmitting
// the same attempt must not award points again.
type QuizAttempt struct {
	AttemptID    string
	UserID       string
	Team         string
	Level        Level
	CorrectCount int
	TotalCount   int
	Score        decimal.Decimal
	PointsEarned int64
	CreatedAt    time.Time
}

// Prediction is one immutable prediction submission with its evaluation.
type Prediction struct {
	ID             int64
	UserID         string
	Team1          string
	Team2          string
	Sport          string
	UserPrediction string
	SystemOutcome  string
	IsCorrect      bool
	PointsEarned   int64
	Explanation    string
	CreatedAt      time.Time
}

// PredictionStats aggregates a user's prediction history.
type PredictionStats struct {
	TotalPredictions   int
	CorrectPredictions int
	Accuracy           decimal.Decimal
	TotalPoints        int64
	AveragePoints      decimal.Decimal
}

// PointAward is one ledger entry. The sum of a user's awards always equals
// the stored balance; awards are never deleted, corrections are negative
// adjustment rows.
type PointAward struct {
	ID        int64
	UserID    string
	Source    AwardSource
	Points    int64
	Ref       string
	CreatedAt time.Time
}

type AwardSource string

const (
	AwardSourceQuiz       AwardSource = "quiz"
	AwardSourcePrediction AwardSource = "prediction"
	AwardSourceAdjustment AwardSource = "adjustment"
)

// Leaderboard is a positional ranking of users by descending point total.
type Leaderboard struct {
	Entries    []LeaderboardEntry
	TotalUsers int
}

type LeaderboardEntry struct {
	Rank     int
	UserID   string
	Username string
	Points   int64
	Team     string
}
