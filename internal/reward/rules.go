package reward

// Badge identifiers. Once granted a badge is never revoked.
const (
	BadgeQuizMaster       = "quiz_master"
	BadgePerfectQuiz      = "perfect_quiz"
	BadgePointsCollector  = "points_collector"
	BadgePredictionPro    = "prediction_pro"
	BadgeLeaderboardTop10 = "leaderboard_top_10"
)

// Rules is the immutable reward configuration injected at construction.
// There is no ambient global state: changing rewards means building a new
// service.
type Rules struct {
	// PointsPerQuestion is awarded for each correct quiz answer.
	PointsPerQuestion int64

	// QuizMasterAttempts is the lifetime attempt count unlocking quiz_master.
	QuizMasterAttempts int

	// PointsCollectorTotal is the balance unlocking points_collector.
	PointsCollectorTotal int64

	// LeaderboardBadgeSize is how deep leaderboard_top_10 looks.
	LeaderboardBadgeSize int

	// AttemptKeyTTL bounds how long the fast-path duplicate-submission key
	// lives in redis; the quiz_attempts unique constraint is the durable
	// guard. Expressed in seconds to keep the config flat.
	AttemptKeyTTLSeconds int
}

func DefaultRules() Rules {
	return Rules{
		PointsPerQuestion:    10,
		QuizMasterAttempts:   10,
		PointsCollectorTotal: 1000,
		LeaderboardBadgeSize: 10,
		AttemptKeyTTLSeconds: 24 * 60 * 60,
	}
}
