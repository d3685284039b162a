package reward

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/tranvk/fanarena/internal/domain"
	"github.com/tranvk/fanarena/internal/errors"
	"github.com/tranvk/fanarena/internal/progress"
)

const codeUniqueViolation = "23505"

type SubmitQuizRequest struct {
	// AttemptID identifies the submission; resubmitting the same attempt is
	// rejected instead of re-awarding points. Empty means derive one from
	// the submission identity (see deriveAttemptID).
	AttemptID   string
	UserID      string
	Team        string
	Level       domain.Level
	QuestionIDs []string
	Answers     []string
}

type SubmitQuizResponse struct {
	Results           []AnswerResult
	CorrectCount      int
	TotalCount        int
	Score             decimal.Decimal
	PointsEarned      int64
	PointsPerQuestion int64
	Level             domain.Level
	NextLevel         domain.Level
	TotalPoints       int64
	BadgesEarned      []string
}

// SubmitQuiz grades one attempt and applies its rewards: in a single
// transaction it records the attempt, appends the ledger row, bumps the
// balance, upserts the completed level, and advances the current level.
// Either every effect lands or none does.
func (s *Service) SubmitQuiz(ctx context.Context, req SubmitQuizRequest) (*SubmitQuizResponse, error) {
	if req.UserID == "" || req.Team == "" {
		return nil, errors.InvalidArgumentf("user and team are required")
	}
	if !req.Level.Valid() {
		return nil, errors.InvalidArgumentf("invalid level %q", req.Level)
	}
	if len(req.QuestionIDs) == 0 {
		return nil, errors.InvalidArgumentf("submission has no questions")
	}
	if len(req.Answers) != len(req.QuestionIDs) {
		return nil, errors.InvalidArgumentf("got %d answers for %d questions", len(req.Answers), len(req.QuestionIDs))
	}

	attemptID := req.AttemptID
	if attemptID == "" {
		attemptID = deriveAttemptID(req, time.Now())
	} else if _, err := uuid.Parse(attemptID); err != nil {
		return nil, errors.InvalidArgumentf("malformed attempt id %q", attemptID)
	}

	if err := s.reserveAttempt(ctx, attemptID); err != nil {
		return nil, err
	}

	// From here on every failure before the award commits must release the
	// reservation, or a retry of a never-scored attempt would be rejected
	// for the key's whole TTL.
	if err := s.EnsureUser(ctx, req.UserID); err != nil {
		s.releaseAttempt(ctx, attemptID)
		return nil, err
	}
	if err := s.prog.Init(ctx, progress.InitRequest{UserID: req.UserID, Team: req.Team}); err != nil {
		s.releaseAttempt(ctx, attemptID)
		return nil, err
	}

	results, correct := grade(s.pool.Lookup, req.QuestionIDs, req.Answers)
	total := len(req.QuestionIDs)
	score := decimal.NewFromInt(int64(correct) * 100).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
	points := s.rules.PointsPerQuestion * int64(correct)

	balance, nextLevel, err := s.applyQuizAward(ctx, req, attemptID, correct, total, score, points)
	if err != nil {
		return nil, err
	}

	badges, err := s.quizBadges(ctx, req.UserID, correct == total, balance)
	if err != nil {
		// The award is committed; a failed badge check must not undo it.
		slog.ErrorContext(ctx, "reward: badge check failed", "user", req.UserID, "error", err)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventPointsAwarded{
			Award: domain.PointAward{
				UserID: req.UserID,
				Source: domain.AwardSourceQuiz,
				Points: points,
				Ref:    attemptID,
			},
			TotalPoints: balance,
		})
	}

	return &SubmitQuizResponse{
		Results:           results,
		CorrectCount:      correct,
		TotalCount:        total,
		Score:             score,
		PointsEarned:      points,
		PointsPerQuestion: s.rules.PointsPerQuestion,
		Level:             req.Level,
		NextLevel:         nextLevel,
		TotalPoints:       balance,
		BadgesEarned:      badges,
	}, nil
}

// reserveAttempt is the fast-path duplicate guard: SETNX on the attempt key.
// The quiz_attempts unique constraint remains the durable guard, so a lost
// redis key cannot cause a double award.
func (s *Service) reserveAttempt(ctx context.Context, attemptID string) error {
	if s.redis == nil {
		return nil
	}

	ttl := time.Duration(s.rules.AttemptKeyTTLSeconds) * time.Second
	ok, err := s.redis.SetNX(ctx, s.attemptKey(attemptID), time.Now().UnixMilli(), ttl).Result()
	if err != nil {
		// Redis being down must not block submissions; the store constraint
		// still protects the ledger.
		slog.WarnContext(ctx, "reward: attempt reservation unavailable", "error", err)
		return nil
	}
	if !ok {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("attempt %s already scored", attemptID))
	}

	return nil
}

func (s *Service) releaseAttempt(ctx context.Context, attemptID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, s.attemptKey(attemptID)).Err(); err != nil {
		slog.WarnContext(ctx, "reward: release attempt key failed", "attempt", attemptID, "error", err)
	}
}

func (s *Service) applyQuizAward(ctx context.Context, req SubmitQuizRequest, attemptID string,
	correct, total int, score decimal.Decimal, points int64) (balance int64, next domain.Level, err error) {

	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.releaseAttempt(ctx, attemptID)
		return 0, "", fmt.Errorf("reward: begin quiz award: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insAttemptStmt = `
INSERT INTO quiz_attempts (attempt_id, user_id, team, level, correct_count, total_count, score, points_earned)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err = tx.Exec(ctx, insAttemptStmt, attemptID, req.UserID, req.Team, req.Level, correct, total, score, points)

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		err = errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("attempt %s already scored", attemptID),
			errors.WithCause(err))
		return 0, "", err
	}
	if err != nil {
		s.releaseAttempt(ctx, attemptID)
		return 0, "", fmt.Errorf("reward: insert attempt: %w", err)
	}

	const insAwardStmt = `
INSERT INTO point_awards (user_id, source, points, ref)
VALUES ($1, 'quiz', $2, $3);`

	if _, err = tx.Exec(ctx, insAwardStmt, req.UserID, points, attemptID); err != nil {
		s.releaseAttempt(ctx, attemptID)
		return 0, "", fmt.Errorf("reward: insert quiz award: %w", err)
	}

	// Atomic increment at the store: concurrent awards never lose updates.
	const updBalanceStmt = `
UPDATE users SET total_points = total_points + $2, last_interaction = now()
WHERE user_id = $1
RETURNING total_points;`

	if err = tx.QueryRow(ctx, updBalanceStmt, req.UserID, points).Scan(&balance); err != nil {
		s.releaseAttempt(ctx, attemptID)
		return 0, "", fmt.Errorf("reward: apply quiz award: %w", err)
	}

	if err = s.prog.CompleteLevelTx(ctx, tx, progress.CompleteLevelRequest{
		UserID: req.UserID,
		Team:   req.Team,
		Level:  req.Level,
		Score:  score,
	}); err != nil {
		s.releaseAttempt(ctx, attemptID)
		return 0, "", err
	}

	next, err = s.prog.AdvanceChoiceTx(ctx, tx, progress.AdvanceChoiceRequest{
		UserID:   req.UserID,
		Team:     req.Team,
		Level:    req.Level,
		Continue: true,
	})
	if err != nil {
		s.releaseAttempt(ctx, attemptID)
		return 0, "", err
	}

	if err = tx.Commit(ctx); err != nil {
		s.releaseAttempt(ctx, attemptID)
		return 0, "", fmt.Errorf("reward: commit quiz award: %w", err)
	}

	return balance, next, nil
}

func (s *Service) quizBadges(ctx context.Context, userID string, perfect bool, balance int64) ([]string, error) {
	var earned []string

	if perfect {
		if err := s.GrantBadge(ctx, userID, BadgePerfectQuiz); err != nil {
			return earned, err
		}
		earned = append(earned, BadgePerfectQuiz)
	}

	const countStmt = `SELECT COUNT(*) FROM quiz_attempts WHERE user_id = $1;`

	var attempts int
	if err := s.db.QueryRow(ctx, countStmt, userID).Scan(&attempts); err != nil {
		return earned, fmt.Errorf("reward: count attempts: %w", err)
	}
	if attempts >= s.rules.QuizMasterAttempts {
		if err := s.GrantBadge(ctx, userID, BadgeQuizMaster); err != nil {
			return earned, err
		}
		earned = append(earned, BadgeQuizMaster)
	}

	if balance >= s.rules.PointsCollectorTotal {
		if err := s.GrantBadge(ctx, userID, BadgePointsCollector); err != nil {
			return earned, err
		}
		earned = append(earned, BadgePointsCollector)
	}

	return earned, nil
}

// deriveAttemptID builds a stable attempt identity for clients that do not
// echo the drawn attempt ID: identical resubmissions inside the same time
// bucket map to the same UUID and hit the duplicate guard.
func deriveAttemptID(req SubmitQuizRequest, now time.Time) string {
	const bucket = 60 // seconds

	seed := fmt.Sprintf("%s|%s|%s|%d", req.UserID, req.Team, req.Level, now.Unix()/bucket)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// QuizHistory lists the user's scored attempts, newest first.
func (s *Service) QuizHistory(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	const stmt = `
SELECT attempt_id, team, level, correct_count, total_count, score, points_earned, created_at
FROM quiz_attempts
WHERE user_id = $1
ORDER BY created_at DESC;`

	rows, err := s.db.Query(ctx, stmt, userID)
	if err != nil {
		return nil, fmt.Errorf("reward: quiz history: %w", err)
	}

	attempts, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.QuizAttempt, error) {
		a := domain.QuizAttempt{UserID: userID}
		err := r.Scan(&a.AttemptID, &a.Team, &a.Level, &a.CorrectCount, &a.TotalCount, &a.Score, &a.PointsEarned, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("reward: collect quiz history: %w", err)
	}

	return attempts, nil
}
