package reward

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tranvk/fanarena/internal/domain"
	"github.com/tranvk/fanarena/internal/errors"
)

type CreateUserRequest struct {
	UserID       string
	Username     string
	FavoriteTeam string
}

// CreateUser registers a profile. Created reports whether the row was new;
// a concurrent duplicate is absorbed, not an error.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (created bool, err error) {
	if req.UserID == "" || req.Username == "" {
		return false, errors.InvalidArgumentf("user_id and username are required")
	}
	if req.FavoriteTeam == "" {
		req.FavoriteTeam = "General"
	}

	const stmt = `
INSERT INTO users (user_id, username, favorite_team)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO NOTHING;`

	tag, err := s.db.Exec(ctx, stmt, req.UserID, req.Username, req.FavoriteTeam)
	if err != nil {
		return false, fmt.Errorf("reward: create user: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// EnsureUser lazily creates the profile on first interaction and touches
// last_interaction either way.
func (s *Service) EnsureUser(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.InvalidArgumentf("user_id is required")
	}

	const stmt = `
INSERT INTO users (user_id, username, favorite_team)
VALUES ($1, $1, 'General')
ON CONFLICT (user_id) DO UPDATE SET last_interaction = now();`

	if _, err := s.db.Exec(ctx, stmt, userID); err != nil {
		return fmt.Errorf("reward: ensure user: %w", err)
	}

	return nil
}

// GetUser returns the profile with its badge set.
func (s *Service) GetUser(ctx context.Context, userID string) (domain.User, error) {
	const stmt = `
SELECT user_id, username, favorite_team, total_points, created_at, last_interaction
FROM users
WHERE user_id = $1;`

	var u domain.User
	err := s.db.QueryRow(ctx, stmt, userID).Scan(
		&u.UserID, &u.Username, &u.FavoriteTeam, &u.TotalPoints, &u.CreatedAt, &u.LastInteraction,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, errors.New(errors.CodeNotFound,
			errors.WithMessagef("user %s not found", userID))
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("reward: get user: %w", err)
	}

	u.Badges, err = s.badges(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	return u, nil
}

func (s *Service) badges(ctx context.Context, userID string) ([]string, error) {
	const stmt = `SELECT badge FROM user_badges WHERE user_id = $1 ORDER BY granted_at;`

	rows, err := s.db.Query(ctx, stmt, userID)
	if err != nil {
		return nil, fmt.Errorf("reward: list badges: %w", err)
	}

	badges, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (string, error) {
		var b string
		err := r.Scan(&b)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("reward: collect badges: %w", err)
	}

	return badges, nil
}

// GrantBadge adds the badge to the user's set if absent. Granting an
// already-held badge is a no-op.
func (s *Service) GrantBadge(ctx context.Context, userID, badge string) error {
	const stmt = `
INSERT INTO user_badges (user_id, badge, granted_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id, badge) DO NOTHING;`

	tag, err := s.db.Exec(ctx, stmt, userID, badge)
	if err != nil {
		return fmt.Errorf("reward: grant badge: %w", err)
	}

	if tag.RowsAffected() > 0 && s.eb != nil {
		s.eb.Publish(ctx, domain.EventBadgeGranted{UserID: userID, Badge: badge})
	}

	return nil
}

// Adjust applies a corrective point adjustment. Awards are never reversed
// or deleted; corrections are explicit (possibly negative) ledger rows.
// The balance check constraint rejects adjustments that would go negative,
// and an unknown user is NotFound rather than an orphan ledger row.
func (s *Service) Adjust(ctx context.Context, userID string, points int64, reason string) (balance int64, err error) {
	if userID == "" {
		return 0, errors.InvalidArgumentf("user is required")
	}
	if points == 0 {
		return 0, errors.InvalidArgumentf("adjustment must be non-zero")
	}
	if reason == "" {
		return 0, errors.InvalidArgumentf("adjustment reason is required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("reward: begin adjustment: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		updBalanceStmt = `
UPDATE users SET total_points = total_points + $2, last_interaction = now()
WHERE user_id = $1
RETURNING total_points;`
		insAwardStmt = `
INSERT INTO point_awards (user_id, source, points, ref)
VALUES ($1, 'adjustment', $2, $3);`
	)

	err = tx.QueryRow(ctx, updBalanceStmt, userID, points).Scan(&balance)
	if stderrors.Is(err, pgx.ErrNoRows) {
		err = errors.New(errors.CodeNotFound, errors.WithMessagef("user %s not found", userID))
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("reward: apply adjustment: %w", err)
	}

	if _, err = tx.Exec(ctx, insAwardStmt, userID, points, reason); err != nil {
		return 0, fmt.Errorf("reward: insert adjustment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventPointsAwarded{
			Award: domain.PointAward{
				UserID: userID,
				Source: domain.AwardSourceAdjustment,
				Points: points,
				Ref:    reason,
			},
			TotalPoints: balance,
		})
	}

	return balance, nil
}

// UserStats is the profile plus derived figures for the stats endpoint.
type UserStats struct {
	User            domain.User
	QuizCount       int
	PredictionCount int
	AvgQuizScore    decimal.Decimal
	LeaderboardRank int
	Ranked          bool
}

// Stats aggregates a user's profile, attempt counts, and current rank. The
// leaderboard_top_10 badge is checked here, on demand, rather than on every
// point change.
func (s *Service) Stats(ctx context.Context, userID string) (UserStats, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}

	st := UserStats{User: u}

	const countsStmt = `
SELECT
    (SELECT COUNT(*) FROM quiz_attempts WHERE user_id = $1),
    (SELECT COALESCE(AVG(score), 0) FROM quiz_attempts WHERE user_id = $1),
    (SELECT COUNT(*) FROM predictions WHERE user_id = $1);`

	if err := s.db.QueryRow(ctx, countsStmt, userID).Scan(&st.QuizCount, &st.AvgQuizScore, &st.PredictionCount); err != nil {
		return UserStats{}, fmt.Errorf("reward: user stats: %w", err)
	}

	if s.ranker != nil {
		rank, ok, err := s.ranker.UserRank(ctx, userID)
		if err != nil {
			return UserStats{}, err
		}
		if ok {
			st.LeaderboardRank = rank
			st.Ranked = true
			if rank <= s.rules.LeaderboardBadgeSize {
				if err := s.GrantBadge(ctx, userID, BadgeLeaderboardTop10); err != nil {
					return UserStats{}, err
				}
				st.User.Badges = appendBadge(st.User.Badges, BadgeLeaderboardTop10)
			}
		}
	}

	return st, nil
}

func appendBadge(badges []string, badge string) []string {
	for _, b := range badges {
		if b == badge {
			return badges
		}
	}
	return append(badges, badge)
}
