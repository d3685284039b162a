// Package leaderboard ranks users by total points.
package leaderboard

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tranvk/fanarena/internal/domain"
)

type Config struct {
	DB *pgxpool.Pool
}

// Service computes rankings on demand from the users table. Ties on points
// break by user ID so the ordering is stable across requests.
type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{db: c.DB}
}

// Rank returns the top users by descending point total. Ranks are
// positional within the returned page, starting at 1.
func (s *Service) Rank(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = 10
	}

	const stmt = `
SELECT user_id, username, total_points, favorite_team
FROM users
ORDER BY total_points DESC, user_id ASC
LIMIT $1;`

	rows, err := s.db.Query(ctx, stmt, limit)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("leaderboard: rank: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.LeaderboardEntry, error) {
		var e domain.LeaderboardEntry
		err := r.Scan(&e.UserID, &e.Username, &e.Points, &e.Team)
		return e, err
	})
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("leaderboard: collect rank: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	total, err := s.TotalUsers(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	return domain.Leaderboard{Entries: entries, TotalUsers: total}, nil
}

func (s *Service) TotalUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("leaderboard: total users: %w", err)
	}
	return n, nil
}

// UserRank returns the user's 1-based position under the same ordering
// Rank uses. found is false when the user does not exist.
func (s *Service) UserRank(ctx context.Context, userID string) (rank int, found bool, err error) {
	const stmt = `
SELECT rank FROM (
	SELECT user_id, ROW_NUMBER() OVER (ORDER BY total_points DESC, user_id ASC) AS rank
	FROM users
) ranked
WHERE user_id = $1;`

	err = s.db.QueryRow(ctx, stmt, userID).Scan(&rank)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("leaderboard: user rank: %w", err)
	}

	return rank, true, nil
}
