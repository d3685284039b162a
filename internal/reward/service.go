package reward

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tranvk/fanarena/internal/event"
	"github.com/tranvk/fanarena/internal/prediction"
	"github.com/tranvk/fanarena/internal/progress"
	"github.com/tranvk/fanarena/internal/question"
)

// Redis is the slice of the redis client the ledger needs: reserving and
// releasing attempt idempotency keys.
type Redis interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Ranker resolves a user's current leaderboard position; used for the
// on-demand top-10 badge check.
type Ranker interface {
	UserRank(ctx context.Context, userID string) (int, bool, error)
}

type Config struct {
	DB         *pgxpool.Pool
	Redis      Redis
	Prefix     string
	Rules      Rules
	EventBus   *event.Bus
	Pool       *question.Pool
	Progress   *progress.Service
	Prediction *prediction.Service
	Ranker     Ranker
}

// Service is the reward ledger: it converts quiz and prediction outcomes
// into point and badge changes, atomically with the action that caused
// them. Every award writes a point_awards row and bumps the balance in the
// same transaction, so a user's total always equals the sum of their
// awards.
type Service struct {
	db     *pgxpool.Pool
	redis  Redis
	prefix string
	rules  Rules
	eb     *event.Bus
	pool   *question.Pool
	prog   *progress.Service
	pred   *prediction.Service
	ranker Ranker
}

func NewService(c Config) *Service {
	if c.Rules == (Rules{}) {
		c.Rules = DefaultRules()
	}

	return &Service{
		db:     c.DB,
		redis:  c.Redis,
		prefix: c.Prefix,
		rules:  c.Rules,
		eb:     c.EventBus,
		pool:   c.Pool,
		prog:   c.Progress,
		pred:   c.Prediction,
		ranker: c.Ranker,
	}
}

func (s *Service) attemptKey(attemptID string) string {
	return s.prefix + ":attempt:" + attemptID
}
