package progress

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tranvk/fanarena/internal/domain"
	"github.com/tranvk/fanarena/internal/errors"
	"github.com/tranvk/fanarena/internal/question"
)

// ErrPoolExhausted signals that no unseen questions remain for the
// (user, team, level) combination. Callers should offer a pool reset
// instead of returning an empty quiz.
var ErrPoolExhausted = errors.New(errors.CodeFailedPrecondition,
	errors.WithMessagef("question pool exhausted, reset the pool to continue"))

// QuestionGenerator produces trivia content remotely. Any error means the
// caller falls back to the static pool.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, team string, level domain.Level, count int) ([]question.Generated, error)
}

type Config struct {
	DB        *pgxpool.Pool
	Pool      *question.Pool
	Generator QuestionGenerator
}

// Service owns the quiz level state machine and the asked-question
// deduplication policy for every (user, team) pair.
type Service struct {
	db   *pgxpool.Pool
	pool *question.Pool
	gen  QuestionGenerator
}

func NewService(c Config) *Service {
	return &Service{
		db:   c.DB,
		pool: c.Pool,
		gen:  c.Generator,
	}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so progression
// writes can join a caller-owned transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type InitRequest struct {
	UserID string
	Team   string
}

// Init creates the QuizProgress row with defaults. Calling it again for the
// same pair is a no-op, safe under concurrent callers: the unique constraint
// absorbs the duplicate insert.
func (s *Service) Init(ctx context.Context, req InitRequest) error {
	if req.UserID == "" || req.Team == "" {
		return errors.InvalidArgumentf("user and team are required")
	}

	const stmt = `
INSERT INTO quiz_progress (user_id, team, current_level, current_question_index, level_score, total_correct)
VALUES ($1, $2, $3, 0, 0, 0)
ON CONFLICT (user_id, team) DO NOTHING;`

	if _, err := s.db.Exec(ctx, stmt, req.UserID, req.Team, domain.LevelEasy); err != nil {
		return fmt.Errorf("progress: init: %w", err)
	}

	return nil
}

// Get returns the current progress, or found=false when the pair has none.
// A missing row is not an error.
func (s *Service) Get(ctx context.Context, userID, team string) (domain.QuizProgress, bool, error) {
	return s.get(ctx, s.db, userID, team)
}

func (s *Service) get(ctx context.Context, q querier, userID, team string) (domain.QuizProgress, bool, error) {
	const stmt = `
SELECT current_level, current_question_index, level_score, total_correct, started_at, last_updated
FROM quiz_progress
WHERE user_id = $1 AND team = $2;`

	p := domain.QuizProgress{UserID: userID, Team: team}
	err := q.QueryRow(ctx, stmt, userID, team).Scan(
		&p.CurrentLevel, &p.CurrentQuestionIndex, &p.LevelScore, &p.TotalCorrect, &p.StartedAt, &p.LastUpdated,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.QuizProgress{}, false, nil
	}
	if err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("progress: get: %w", err)
	}

	return p, true, nil
}

type UpdateRequest struct {
	UserID        string
	Team          string
	Level         domain.Level
	QuestionIndex int
	LevelScore    int
	TotalCorrect  int
}

// Update overwrites the mutable progress fields with the caller's snapshot.
// Invalid levels, negative counters, and backward level moves are rejected.
func (s *Service) Update(ctx context.Context, req UpdateRequest) error {
	if !req.Level.Valid() {
		return errors.InvalidArgumentf("invalid level %q", req.Level)
	}
	if req.QuestionIndex < 0 || req.LevelScore < 0 || req.TotalCorrect < 0 {
		return errors.InvalidArgumentf("progress counters must be non-negative")
	}

	// The backward guard lives in the statement itself so two concurrent
	// updates cannot both read the old level and race each other past it.
	const stmt = `
UPDATE quiz_progress
SET current_level = $3,
    current_question_index = $4,
    level_score = $5,
    total_correct = $6,
    last_updated = now()
WHERE user_id = $1 AND team = $2 AND NOT (
    CASE current_level WHEN 'Easy' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END >
    CASE $3::text      WHEN 'Easy' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END
);`

	tag, err := s.db.Exec(ctx, stmt, req.UserID, req.Team, req.Level, req.QuestionIndex, req.LevelScore, req.TotalCorrect)
	if err != nil {
		return fmt.Errorf("progress: update: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows is either a missing pair or a rejected backward move; a
	// follow-up read only classifies the error, the guard already held.
	cur, found, err := s.Get(ctx, req.UserID, req.Team)
	if err != nil {
		return err
	}
	if !found {
		return errors.New(errors.CodeNotFound,
			errors.WithMessagef("no progress for user=%s team=%s", req.UserID, req.Team))
	}

	return errors.New(errors.CodeFailedPrecondition,
		errors.WithMessagef("cannot move level backward from %s to %s", cur.CurrentLevel, req.Level))
}

type CompleteLevelRequest struct {
	UserID string
	Team   string
	Level  domain.Level
	Score  decimal.Decimal
}

// CompleteLevel upserts the CompletedLevel row. It does not change the
// current level; advancing is an explicit choice via AdvanceChoice.
func (s *Service) CompleteLevel(ctx context.Context, req CompleteLevelRequest) error {
	return s.CompleteLevelTx(ctx, s.db, req)
}

// CompleteLevelTx is CompleteLevel joined to a caller-owned transaction, so
// the reward ledger can complete a level atomically with its point award.
func (s *Service) CompleteLevelTx(ctx context.Context, q querier, req CompleteLevelRequest) error {
	if !req.Level.Valid() {
		return errors.InvalidArgumentf("invalid level %q", req.Level)
	}
	if req.Score.IsNegative() || req.Score.GreaterThan(decimal.NewFromInt(100)) {
		return errors.InvalidArgumentf("score %s out of range [0, 100]", req.Score)
	}

	const stmt = `
INSERT INTO completed_levels (user_id, team, level, score, completed_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (user_id, team, level)
DO UPDATE SET score = EXCLUDED.score, completed_at = EXCLUDED.completed_at;`

	if _, err := q.Exec(ctx, stmt, req.UserID, req.Team, req.Level, req.Score); err != nil {
		return fmt.Errorf("progress: complete level: %w", err)
	}

	return nil
}

type AdvanceChoiceRequest struct {
	UserID   string
	Team     string
	Level    domain.Level
	Continue bool
}

// AdvanceChoice applies the user's stop-or-continue decision after a level.
// Continue moves Easy->Medium->Hard and resets the per-level counters; Hard
// stays at Hard either way. Stop leaves the saved progress untouched.
func (s *Service) AdvanceChoice(ctx context.Context, req AdvanceChoiceRequest) (domain.Level, error) {
	return s.AdvanceChoiceTx(ctx, s.db, req)
}

func (s *Service) AdvanceChoiceTx(ctx context.Context, q querier, req AdvanceChoiceRequest) (domain.Level, error) {
	if !req.Level.Valid() {
		return "", errors.InvalidArgumentf("invalid level %q", req.Level)
	}

	if !req.Continue {
		return req.Level, nil
	}

	next := req.Level.Next()

	const stmt = `
UPDATE quiz_progress
SET current_level = $3,
    current_question_index = 0,
    level_score = 0,
    last_updated = now()
WHERE user_id = $1 AND team = $2 AND NOT (
    CASE current_level WHEN 'Easy' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END >
    CASE $3::text     WHEN 'Easy' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END
);`

	if _, err := q.Exec(ctx, stmt, req.UserID, req.Team, next); err != nil {
		return "", fmt.Errorf("progress: advance: %w", err)
	}

	return next, nil
}

type SelectQuestionsRequest struct {
	UserID string
	Team   string
	Level  domain.Level
	Count  int
}

// SelectQuestions draws up to Count unseen questions for the pair from the
// static pool, without replacement. A remainder smaller than Count is
// returned whole; an empty remainder is ErrPoolExhausted. Drawn IDs are
// recorded so they are excluded from future draws until a reset.
func (s *Service) SelectQuestions(ctx context.Context, req SelectQuestionsRequest) ([]domain.Question, error) {
	if !req.Level.Valid() {
		return nil, errors.InvalidArgumentf("invalid level %q", req.Level)
	}
	if req.Count <= 0 {
		return nil, errors.InvalidArgumentf("count must be positive")
	}

	candidates := s.pool.ForTeamLevel(req.Team, req.Level)
	if len(candidates) == 0 {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("no %s questions for team %s", req.Level, req.Team))
	}

	asked, err := s.askedSet(ctx, req.UserID, req.Team)
	if err != nil {
		return nil, err
	}

	drawn := draw(candidates, asked, req.Count)
	if len(drawn) == 0 {
		return nil, ErrPoolExhausted
	}

	if err := s.recordAsked(ctx, req.UserID, req.Team, drawn); err != nil {
		return nil, err
	}

	return drawn, nil
}

type DrawRequest struct {
	UserID string
	Team   string
	Level  domain.Level
	Count  int
}

type DrawResponse struct {
	AttemptID string
	Questions []domain.Question
	// Generated is true when the questions came from the content generator
	// rather than the static pool.
	Generated bool
}

// Draw produces a quiz: generated content when the generator is available,
// the deduplicated static pool otherwise. Generator failures are recovered
// locally and never surface to the caller.
func (s *Service) Draw(ctx context.Context, req DrawRequest) (*DrawResponse, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("progress: new attempt id: %w", err)
	}

	resp := &DrawResponse{AttemptID: id.String()}

	if s.gen != nil {
		qs, err := s.generate(ctx, req)
		if err == nil {
			resp.Questions = qs
			resp.Generated = true
			return resp, nil
		}
		slog.WarnContext(ctx, "progress: generator unavailable, falling back to static pool",
			"team", req.Team, "level", req.Level, "error", err)
	}

	qs, err := s.SelectQuestions(ctx, SelectQuestionsRequest(req))
	if err != nil {
		return nil, err
	}

	resp.Questions = qs
	return resp, nil
}

// generate fetches questions from the generator and registers them in the
// runtime pool so a later submission can be graded by ID.
func (s *Service) generate(ctx context.Context, req DrawRequest) ([]domain.Question, error) {
	gen, err := s.gen.GenerateQuestions(ctx, req.Team, req.Level, req.Count)
	if err != nil {
		return nil, err
	}

	qs := make([]domain.Question, 0, len(gen))
	for _, g := range gen {
		idx := -1
		for i, opt := range g.Options {
			if opt == g.CorrectAnswer {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("progress: generated correct answer not among options")
		}

		qs = append(qs, domain.Question{
			ID:                 "gen-" + uuid.NewString(),
			Team:               req.Team,
			Level:              req.Level,
			Question:           g.Question,
			Options:            g.Options,
			CorrectAnswerIndex: idx,
			Explanation:        g.Explanation,
		})
	}

	s.pool.AddRuntime(qs)
	return qs, nil
}

// ResetAsked clears the asked-question history for the pair, and only for
// that pair, letting the user cycle through the content again.
func (s *Service) ResetAsked(ctx context.Context, userID, team string) error {
	const stmt = `DELETE FROM asked_questions WHERE user_id = $1 AND team = $2;`

	if _, err := s.db.Exec(ctx, stmt, userID, team); err != nil {
		return fmt.Errorf("progress: reset asked questions: %w", err)
	}

	return nil
}

// Resume returns the full picture for picking a quiz back up: current
// progress, latest score per completed level, and team stats.
func (s *Service) Resume(ctx context.Context, userID, team string) (domain.ResumeState, error) {
	state := domain.ResumeState{UserID: userID, Team: team}

	p, found, err := s.Get(ctx, userID, team)
	if err != nil {
		return state, err
	}
	state.HasProgress = found
	if found {
		state.Progress = p
		state.Stats = domain.TeamStats{
			HighestLevelReached: p.CurrentLevel,
			TotalCorrectAnswers: p.TotalCorrect,
		}
	}

	const stmt = `
SELECT level, score, completed_at
FROM completed_levels
WHERE user_id = $1 AND team = $2
ORDER BY CASE level WHEN 'Easy' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END;`

	rows, err := s.db.Query(ctx, stmt, userID, team)
	if err != nil {
		return state, fmt.Errorf("progress: list completed levels: %w", err)
	}

	state.CompletedLevels, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.CompletedLevel, error) {
		var cl domain.CompletedLevel
		if err := r.Scan(&cl.Level, &cl.Score, &cl.CompletedAt); err != nil {
			return domain.CompletedLevel{}, err
		}
		return cl, nil
	})
	if err != nil {
		return state, fmt.Errorf("progress: collect completed levels: %w", err)
	}

	return state, nil
}

func (s *Service) askedSet(ctx context.Context, userID, team string) (map[string]bool, error) {
	const stmt = `SELECT question_id FROM asked_questions WHERE user_id = $1 AND team = $2;`

	rows, err := s.db.Query(ctx, stmt, userID, team)
	if err != nil {
		return nil, fmt.Errorf("progress: list asked questions: %w", err)
	}

	asked := make(map[string]bool)
	ids, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (string, error) {
		var id string
		err := r.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("progress: collect asked questions: %w", err)
	}

	for _, id := range ids {
		asked[id] = true
	}

	return asked, nil
}

func (s *Service) recordAsked(ctx context.Context, userID, team string, qs []domain.Question) error {
	// Duplicate records are absorbed by the unique constraint; two
	// concurrent draws of the same question are not an error.
	const stmt = `
INSERT INTO asked_questions (user_id, team, question_id, asked_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, team, question_id) DO NOTHING;`

	now := time.Now()
	for _, q := range qs {
		if _, err := s.db.Exec(ctx, stmt, userID, team, q.ID, now); err != nil {
			return fmt.Errorf("progress: record asked question: %w", err)
		}
	}

	return nil
}
