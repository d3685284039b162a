package reward

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tranvk/fanarena/internal/domain"
	"github.com/tranvk/fanarena/internal/errors"
	"github.com/tranvk/fanarena/internal/prediction"
)

type SubmitPredictionRequest struct {
	UserID         string
	Team1          string
	Team2          string
	Sport          string
	UserPrediction string
}

type SubmitPredictionResponse struct {
	UserPrediction string
	SystemOutcome  string
	IsCorrect      bool
	PointsEarned   int64
	Explanation    string
	Confidence     int
	TotalPoints    int64
	BadgesEarned   []string
}

// PreviewOutcome samples a match outcome without recording anything. The
// preview is advisory: submitting later draws a fresh sample.
func (s *Service) PreviewOutcome(team1, team2, sport string) (prediction.Outcome, error) {
	return s.pred.GenerateOutcome(team1, team2, sport)
}

// SubmitPrediction generates the system outcome, evaluates the user's guess
// against it, and persists the prediction record together with its point
// award in one transaction. If the balance update fails the prediction row
// is not persisted either.
func (s *Service) SubmitPrediction(ctx context.Context, req SubmitPredictionRequest) (*SubmitPredictionResponse, error) {
	if req.UserID == "" {
		return nil, errors.InvalidArgumentf("user_id is required")
	}
	if req.UserPrediction == "" {
		return nil, errors.InvalidArgumentf("prediction is required")
	}
	if req.UserPrediction == prediction.DrawOutcome && req.Sport != prediction.SportSoccer {
		return nil, errors.InvalidArgumentf("%s does not have draws", req.Sport)
	}

	// The outcome sample happens before any transaction is opened, so a
	// slow prediction path never holds a ledger lock.
	outcome, err := s.pred.GenerateOutcome(req.Team1, req.Team2, req.Sport)
	if err != nil {
		return nil, err
	}

	correct, points := s.pred.Evaluate(req.UserPrediction, outcome.Winner, req.Sport)

	if err := s.EnsureUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	balance, err := s.applyPredictionAward(ctx, req, outcome, correct, points)
	if err != nil {
		return nil, err
	}

	badges, err := s.predictionBadges(ctx, req.UserID, correct, balance)
	if err != nil {
		slog.ErrorContext(ctx, "reward: badge check failed", "user", req.UserID, "error", err)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventPointsAwarded{
			Award: domain.PointAward{
				UserID: req.UserID,
				Source: domain.AwardSourcePrediction,
				Points: points,
				Ref:    fmt.Sprintf("%s vs %s", req.Team1, req.Team2),
			},
			TotalPoints: balance,
		})
	}

	return &SubmitPredictionResponse{
		UserPrediction: req.UserPrediction,
		SystemOutcome:  outcome.Winner,
		IsCorrect:      correct,
		PointsEarned:   points,
		Explanation:    outcome.Explanation,
		Confidence:     outcome.Confidence,
		TotalPoints:    balance,
		BadgesEarned:   badges,
	}, nil
}

func (s *Service) applyPredictionAward(ctx context.Context, req SubmitPredictionRequest,
	outcome prediction.Outcome, correct bool, points int64) (balance int64, err error) {

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("reward: begin prediction award: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insPredictionStmt = `
INSERT INTO predictions (user_id, team1, team2, sport, user_prediction, system_outcome, is_correct, points_earned, explanation)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id;`

	var predID int64
	err = tx.QueryRow(ctx, insPredictionStmt,
		req.UserID, req.Team1, req.Team2, req.Sport,
		req.UserPrediction, outcome.Winner, correct, points, outcome.Explanation,
	).Scan(&predID)
	if err != nil {
		return 0, fmt.Errorf("reward: insert prediction: %w", err)
	}

	const insAwardStmt = `
INSERT INTO point_awards (user_id, source, points, ref)
VALUES ($1, 'prediction', $2, $3);`

	if _, err = tx.Exec(ctx, insAwardStmt, req.UserID, points, fmt.Sprintf("prediction:%d", predID)); err != nil {
		return 0, fmt.Errorf("reward: insert prediction award: %w", err)
	}

	const updBalanceStmt = `
UPDATE users SET total_points = total_points + $2, last_interaction = now()
WHERE user_id = $1
RETURNING total_points;`

	if err = tx.QueryRow(ctx, updBalanceStmt, req.UserID, points).Scan(&balance); err != nil {
		return 0, fmt.Errorf("reward: apply prediction award: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("reward: commit prediction award: %w", err)
	}

	return balance, nil
}

func (s *Service) predictionBadges(ctx context.Context, userID string, correct bool, balance int64) ([]string, error) {
	var earned []string

	if correct {
		if err := s.GrantBadge(ctx, userID, BadgePredictionPro); err != nil {
			return earned, err
		}
		earned = append(earned, BadgePredictionPro)
	}

	if balance >= s.rules.PointsCollectorTotal {
		if err := s.GrantBadge(ctx, userID, BadgePointsCollector); err != nil {
			return earned, err
		}
		earned = append(earned, BadgePointsCollector)
	}

	return earned, nil
}

// PredictionHistory lists the user's predictions, newest first.
func (s *Service) PredictionHistory(ctx context.Context, userID string, limit int) ([]domain.Prediction, error) {
	if limit <= 0 {
		limit = 50
	}

	const stmt = `
SELECT id, team1, team2, sport, user_prediction, system_outcome, is_correct, points_earned, explanation, created_at
FROM predictions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;`

	rows, err := s.db.Query(ctx, stmt, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("reward: prediction history: %w", err)
	}

	preds, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Prediction, error) {
		p := domain.Prediction{UserID: userID}
		err := r.Scan(&p.ID, &p.Team1, &p.Team2, &p.Sport, &p.UserPrediction, &p.SystemOutcome,
			&p.IsCorrect, &p.PointsEarned, &p.Explanation, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("reward: collect prediction history: %w", err)
	}

	return preds, nil
}

// PredictionStats aggregates the user's prediction record.
func (s *Service) PredictionStats(ctx context.Context, userID string) (domain.PredictionStats, error) {
	const stmt = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE is_correct),
       COALESCE(SUM(points_earned), 0)
FROM predictions
WHERE user_id = $1;`

	var st domain.PredictionStats
	if err := s.db.QueryRow(ctx, stmt, userID).Scan(&st.TotalPredictions, &st.CorrectPredictions, &st.TotalPoints); err != nil {
		return domain.PredictionStats{}, fmt.Errorf("reward: prediction stats: %w", err)
	}

	if st.TotalPredictions > 0 {
		total := decimal.NewFromInt(int64(st.TotalPredictions))
		st.Accuracy = decimal.NewFromInt(int64(st.CorrectPredictions) * 100).Div(total).Round(2)
		st.AveragePoints = decimal.NewFromInt(st.TotalPoints).Div(total).Round(2)
	} else {
		st.Accuracy = decimal.Zero
		st.AveragePoints = decimal.Zero
	}

	return st, nil
}
