// Package api exposes the HTTP surface and pushes per-user notifications.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/tranvk/fanarena/internal/domain"
	"github.com/tranvk/fanarena/internal/errors"
	"github.com/tranvk/fanarena/internal/event"
	"github.com/tranvk/fanarena/internal/leaderboard"
	"github.com/tranvk/fanarena/internal/progress"
	"github.com/tranvk/fanarena/internal/question"
	"github.com/tranvk/fanarena/internal/reward"
)

type Config struct {
	Engine       *gin.Engine
	EventBus     *event.Bus
	Progress     *progress.Service
	Reward       *reward.Service
	Leaderboard  *leaderboard.Service
	Pool         *question.Pool
	Chat         Chatter
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Chatter answers free-form fan questions. Nil disables the chat route.
type Chatter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type API struct {
	ps *progress.Service
	rs *reward.Service
	ls *leaderboard.Service

	pool *question.Pool
	chat Chatter

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		ps:     c.Progress,
		rs:     c.Reward,
		ls:     c.Leaderboard,
		pool:   c.Pool,
		chat:   c.Chat,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
	}

	a.register(c.Engine)

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNamePointsAwarded, func(ctx context.Context, e event.Event) error {
		return a.PublishPointsAwarded(ctx, e.(domain.EventPointsAwarded))
	})
	c.EventBus.Subscribe(domain.EventNameBadgeGranted, func(ctx context.Context, e event.Event) error {
		return a.PublishBadgeGranted(ctx, e.(domain.EventBadgeGranted))
	})

	return a
}

func (a *API) register(e *gin.Engine) {
	e.GET("/health", a.Health)

	e.POST("/users", a.CreateUser)
	e.GET("/users/:user_id", a.GetUser)
	e.GET("/users/:user_id/stats", a.GetUserStats)

	e.GET("/leaderboard", a.GetLeaderboard)
	e.GET("/teams", a.ListTeams)

	q := e.Group("/quiz")
	q.POST("/progress/init", a.InitProgress)
	q.GET("/progress/:user_id/:team", a.GetProgress)
	q.PUT("/progress", a.UpdateProgress)
	q.POST("/complete-level", a.CompleteLevel)
	q.POST("/level-choice", a.LevelChoice)
	q.GET("/resume/:user_id/:team", a.Resume)
	q.GET("/total-points/:user_id", a.TotalPoints)
	q.POST("/generate", a.GenerateQuiz)
	q.POST("/submit", a.SubmitQuiz)
	q.POST("/reset-pool", a.ResetPool)
	q.GET("/history/:user_id", a.QuizHistory)

	p := e.Group("/predictions")
	p.POST("/generate", a.GeneratePrediction)
	p.POST("/submit", a.SubmitPrediction)
	p.GET("/history/:user_id", a.PredictionHistory)
	p.GET("/stats/:user_id", a.PredictionStats)

	e.POST("/chat", a.Chat)

	ad := e.Group("/admin")
	ad.POST("/points/adjust", a.AdjustPoints)
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "questions": a.pool.Size()})
}

func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.Error(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{"error": e.Error()})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, errors.InvalidArgumentf("invalid request body: %v", err))
		return false
	}
	return true
}

// --- users ---

type createUserRequest struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	FavoriteTeam string `json:"favorite_team"`
}

func (a *API) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bind(c, &req) {
		return
	}

	created, err := a.rs.CreateUser(c.Request.Context(), reward.CreateUserRequest{
		UserID:       req.UserID,
		Username:     req.Username,
		FavoriteTeam: req.FavoriteTeam,
	})
	if err != nil {
		abort(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user_id": req.UserID, "created": created})
}

type userResponse struct {
	UserID       string   `json:"user_id"`
	Username     string   `json:"username"`
	FavoriteTeam string   `json:"favorite_team"`
	TotalPoints  int64    `json:"total_points"`
	Badges       []string `json:"badges"`
}

func (a *API) GetUser(c *gin.Context) {
	u, err := a.rs.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{
		UserID:       u.UserID,
		Username:     u.Username,
		FavoriteTeam: u.FavoriteTeam,
		TotalPoints:  u.TotalPoints,
		Badges:       u.Badges,
	})
}

func (a *API) GetUserStats(c *gin.Context) {
	st, err := a.rs.Stats(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		abort(c, err)
		return
	}

	resp := gin.H{
		"user_id":          st.User.UserID,
		"username":         st.User.Username,
		"total_points":     st.User.TotalPoints,
		"badges":           st.User.Badges,
		"quiz_count":       st.QuizCount,
		"prediction_count": st.PredictionCount,
		"avg_quiz_score":   st.AvgQuizScore,
	}
	if st.Ranked {
		resp["leaderboard_rank"] = st.LeaderboardRank
	}
	c.JSON(http.StatusOK, resp)
}

type adjustPointsRequest struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
	Reason string `json:"reason"`
}

// AdjustPoints applies a corrective (possibly negative) point adjustment
// to a user's balance, recorded as its own ledger row.
func (a *API) AdjustPoints(c *gin.Context) {
	var req adjustPointsRequest
	if !bind(c, &req) {
		return
	}

	balance, err := a.rs.Adjust(c.Request.Context(), req.UserID, req.Points, req.Reason)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      req.UserID,
		"points":       req.Points,
		"total_points": balance,
	})
}

// --- leaderboard ---

type leaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
	Team     string `json:"team"`
}

func (a *API) GetLeaderboard(c *gin.Context) {
	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, errors.InvalidArgumentf("invalid query: %v", err))
		return
	}

	l, err := a.ls.Rank(c.Request.Context(), q.Limit)
	if err != nil {
		abort(c, err)
		return
	}

	entries := make([]leaderboardEntry, 0, len(l.Entries))
	for _, e := range l.Entries {
		entries = append(entries, leaderboardEntry{
			Rank:     e.Rank,
			UserID:   e.UserID,
			Username: e.Username,
			Points:   e.Points,
			Team:     e.Team,
		})
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "total_users": l.TotalUsers})
}

func (a *API) ListTeams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"teams": a.pool.Teams()})
}

// --- quiz progression ---

type progressKeyRequest struct {
	UserID string `json:"user_id"`
	Team   string `json:"team"`
}

func (a *API) InitProgress(c *gin.Context) {
	var req progressKeyRequest
	if !bind(c, &req) {
		return
	}

	if err := a.rs.EnsureUser(c.Request.Context(), req.UserID); err != nil {
		abort(c, err)
		return
	}
	if err := a.ps.Init(c.Request.Context(), progress.InitRequest{UserID: req.UserID, Team: req.Team}); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID, "team": req.Team, "level": domain.LevelEasy})
}

type progressResponse struct {
	UserID        string       `json:"user_id"`
	Team          string       `json:"team"`
	Level         domain.Level `json:"level"`
	QuestionIndex int          `json:"question_index"`
	LevelScore    int          `json:"level_score"`
	TotalCorrect  int          `json:"total_correct"`
}

func progressToResponse(p domain.QuizProgress) progressResponse {
	return progressResponse{
		UserID:        p.UserID,
		Team:          p.Team,
		Level:         p.CurrentLevel,
		QuestionIndex: p.CurrentQuestionIndex,
		LevelScore:    p.LevelScore,
		TotalCorrect:  p.TotalCorrect,
	}
}

func (a *API) GetProgress(c *gin.Context) {
	p, found, err := a.ps.Get(c.Request.Context(), c.Param("user_id"), c.Param("team"))
	if err != nil {
		abort(c, err)
		return
	}
	if !found {
		abort(c, errors.New(errors.CodeNotFound, errors.WithMessagef("no progress for this team")))
		return
	}

	c.JSON(http.StatusOK, progressToResponse(p))
}

type updateProgressRequest struct {
	UserID        string       `json:"user_id"`
	Team          string       `json:"team"`
	Level         domain.Level `json:"level"`
	QuestionIndex int          `json:"question_index"`
	LevelScore    int          `json:"level_score"`
	TotalCorrect  int          `json:"total_correct"`
}

func (a *API) UpdateProgress(c *gin.Context) {
	var req updateProgressRequest
	if !bind(c, &req) {
		return
	}

	err := a.ps.Update(c.Request.Context(), progress.UpdateRequest{
		UserID:        req.UserID,
		Team:          req.Team,
		Level:         req.Level,
		QuestionIndex: req.QuestionIndex,
		LevelScore:    req.LevelScore,
		TotalCorrect:  req.TotalCorrect,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": true})
}

type completeLevelRequest struct {
	UserID string          `json:"user_id"`
	Team   string          `json:"team"`
	Level  domain.Level    `json:"level"`
	Score  decimal.Decimal `json:"score"`
}

func (a *API) CompleteLevel(c *gin.Context) {
	var req completeLevelRequest
	if !bind(c, &req) {
		return
	}

	err := a.ps.CompleteLevel(c.Request.Context(), progress.CompleteLevelRequest{
		UserID: req.UserID,
		Team:   req.Team,
		Level:  req.Level,
		Score:  req.Score,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"completed": true, "level": req.Level})
}

type levelChoiceRequest struct {
	UserID   string       `json:"user_id"`
	Team     string       `json:"team"`
	Level    domain.Level `json:"level"`
	Continue bool         `json:"continue"`
}

func (a *API) LevelChoice(c *gin.Context) {
	var req levelChoiceRequest
	if !bind(c, &req) {
		return
	}

	next, err := a.ps.AdvanceChoice(c.Request.Context(), progress.AdvanceChoiceRequest{
		UserID:   req.UserID,
		Team:     req.Team,
		Level:    req.Level,
		Continue: req.Continue,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"level": next, "continued": req.Continue})
}

type completedLevelResponse struct {
	Level       domain.Level    `json:"level"`
	Score       decimal.Decimal `json:"score"`
	CompletedAt string          `json:"completed_at"`
}

func (a *API) Resume(c *gin.Context) {
	st, err := a.ps.Resume(c.Request.Context(), c.Param("user_id"), c.Param("team"))
	if err != nil {
		abort(c, err)
		return
	}

	completed := make([]completedLevelResponse, 0, len(st.CompletedLevels))
	for _, cl := range st.CompletedLevels {
		completed = append(completed, completedLevelResponse{
			Level:       cl.Level,
			Score:       cl.Score,
			CompletedAt: cl.CompletedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	resp := gin.H{
		"user_id":          st.UserID,
		"team":             st.Team,
		"has_progress":     st.HasProgress,
		"completed_levels": completed,
		"highest_level":    st.Stats.HighestLevelReached,
		"total_correct":    st.Stats.TotalCorrectAnswers,
	}
	if st.HasProgress {
		resp["progress"] = progressToResponse(st.Progress)
	}
	c.JSON(http.StatusOK, resp)
}

// TotalPoints returns the user's global balance. Points are one ledger per
// user, not per team, so every team view reports the same total.
func (a *API) TotalPoints(c *gin.Context) {
	u, err := a.rs.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": u.UserID, "total_points": u.TotalPoints})
}

// --- quiz content + grading ---

type generateQuizRequest struct {
	UserID string       `json:"user_id"`
	Team   string       `json:"team"`
	Level  domain.Level `json:"level"`
	Count  int          `json:"count"`
}

type quizQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func (a *API) GenerateQuiz(c *gin.Context) {
	var req generateQuizRequest
	if !bind(c, &req) {
		return
	}
	if req.Count <= 0 {
		req.Count = 5
	}

	resp, err := a.ps.Draw(c.Request.Context(), progress.DrawRequest{
		UserID: req.UserID,
		Team:   req.Team,
		Level:  req.Level,
		Count:  req.Count,
	})
	if err != nil {
		abort(c, err)
		return
	}

	// Correct answers stay server side.
	qs := make([]quizQuestion, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		qs = append(qs, quizQuestion{ID: q.ID, Question: q.Question, Options: q.Options})
	}

	c.JSON(http.StatusOK, gin.H{
		"attempt_id": resp.AttemptID,
		"questions":  qs,
		"generated":  resp.Generated,
	})
}

type submitQuizRequest struct {
	AttemptID   string       `json:"attempt_id"`
	UserID      string       `json:"user_id"`
	Team        string       `json:"team"`
	Level       domain.Level `json:"level"`
	QuestionIDs []string     `json:"question_ids"`
	Answers     []string     `json:"answers"`
}

func (a *API) SubmitQuiz(c *gin.Context) {
	var req submitQuizRequest
	if !bind(c, &req) {
		return
	}

	resp, err := a.rs.SubmitQuiz(c.Request.Context(), reward.SubmitQuizRequest{
		AttemptID:   req.AttemptID,
		UserID:      req.UserID,
		Team:        req.Team,
		Level:       req.Level,
		QuestionIDs: req.QuestionIDs,
		Answers:     req.Answers,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":             resp.Results,
		"correct_count":       resp.CorrectCount,
		"total_count":         resp.TotalCount,
		"score":               resp.Score,
		"points_earned":       resp.PointsEarned,
		"points_per_question": resp.PointsPerQuestion,
		"level":               resp.Level,
		"next_level":          resp.NextLevel,
		"total_points":        resp.TotalPoints,
		"badges_earned":       resp.BadgesEarned,
	})
}

func (a *API) ResetPool(c *gin.Context) {
	var req progressKeyRequest
	if !bind(c, &req) {
		return
	}

	if err := a.ps.ResetAsked(c.Request.Context(), req.UserID, req.Team); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": true, "user_id": req.UserID, "team": req.Team})
}

type quizAttemptResponse struct {
	AttemptID    string          `json:"attempt_id"`
	Team         string          `json:"team"`
	Level        domain.Level    `json:"level"`
	CorrectCount int             `json:"correct_count"`
	TotalCount   int             `json:"total_count"`
	Score        decimal.Decimal `json:"score"`
	PointsEarned int64           `json:"points_earned"`
	CreatedAt    string          `json:"created_at"`
}

func (a *API) QuizHistory(c *gin.Context) {
	attempts, err := a.rs.QuizHistory(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		abort(c, err)
		return
	}

	resp := make([]quizAttemptResponse, 0, len(attempts))
	for _, at := range attempts {
		resp = append(resp, quizAttemptResponse{
			AttemptID:    at.AttemptID,
			Team:         at.Team,
			Level:        at.Level,
			CorrectCount: at.CorrectCount,
			TotalCount:   at.TotalCount,
			Score:        at.Score,
			PointsEarned: at.PointsEarned,
			CreatedAt:    at.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	c.JSON(http.StatusOK, gin.H{"attempts": resp})
}

// --- predictions ---

type generatePredictionRequest struct {
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
	Sport string `json:"sport"`
}

func (a *API) GeneratePrediction(c *gin.Context) {
	var req generatePredictionRequest
	if !bind(c, &req) {
		return
	}

	o, err := a.rs.PreviewOutcome(req.Team1, req.Team2, req.Sport)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predicted_winner": o.Winner,
		"confidence":       o.Confidence,
		"explanation":      o.Explanation,
	})
}

type submitPredictionRequest struct {
	UserID     string `json:"user_id"`
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	Sport      string `json:"sport"`
	Prediction string `json:"prediction"`
}

func (a *API) SubmitPrediction(c *gin.Context) {
	var req submitPredictionRequest
	if !bind(c, &req) {
		return
	}

	resp, err := a.rs.SubmitPrediction(c.Request.Context(), reward.SubmitPredictionRequest{
		UserID:         req.UserID,
		Team1:          req.Team1,
		Team2:          req.Team2,
		Sport:          req.Sport,
		UserPrediction: req.Prediction,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prediction":     resp.UserPrediction,
		"system_outcome": resp.SystemOutcome,
		"is_correct":     resp.IsCorrect,
		"points_earned":  resp.PointsEarned,
		"confidence":     resp.Confidence,
		"explanation":    resp.Explanation,
		"total_points":   resp.TotalPoints,
		"badges_earned":  resp.BadgesEarned,
	})
}

type predictionResponse struct {
	Team1        string `json:"team1"`
	Team2        string `json:"team2"`
	Sport        string `json:"sport"`
	Prediction   string `json:"prediction"`
	Outcome      string `json:"outcome"`
	IsCorrect    bool   `json:"is_correct"`
	PointsEarned int64  `json:"points_earned"`
	CreatedAt    string `json:"created_at"`
}

func (a *API) PredictionHistory(c *gin.Context) {
	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, errors.InvalidArgumentf("invalid query: %v", err))
		return
	}

	preds, err := a.rs.PredictionHistory(c.Request.Context(), c.Param("user_id"), q.Limit)
	if err != nil {
		abort(c, err)
		return
	}

	resp := make([]predictionResponse, 0, len(preds))
	for _, p := range preds {
		resp = append(resp, predictionResponse{
			Team1:        p.Team1,
			Team2:        p.Team2,
			Sport:        p.Sport,
			Prediction:   p.UserPrediction,
			Outcome:      p.SystemOutcome,
			IsCorrect:    p.IsCorrect,
			PointsEarned: p.PointsEarned,
			CreatedAt:    p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	c.JSON(http.StatusOK, gin.H{"predictions": resp})
}

func (a *API) PredictionStats(c *gin.Context) {
	st, err := a.rs.PredictionStats(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_predictions":   st.TotalPredictions,
		"correct_predictions": st.CorrectPredictions,
		"accuracy":            st.Accuracy,
		"total_points":        st.TotalPoints,
		"average_points":      st.AveragePoints,
	})
}

// --- chat ---

type chatRequest struct {
	Message string `json:"message"`
}

func (a *API) Chat(c *gin.Context) {
	var req chatRequest
	if !bind(c, &req) {
		return
	}
	if req.Message == "" {
		abort(c, errors.InvalidArgumentf("message is required"))
		return
	}
	if a.chat == nil {
		abort(c, errors.New(errors.CodeUnavailable, errors.WithMessagef("chat is not configured")))
		return
	}

	reply, err := a.chat.Complete(c.Request.Context(), req.Message)
	if err != nil {
		abort(c, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("chat is temporarily unavailable"),
			errors.WithCause(err)))
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
