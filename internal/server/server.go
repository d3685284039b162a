// Package server wires infrastructure, services, and the HTTP surface.
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/tranvk/fanarena/internal/api"
	"github.com/tranvk/fanarena/internal/event"
	"github.com/tranvk/fanarena/internal/leaderboard"
	"github.com/tranvk/fanarena/internal/prediction"
	"github.com/tranvk/fanarena/internal/progress"
	"github.com/tranvk/fanarena/internal/question"
	"github.com/tranvk/fanarena/internal/reward"
	"github.com/tranvk/fanarena/internal/telemetry"
)

//go:embed schema.sql
var schema string

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Attempts struct {
			Addrs  []string
			Pass   string
			Prefix string
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Core struct {
			Addr string
			User string
			Pass string
			Name string

			// InitSchema applies schema.sql on startup. Meant for local
			// and test environments; production schemas are migrated
			// out of band.
			InitSchema bool
		}
	}

	Questions struct {
		File string
	}

	Generator struct {
		BaseURL string
		APIKey  string
		Model   string
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			attempts redis.UniversalClient
			pubsub   redis.UniversalClient
		}

		postgres struct {
			core *pgxpool.Pool
		}
	}

	service struct {
		pool        *question.Pool
		generator   *question.Generator
		progress    *progress.Service
		prediction  *prediction.Service
		leaderboard *leaderboard.Service
		reward      *reward.Service
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.attempts, err = connect(s.c.Redis.Attempts.Addrs, s.c.Redis.Attempts.Pass)
	if err != nil {
		return fmt.Errorf("attempts: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pc := s.c.Postgres.Core

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pc.User, pc.Pass, pc.Addr, pc.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		return err
	}

	if pc.InitSchema {
		if _, err := db.Exec(ctx, schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	s.infra.postgres.core = db
	return nil
}

func (s *Server) initService() error {
	pool, err := question.Load(s.c.Questions.File)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	s.service.pool = pool

	if s.c.Generator.APIKey != "" {
		s.service.generator = question.NewGenerator(question.GeneratorConfig{
			BaseURL: s.c.Generator.BaseURL,
			APIKey:  s.c.Generator.APIKey,
			Model:   s.c.Generator.Model,
		})
	}

	// progress.Config.Generator is a nil interface when no generator is
	// configured; a typed nil pointer would defeat the fallback check.
	pc := progress.Config{
		DB:   s.infra.postgres.core,
		Pool: s.service.pool,
	}
	if s.service.generator != nil {
		pc.Generator = s.service.generator
	}
	s.service.progress = progress.NewService(pc)

	s.service.prediction = prediction.NewService(prediction.Config{})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		DB: s.infra.postgres.core,
	})

	s.service.reward = reward.NewService(reward.Config{
		DB:         s.infra.postgres.core,
		Redis:      s.infra.redis.attempts,
		Prefix:     s.c.Redis.Attempts.Prefix,
		EventBus:   s.eb,
		Pool:       s.service.pool,
		Progress:   s.service.progress,
		Prediction: s.service.prediction,
		Ranker:     s.service.leaderboard,
	})

	return nil
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), telemetry.HTTPLogger())

	c := api.Config{
		Engine:       e,
		EventBus:     s.eb,
		Progress:     s.service.progress,
		Reward:       s.service.reward,
		Leaderboard:  s.service.leaderboard,
		Pool:         s.service.pool,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	}
	if s.service.generator != nil {
		c.Chat = s.service.generator
	}
	api.New(c)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	slog.InfoContext(ctx, "server: shutdown completed")
}
