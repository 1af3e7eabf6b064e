package service

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datalens-ai/datalens/internal/config"
	"github.com/datalens-ai/datalens/internal/repository"
	"github.com/datalens-ai/datalens/internal/service/analysis"
	"github.com/datalens-ai/datalens/internal/service/auth"
	"github.com/datalens-ai/datalens/internal/service/dashboard"
	"github.com/datalens-ai/datalens/internal/service/ingest"
	"github.com/datalens-ai/datalens/internal/service/insight"
	"github.com/datalens-ai/datalens/internal/service/session"
	"github.com/datalens-ai/datalens/internal/service/warmup"
)

// Services 服务集合
type Services struct {
	Auth      *auth.Service
	Ingest    *ingest.Service
	Insight   *insight.Service
	Dashboard *dashboard.Service
	Warmer    *warmup.Warmer

	Config   *config.Config
	Sessions *session.Manager
	Engine   analysis.Engine
}

// NewServices 创建所有服务
// redisClient 可为 nil，此时引擎答案缓存被禁用
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	sessions := session.NewManager(repo.Dataset, time.Duration(cfg.Session.TTLMinutes)*time.Minute)
	ingestSvc := ingest.NewService(cfg, repo.Dataset)
	engine := analysis.NewOpenAIEngine(&cfg.AI, redisClient)

	return &Services{
		Auth:      auth.NewService(repo),
		Ingest:    ingestSvc,
		Insight:   insight.NewService(sessions, ingestSvc, engine),
		Dashboard: dashboard.NewService(repo),
		Warmer:    warmup.NewWarmer(sessions, ingestSvc, engine, cfg.Session.WarmupWorkers),

		Config:   cfg,
		Sessions: sessions,
		Engine:   engine,
	}, nil
}
