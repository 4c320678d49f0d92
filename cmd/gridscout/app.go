package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"gridscout/internal/alliance"
	"gridscout/internal/archive"
	"gridscout/internal/config"
	"gridscout/internal/dataset"
	"gridscout/internal/llm"
	"gridscout/internal/manual"
	"gridscout/internal/picklist"
	"gridscout/internal/server"
	"gridscout/internal/sheets"
	"gridscout/internal/statbotics"
	"gridscout/internal/store"
	"gridscout/internal/tba"
)

// app holds the wired service graph shared by the CLI commands.
type app struct {
	cfg         *config.Config
	repo        *dataset.Repository
	store       *store.Store
	builder     *dataset.Builder
	generator   *picklist.Generator
	archive     *archive.Service
	handler     *server.Handler
	sheetReader sheets.TabReader
	redis       *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	repo, err := dataset.NewRepository(cfg.DatasetDir())
	if err != nil {
		return nil, err
	}
	st, err := store.Open(filepath.Join(cfg.Data.Dir, "gridscout.db"))
	if err != nil {
		return nil, err
	}

	tbaClient := tba.NewClient(cfg.TBA.BaseURL, cfg.TBA.AuthKey,
		config.ParseDuration(cfg.TBA.Timeout, 15*time.Second))
	epaClient := statbotics.NewClient(cfg.Statbotics.BaseURL,
		config.ParseDuration(cfg.Statbotics.Timeout, 15*time.Second))
	builder := dataset.NewBuilder(repo, tbaClient, epaClient)

	llmCfg := llm.DefaultConfig(cfg.LLM.APIKey)
	llmCfg.BaseURL = cfg.LLM.BaseURL
	llmCfg.Model = cfg.LLM.Model
	llmCfg.Timeout = config.ParseDuration(cfg.LLM.Timeout, llmCfg.Timeout)
	llmCfg.MaxRetries = cfg.LLM.MaxRetries
	llmCfg.Temperature = cfg.LLM.Temperature
	llmClient := llm.NewChatClient(llmCfg)

	ttl := config.ParseDuration(cfg.Picklist.CacheTTL, 24*time.Hour)
	cache := picklist.NewMemoryCache(ttl)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = picklist.NewTieredCache(cache, picklist.NewRedisCache(redisClient, ttl))
	}
	generator := picklist.NewGenerator(repo, picklist.NewGPTService(llmClient), cache,
		picklist.GeneratorConfig{
			BatchSize:         cfg.Picklist.BatchSize,
			BatchingThreshold: cfg.Picklist.BatchingThreshold,
			ReferenceCount:    cfg.Picklist.ReferenceTeams,
			BatchDelay:        config.ParseDuration(cfg.Picklist.BatchDelay, 500*time.Millisecond),
		})

	var sheetReader sheets.TabReader
	if cfg.Sheets.CredentialsFile != "" {
		reader, err := sheets.NewGoogleReader(ctx, cfg.Sheets.CredentialsFile)
		if err != nil {
			st.Close()
			return nil, err
		}
		sheetReader = reader
	}

	archiveSvc := archive.NewService(st, repo)
	handler := server.NewHandler(
		repo,
		builder,
		generator,
		alliance.NewService(st, repo),
		manual.NewService(st, llmClient, cfg.CacheDir()),
		archiveSvc,
		st,
		sheetReader,
	)

	return &app{
		cfg:         cfg,
		repo:        repo,
		store:       st,
		builder:     builder,
		generator:   generator,
		archive:     archiveSvc,
		handler:     handler,
		sheetReader: sheetReader,
		redis:       redisClient,
	}, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.store.Close()
}
