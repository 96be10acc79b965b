// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"subtitle-translate/internal/config"
	"subtitle-translate/internal/domain/ports/adapter"
	"subtitle-translate/internal/domain/ports/repository"
	aiAdapters "subtitle-translate/internal/infra/adapters/ai"
	"subtitle-translate/internal/infra/api"
	"subtitle-translate/internal/infra/api/apiv1"
	pg "subtitle-translate/internal/infra/db/postgres"
	"subtitle-translate/internal/infra/db/sqlite"
	httpapi "subtitle-translate/internal/infra/http"
	"subtitle-translate/internal/infra/i18n"
	"subtitle-translate/internal/infra/jobstore"
	"subtitle-translate/internal/infra/logging"
	"subtitle-translate/internal/infra/memory"
	"subtitle-translate/internal/infra/metrics"
	red "subtitle-translate/internal/infra/redis"
	"subtitle-translate/internal/infra/sched"
	"subtitle-translate/internal/infra/security"
	"subtitle-translate/internal/infra/worker"
	"subtitle-translate/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, echo provider fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Job store ----
	blobs, rdb, closeStore, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("job store")
	}
	defer closeStore()

	stored := blobs
	if cfg.Store.EncryptionKey != "" {
		encSvc, err := security.NewEncryptionService(cfg.Store.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption")
		}
		stored = security.NewEncryptedBlobStore(blobs, encSvc)
	}
	jobRepo := jobstore.NewBlobJobRepo(stored)

	// ---- AI providers ----
	tokens := aiAdapters.NewTokenCounter()
	if cfg.AI.Provider != "echo" {
		go tokens.Warm(cfg.AI.Model)
	}
	ai, err := buildAI(ctx, cfg, tokens, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai adapter")
	}

	// ---- Use cases ----
	translator := usecase.NewTranslatorUseCase(ai, i18n.MustDefault(), tokens, cfg.AI.Model, cfg.AI.MaxCompletionTokens, logger)
	processor := worker.NewChunkProcessor(jobRepo, translator, worker.NewPool(cfg.Jobs.Concurrency), cfg.Jobs.Concurrency, logger)
	jobsUC := usecase.NewTranslateJobUseCase(jobRepo, processor, cfg.Jobs.DefaultTargetLanguage, logger)

	// ---- HTTP ----
	var limiter apiv1.SubmitLimiter
	if rdb != nil && cfg.Server.SubmitRateLimit > 0 {
		limiter = red.NewRateLimiter(rdb, cfg.Server.SubmitRateLimit, time.Minute)
	}
	router := api.NewRouter(cfg.Server, apiv1.NewServer(jobsUC, limiter, logger), logger)
	server := httpapi.NewServer(cfg.Server.Port, cfg.Server.RequestTimeout, router, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Retention (redis expires keys itself) ----
	if cfg.Store.Backend != "redis" {
		retention := sched.NewRetentionWorker(cfg.Store.SweepInterval, cfg.Store.TTL, blobs, logger)
		go func() { _ = retention.Run(ctx) }()
	}

	logger.Info().
		Str("version", version).
		Str("store", cfg.Store.Backend).
		Str("provider", cfg.AI.Provider).
		Str("model", cfg.AI.Model).
		Int("concurrency", cfg.Jobs.Concurrency).
		Msg("subtitle translation service started")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout+5*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

// openBlobStore connects the configured backend. The redis client is returned
// separately so the submit limiter can share it; it is nil on other backends.
func openBlobStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.BlobStore, *red.Client, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		return red.NewBlobStore(c, cfg.Store.TTL), c, func() { _ = c.Close() }, nil

	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		go pg.ReportPoolStats(ctx, pool, 15*time.Second)
		return pg.NewBlobStore(pool), nil, pool.Close, nil

	case "sqlite":
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info().Str("path", cfg.SQLite.Path).Msg("sqlite job store opened")
		return s, nil, func() { _ = s.Close() }, nil

	default:
		logger.Warn().Msg("in-memory job store: jobs are lost on restart")
		return memory.NewBlobStore(), nil, func() {}, nil
	}
}

// buildAI registers every provider that has credentials and routes requests
// by model name, capped by ai.concurrent_limit.
func buildAI(ctx context.Context, cfg *config.Config, tokens *aiAdapters.TokenCounter, logger *zerolog.Logger) (adapter.AIServiceAdapter, error) {
	providers := map[string]adapter.AIServiceAdapter{}
	modelFor := func(provider string) string {
		if cfg.AI.Provider == provider {
			return cfg.AI.Model
		}
		return ""
	}

	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, modelFor("openai"), cfg.AI.OpenAIBaseURL, tokens)
		if err != nil {
			return nil, fmt.Errorf("openai adapter: %w", err)
		}
		providers["openai"] = oa
		logger.Info().Str("base", cfg.AI.OpenAIBaseURL).Msg("AI adapter: OpenAI compatible")
	}
	if cfg.AI.GeminiKey != "" {
		g, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, modelFor("gemini"))
		if err != nil {
			return nil, fmt.Errorf("gemini adapter: %w", err)
		}
		providers["gemini"] = g
		logger.Info().Str("base", cfg.AI.GeminiURL).Msg("AI adapter: Gemini")
	}
	if cfg.AI.Provider == "echo" || cfg.Runtime.Dev {
		providers["echo"] = aiAdapters.NewEchoAdapter("", 0)
		logger.Info().Msg("AI adapter: echo")
	}
	if len(providers) == 0 {
		return nil, aiAdapters.ErrNoProvider
	}

	multi := aiAdapters.NewMultiAIAdapter(cfg.AI.Provider, providers, nil)
	return aiAdapters.NewLimitedAI(multi, cfg.AI.ConcurrentLimit), nil
}
