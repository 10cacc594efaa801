package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kdduha/proposal-relay/internal/cache"
	"github.com/kdduha/proposal-relay/internal/config"
	"github.com/kdduha/proposal-relay/internal/extract"
	"github.com/kdduha/proposal-relay/internal/handler"
	"github.com/kdduha/proposal-relay/internal/llm"
	"github.com/kdduha/proposal-relay/internal/metrics"
	"github.com/kdduha/proposal-relay/internal/prompt"
	"github.com/kdduha/proposal-relay/internal/service"
	"github.com/openai/openai-go/v3/option"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	_ "github.com/kdduha/proposal-relay/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Proposal Relay API
// @version 1.0
// @description Streams proposal drafts, revisions and image suggestions from an upstream model.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	setupLogger(logger, cfg.Log)

	templates, err := prompt.LoadTemplates(cfg.PromptsDir)
	if err != nil {
		logger.Fatalf("templates error: %v", err)
	}

	extractor := extract.NewExtractor(logger, cfg.Extract.Workers)
	if cfg.CacheEnable {
		redisCache := cache.NewRedisCache(
			cfg.RedisConfig.Addr,
			cfg.RedisConfig.Password,
			cfg.RedisConfig.DB,
			cfg.RedisConfig.TTL,
		)
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis unreachable, extraction cache will miss")
		}
		extractor.SetCacheClient(redisCache)
		logger.Info("set redis as extraction cache")
	}

	upstream, closeUpstream, err := newUpstream(ctx, cfg.LLM)
	if err != nil {
		logger.Fatalf("upstream error: %v", err)
	}
	defer closeUpstream()

	proposalService := service.NewProposalService(
		logger,
		prompt.NewAssembler(templates, extractor),
		llm.NewRelay(upstream, logger),
		cfg.LLM,
	)
	h := handler.NewProposalHandler(logger, proposalService, cfg.Server)

	r := chi.NewRouter()
	r.Use([]func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Throttle(cfg.Server.ThrottleLimit),
		metrics.Middleware,
	}...)

	h.Register(r)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Server.Port,
			"provider": cfg.LLM.Provider,
			"model":    cfg.LLM.Model,
		}).Info("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server stopped")
}

func newUpstream(ctx context.Context, cfg config.LLMConfig) (llm.Upstream, func(), error) {
	if cfg.Provider == config.ProviderGemini {
		u, err := llm.NewGeminiUpstream(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
		return u, func() { _ = u.Close() }, nil
	}
	return llm.NewOpenAIUpstream(cfg.OpenAIAPIKey, cfg.OpenAIBase, option.WithHeader("User-Agent", "proposal-relay")), func() {}, nil
}

func setupLogger(logger *logrus.Logger, cfg config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	logger.SetFormatter(&logrus.JSONFormatter{})
}
