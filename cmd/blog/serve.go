package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quillpress/blog-api/internal/api"
	"github.com/quillpress/blog-api/internal/core/service"
	"github.com/quillpress/blog-api/internal/infrastructure/config"
	redisstore "github.com/quillpress/blog-api/internal/infrastructure/db/redis"
	"github.com/quillpress/blog-api/internal/infrastructure/http/handlers"
	"github.com/quillpress/blog-api/internal/infrastructure/queue"
	"github.com/quillpress/blog-api/internal/infrastructure/security"
	"github.com/quillpress/blog-api/internal/pkg/validation"
	"github.com/quillpress/blog-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

// loadConfig reads the environment, initialises the logger and resolves the
// signing secret.
func loadConfig(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: appName,
	})

	usedFallback, err := cfg.Resolve()
	if err != nil {
		return nil, log, err
	}
	if usedFallback {
		log.Warn().Msg("JWT_SECRET not set, using the development signing secret")
	}
	return cfg, log, nil
}

func runServe(ctx context.Context) error {
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("store close failed")
		}
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	tokens, err := security.NewJWTAuthority(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	validate := validation.New()

	accounts := service.NewAccountService(st.accounts, security.NewBcryptHasher(), tokens, validate,
		service.AccountOptions{TokenTTL: cfg.Auth.TokenTTL, RememberMeTTL: cfg.Auth.RememberMeTTL}, log)
	articles := service.NewArticleService(st.articles, st.accounts, validate, log)
	views := service.NewViewService(st.articles, redisstore.NewViewDedup(rdb, cfg.Views.DedupTTL), log)

	dispatcher := queue.NewDispatcher(cfg.Views.Workers, views, log)
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher.Start(workerCtx)

	e := api.NewRouter(api.Dependencies{
		Accounts:  accounts,
		Articles:  articles,
		Views:     dispatcher,
		Tokens:    tokens,
		Validator: validate,
		Limiter:   redisstore.NewFixedWindowLimiter(rdb),
		RateLimit: api.RateLimitConfig{
			Requests: cfg.RateLimit.AuthRequests,
			Window:   cfg.RateLimit.AuthWindow,
		},
		TrustProxy: cfg.TrustProxy,
		Checks: []handlers.DependencyCheck{
			st.check,
			{Name: "redis", Ping: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb, 0) }},
		},
		Logger: log,
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-srvErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("view queue not fully drained")
	}
	log.Info().Msg("server stopped")
	return nil
}
