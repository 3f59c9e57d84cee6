// Command server runs the claim verification HTTP API.
//
// Startup order: load .env (best effort), parse config, set log level, set up
// OpenTelemetry, open the database, build the cache and fact-check
// aggregator, wire routes, and serve until SIGINT/SIGTERM triggers a graceful
// shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-polygraph-backend/internal/cache"
	"github.com/tbourn/go-polygraph-backend/internal/config"
	"github.com/tbourn/go-polygraph-backend/internal/factcheck"
	httpapi "github.com/tbourn/go-polygraph-backend/internal/http"
	"github.com/tbourn/go-polygraph-backend/internal/observability"
	"github.com/tbourn/go-polygraph-backend/internal/repo"
	"github.com/tbourn/go-polygraph-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load(sysutil.FirstNonEmpty(os.Getenv("ENV_FILE"), ".env"))

	cfg := config.MustLoad()
	sysutil.SetLogLevel(cfg.LogLevel)
	if sysutil.IsTruthy(os.Getenv("LOG_PRETTY")) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	store := buildCache(ctx, cfg)
	agg := buildAggregator(cfg)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, store, agg, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("api_base", cfg.APIBasePath).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
	if c, ok := store.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	log.Info().Msg("bye")
}

// buildCache selects Redis when REDIS_URL is set, falling back to the
// in-process cache if the connection cannot be established.
func buildCache(ctx context.Context, cfg config.Config) cache.Cache {
	if cfg.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err == nil {
			log.Info().Msg("using redis verification cache")
			return r
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-process cache")
	}
	return cache.NewMemory(cfg.CacheTTL, 2*cfg.CacheTTL)
}

// buildAggregator constructs the fact-check aggregator from the configured
// provider list. Unknown provider names are logged and skipped.
func buildAggregator(cfg config.Config) *factcheck.Aggregator {
	var providers []factcheck.Provider
	for _, name := range cfg.FactCheck.Providers {
		p, err := factcheck.NewProvider(name, factcheck.Config{
			APIKey:  cfg.FactCheck.APIKey,
			BaseURL: cfg.FactCheck.BaseURL,
			Timeout: cfg.FactCheck.Timeout,
		})
		if err != nil {
			log.Warn().Err(err).Str("provider", name).Msg("skipping fact-check provider")
			continue
		}
		providers = append(providers, p)
	}
	return factcheck.NewAggregator(providers, cfg.FactCheck.Enabled)
}
