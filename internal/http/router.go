// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbourn/go-polygraph-backend/internal/cache"
	"github.com/tbourn/go-polygraph-backend/internal/config"
	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/http/handlers"
	"github.com/tbourn/go-polygraph-backend/internal/http/middleware"
	"github.com/tbourn/go-polygraph-backend/internal/nlp"
	"github.com/tbourn/go-polygraph-backend/internal/repo"
	"github.com/tbourn/go-polygraph-backend/internal/score"
	"github.com/tbourn/go-polygraph-backend/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// claimRepoShim adapts the repository free functions to the
// services.ClaimRepo interface expected by the ClaimService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type claimRepoShim struct{}

// CreateClaim proxies repo.CreateClaim.
func (claimRepoShim) CreateClaim(ctx context.Context, db *gorm.DB, c *domain.Claim) (*domain.Claim, error) {
	return repo.CreateClaim(ctx, db, c)
}

// GetClaim proxies repo.GetClaim.
func (claimRepoShim) GetClaim(ctx context.Context, db *gorm.DB, id string) (*domain.Claim, error) {
	return repo.GetClaim(ctx, db, id)
}

// FindClaimByHash proxies repo.FindClaimByHash.
func (claimRepoShim) FindClaimByHash(ctx context.Context, db *gorm.DB, hash string) (*domain.Claim, error) {
	return repo.FindClaimByHash(ctx, db, hash)
}

// CountClaims proxies repo.CountClaims (pagination support).
func (claimRepoShim) CountClaims(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	return repo.CountClaims(ctx, db, status)
}

// ListClaimsPage proxies repo.ListClaimsPage (pagination support).
func (claimRepoShim) ListClaimsPage(ctx context.Context, db *gorm.DB, status string, offset, limit int) ([]domain.Claim, error) {
	return repo.ListClaimsPage(ctx, db, status, offset, limit)
}

// MarkClaimVerified proxies repo.MarkClaimVerified.
func (claimRepoShim) MarkClaimVerified(ctx context.Context, db *gorm.DB, id string) error {
	return repo.MarkClaimVerified(ctx, db, id)
}

// snapshotRepoShim adapts the snapshot repository functions to the
// services.SnapshotRepo interface.
type snapshotRepoShim struct{}

// CreateSnapshot proxies repo.CreateSnapshot.
func (snapshotRepoShim) CreateSnapshot(ctx context.Context, db *gorm.DB, claimID string, result domain.VerificationResult, validTime time.Time) (*domain.Snapshot, error) {
	return repo.CreateSnapshot(ctx, db, claimID, result, validTime)
}

// ListSnapshots proxies repo.ListSnapshots.
func (snapshotRepoShim) ListSnapshots(ctx context.Context, db *gorm.DB, claimID string) ([]domain.Snapshot, error) {
	return repo.ListSnapshots(ctx, db, claimID)
}

// sourceRepoShim adapts the source repository functions to the
// services.SourceRepo interface.
type sourceRepoShim struct{}

// CreateSource proxies repo.CreateSource.
func (sourceRepoShim) CreateSource(ctx context.Context, db *gorm.DB, s *domain.Source) (*domain.Source, error) {
	return repo.CreateSource(ctx, db, s)
}

// GetSourceByDomain proxies repo.GetSourceByDomain.
func (sourceRepoShim) GetSourceByDomain(ctx context.Context, db *gorm.DB, sourceDomain string) (*domain.Source, error) {
	return repo.GetSourceByDomain(ctx, db, sourceDomain)
}

// UpdateSourceReputation proxies repo.UpdateSourceReputation.
func (sourceRepoShim) UpdateSourceReputation(ctx context.Context, db *gorm.DB, id string, record map[string]int, verificationCount int, credibility float64, bias *float64) error {
	return repo.UpdateSourceReputation(ctx, db, id, record, verificationCount, credibility, bias)
}

// CountSources proxies repo.CountSources (pagination support).
func (sourceRepoShim) CountSources(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountSources(ctx, db)
}

// ListSourcesPage proxies repo.ListSourcesPage (pagination support).
func (sourceRepoShim) ListSourcesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Source, error) {
	return repo.ListSourcesPage(ctx, db, offset, limit)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Response compression
//  8. Rate limiter (per user/IP; health and metrics exempt)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, store cache.Cache, agg services.Aggregator, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress responses (analyses carry full evidence sets)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per user/IP; monitoring endpoints exempt
	r.Use(func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/health", "/metrics":
			middleware.MarkRateBypass(c)
		}
		c.Next()
	})
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/cache/aggregator
	sourceSvc := services.NewSourceService(db, sourceRepoShim{})
	claimSvc := &services.ClaimService{
		DB:         db,
		Repo:       claimRepoShim{},
		Snapshots:  snapshotRepoShim{},
		Cache:      store,
		Extractor:  nlp.NewHeuristic(),
		Aggregator: agg,
		Scorer:     score.NewScorer(),
		Sources:    sourceSvc,

		CacheTTL:                 cfg.CacheTTL,
		TemporalEnabled:          cfg.TemporalEnabled,
		MaxClaimRunes:            cfg.MaxClaimRunes,
		DefaultSourceCredibility: cfg.DefaultSourceCredibility,
	}
	h := handlers.New(claimSvc, sourceSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Claims
		api.POST("/claims/verify", h.VerifyClaim)
		api.GET("/claims", h.ListClaims)
		api.GET("/claims/:id", h.GetClaimAnalysis)
		api.GET("/claims/:id/history", h.ClaimHistory)

		// Sources
		api.POST("/sources", h.RegisterSource)
		api.GET("/sources", h.ListSources)
		api.GET("/sources/:domain", h.GetSource)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
