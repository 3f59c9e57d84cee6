// Claim HTTP handlers.
//
// This file exposes REST endpoints for claim resources:
//   - POST   /claims/verify        (submit + verify, returns the full analysis)
//   - GET    /claims               (list, paginated, optional status filter)
//   - GET    /claims/{id}          (fetch one analysis)
//   - GET    /claims/{id}/history  (verdict timeline)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/services"
	"github.com/tbourn/go-polygraph-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ClaimService defines the verification pipeline operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ClaimService interface {
	// Create ingests a claim submission, deduplicating by content hash.
	Create(ctx context.Context, in services.CreateClaimInput) (*domain.Claim, error)
	// Verify runs the full pipeline for a stored claim and returns the analysis.
	Verify(ctx context.Context, claimID string) (*domain.ClaimAnalysis, error)
	// Get returns a stored claim by id.
	Get(ctx context.Context, claimID string) (*domain.Claim, error)
	// History returns a claim's verification snapshots, oldest first.
	History(ctx context.Context, claimID string) ([]domain.VerificationResult, error)
	// ListPage returns a page of claims and the total count.
	ListPage(ctx context.Context, status string, page, pageSize int) ([]domain.Claim, int64, error)
}

// SourceService defines publisher reputation operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SourceService interface {
	// Register adds a new publisher domain.
	Register(ctx context.Context, in services.RegisterSourceInput) (*domain.Source, error)
	// Get returns a source by domain.
	Get(ctx context.Context, sourceDomain string) (*domain.Source, error)
	// ListPage returns a page of sources and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Source, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for claims and sources. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	claimSvc  ClaimService
	sourceSvc SourceService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(claimSvc ClaimService, sourceSvc SourceService) *Handlers {
	return &Handlers{claimSvc: claimSvc, sourceSvc: sourceSvc}
}

//
// DTOs
//

// VerifyClaimRequest is the JSON payload for submitting a claim.
type VerifyClaimRequest struct {
	// Text is the claim statement to verify (1-5000 chars).
	Text string `json:"text" binding:"required,min=1,max=5000" example:"Drinking two liters of water daily prevents all illness"`
	// URL optionally links the post the claim was found in.
	URL string `json:"url" example:"https://example.com/post/42"`
	// Platform optionally names the social platform of origin.
	Platform string `json:"platform" example:"twitter"`
	// Author optionally names the post author.
	Author string `json:"author" example:"@healthguru"`
	// Metadata carries free-form submission context.
	Metadata map[string]string `json:"metadata"`
}

// VerifyClaimResponse wraps a completed (or failed) verification run.
type VerifyClaimResponse struct {
	Success        bool                  `json:"success"`
	ClaimID        string                `json:"claim_id,omitempty"`
	Analysis       *domain.ClaimAnalysis `json:"analysis,omitempty"`
	Error          string                `json:"error,omitempty"`
	ProcessingTime float64               `json:"processing_time"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListClaimsResponse wraps a page of claims and pagination information.
type ListClaimsResponse struct {
	Claims     []domain.Claim `json:"claims"`
	Pagination Pagination     `json:"pagination"`
}

// ClaimHistoryResponse wraps a claim's verification timeline.
type ClaimHistoryResponse struct {
	ClaimID string                      `json:"claim_id"`
	History []domain.VerificationResult `json:"history"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginate builds the shared pagination envelope.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// VerifyClaim ingests a claim and runs the full verification pipeline,
// returning the claim id, the analysis, and the wall-clock processing time in
// seconds. Verification failures after a successful submission still return
// the claim id so the client can retry.
func (h *Handlers) VerifyClaim(c *gin.Context) {
	start := time.Now()

	var req VerifyClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	claim, err := h.claimSvc.Create(ctx, services.CreateClaimInput{
		Text:     strings.TrimSpace(req.Text),
		URL:      req.URL,
		Platform: req.Platform,
		Author:   req.Author,
		Metadata: req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyClaim), errors.Is(err, services.ErrClaimTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeVerifyFailed, err.Error())
		}
		return
	}

	analysis, err := h.claimSvc.Verify(ctx, claim.ID)
	if err != nil {
		ok(c, http.StatusOK, VerifyClaimResponse{
			Success:        false,
			ClaimID:        claim.ID,
			Error:          err.Error(),
			ProcessingTime: time.Since(start).Seconds(),
		})
		return
	}

	ok(c, http.StatusOK, VerifyClaimResponse{
		Success:        true,
		ClaimID:        claim.ID,
		Analysis:       analysis,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

// GetClaimAnalysis returns the stored analysis for a claim, re-running the
// verification pipeline when the cached result has expired.
func (h *Handlers) GetClaimAnalysis(c *gin.Context) {
	claimID := c.Param("id")
	if _, err := uuid.Parse(claimID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "claim id must be a UUID")
		return
	}

	analysis, err := h.claimSvc.Verify(c.Request.Context(), claimID)
	if err != nil {
		if errors.Is(err, services.ErrClaimNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "claim not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeVerifyFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, analysis)
}

// ListClaims returns a page of stored claims, newest first. The optional
// `status` query filters by lifecycle status (pending|verified).
func (h *Handlers) ListClaims(c *gin.Context) {
	page, pageSize := clampPagination(c)
	status := strings.TrimSpace(c.Query("status"))
	if status != "" && status != domain.ClaimStatusPending && status != domain.ClaimStatusVerified {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be pending or verified")
		return
	}

	items, total, err := h.claimSvc.ListPage(c.Request.Context(), status, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListClaimsResponse{
		Claims:     items,
		Pagination: paginate(page, pageSize, total),
	})
}

// ClaimHistory returns the verdict timeline recorded for a claim, oldest
// snapshot first.
func (h *Handlers) ClaimHistory(c *gin.Context) {
	claimID := c.Param("id")
	if _, err := uuid.Parse(claimID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "claim id must be a UUID")
		return
	}

	history, err := h.claimSvc.History(c.Request.Context(), claimID)
	if err != nil {
		if errors.Is(err, services.ErrClaimNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "claim not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ClaimHistoryResponse{ClaimID: claimID, History: history})
}
