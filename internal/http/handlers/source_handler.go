// Source HTTP handlers.
//
// This file exposes REST endpoints for publisher source resources:
//   - POST   /sources           (register)
//   - GET    /sources           (list, paginated, most credible first)
//   - GET    /sources/{domain}  (fetch one)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/services"
)

//
// DTOs
//

// RegisterSourceRequest is the JSON payload for registering a source.
type RegisterSourceRequest struct {
	// Domain is the publisher domain, e.g. "reuters.com".
	Domain string `json:"domain" binding:"required,min=1,max=255" example:"reuters.com"`
	// Name is the display name of the publisher.
	Name string `json:"name" example:"Reuters"`
	// URL optionally links the publisher home page.
	URL string `json:"url" example:"https://www.reuters.com"`
	// Category classifies the publisher (fact_checker, mainstream_news, ...).
	Category string `json:"category" example:"mainstream_news"`
	// Country is an optional ISO country code.
	Country string `json:"country" example:"GB"`
}

// ListSourcesResponse wraps a page of sources and pagination information.
type ListSourcesResponse struct {
	Sources    []domain.Source `json:"sources"`
	Pagination Pagination      `json:"pagination"`
}

//
// Handlers
//

// RegisterSource adds a publisher domain to the reputation store. The domain
// is normalized to lowercase without a leading "www."; re-registering a known
// domain returns 409.
func (h *Handlers) RegisterSource(c *gin.Context) {
	var req RegisterSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	src, err := h.sourceSvc.Register(c.Request.Context(), services.RegisterSourceInput{
		Domain:   req.Domain,
		Name:     req.Name,
		URL:      req.URL,
		Category: req.Category,
		Country:  req.Country,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSource):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrDuplicateSource):
			fail(c, http.StatusConflict, ErrCodeConflict, "source already registered")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, src)
}

// GetSource returns a source by publisher domain.
func (h *Handlers) GetSource(c *gin.Context) {
	sourceDomain := strings.TrimSpace(c.Param("domain"))
	if sourceDomain == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "domain required")
		return
	}

	src, err := h.sourceSvc.Get(c.Request.Context(), sourceDomain)
	if err != nil {
		if errors.Is(err, services.ErrSourceNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "source not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, src)
}

// ListSources returns a page of registered sources ordered by credibility,
// highest first.
func (h *Handlers) ListSources(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.sourceSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListSourcesResponse{
		Sources:    items,
		Pagination: paginate(page, pageSize, total),
	})
}
