// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Claim model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a claim is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.ClaimService) which enforces dedup, scoring, caching, and
// temporal tracking.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateClaim inserts a new pending Claim row. The claim ID is a randomly
// generated UUID (string), status is forced to pending, and CreatedAt is set
// to UTC. The caller provides text, text hash, and provenance fields.
//
// On success, the passed claim is updated in place and returned. On failure
// (including a unique-index violation on text_hash), the DB error is returned.
func CreateClaim(ctx context.Context, db *gorm.DB, c *domain.Claim) (*domain.Claim, error) {
	c.ID = uuid.NewString()
	c.Status = domain.ClaimStatusPending
	c.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetClaim fetches a single claim by its ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetClaim(ctx context.Context, db *gorm.DB, id string) (*domain.Claim, error) {
	var c domain.Claim
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindClaimByHash fetches the claim whose normalized-text digest equals hash.
// Returns ErrNotFound when no such claim exists. Used for content-addressed
// deduplication before insert.
func FindClaimByHash(ctx context.Context, db *gorm.DB, hash string) (*domain.Claim, error) {
	var c domain.Claim
	if err := db.WithContext(ctx).Where("text_hash = ?", hash).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CountClaims returns the total number of claims, optionally filtered by
// status (empty status counts all). On DB error, it returns the error.
func CountClaims(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Claim{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListClaimsPage returns a paginated slice of claims ordered by creation time
// descending, optionally filtered by status. Use CountClaims to obtain the
// total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListClaimsPage(ctx context.Context, db *gorm.DB, status string, offset, limit int) ([]domain.Claim, error) {
	q := db.WithContext(ctx).Order("created_at desc").Offset(offset).Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Claim
	err := q.Find(&out).Error
	return out, err
}

// MarkClaimVerified transitions a claim's status to verified and bumps
// UpdatedAt. The transition is idempotent: re-verifying an already verified
// claim updates the timestamp only. Returns ErrNotFound when the claim does
// not exist.
func MarkClaimVerified(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.ClaimStatusVerified,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
