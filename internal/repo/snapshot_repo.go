// Package repo – temporal snapshot repository.
//
// Snapshots are append-only: a verification pass inserts a new row and no
// row is ever updated or deleted. History reads return snapshots ordered by
// valid time ascending (oldest first), which is the order ClaimAnalysis
// exposes to callers.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
)

// CreateSnapshot appends one verification snapshot for claimID. A zero
// validTime defaults to the write time.
func CreateSnapshot(ctx context.Context, db *gorm.DB, claimID string, result domain.VerificationResult, validTime time.Time) (*domain.Snapshot, error) {
	if validTime.IsZero() {
		validTime = time.Now().UTC()
	}
	s := &domain.Snapshot{
		ID:        uuid.NewString(),
		ClaimID:   claimID,
		Result:    result,
		ValidTime: validTime,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// ListSnapshots returns all snapshots for claimID, oldest first. A claim with
// no history returns an empty slice, not an error.
func ListSnapshots(ctx context.Context, db *gorm.DB, claimID string) ([]domain.Snapshot, error) {
	var out []domain.Snapshot
	err := db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("valid_time asc").
		Find(&out).Error
	return out, err
}
