// Package repo – Source repository.
//
// Thin persistence functions for the Source model. Reputation math lives in
// the service layer; these functions only read and write rows.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
)

// CreateSource inserts a new Source row with a UUID primary key, a neutral
// starting credibility, and an empty verdict histogram. A unique-index
// violation on domain is propagated as the raw DB error; the service layer
// maps it to a duplicate-registration failure.
func CreateSource(ctx context.Context, db *gorm.DB, s *domain.Source) (*domain.Source, error) {
	s.ID = uuid.NewString()
	if s.FactCheckRecord == nil {
		s.FactCheckRecord = domain.NewFactCheckRecord()
	}
	if s.CredibilityScore == 0 {
		s.CredibilityScore = 0.5
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.LastUpdated = now
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSourceByDomain fetches a source by its publisher domain.
// Returns ErrNotFound when missing.
func GetSourceByDomain(ctx context.Context, db *gorm.DB, sourceDomain string) (*domain.Source, error) {
	var s domain.Source
	if err := db.WithContext(ctx).Where("domain = ?", sourceDomain).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSourceReputation persists a recomputed reputation: the verdict
// histogram, verification count, credibility score, and optional bias score.
// Returns ErrNotFound when the source does not exist.
func UpdateSourceReputation(ctx context.Context, db *gorm.DB, id string, record map[string]int, verificationCount int, credibility float64, bias *float64) error {
	updates := map[string]any{
		"fact_check_record":  record,
		"verification_count": verificationCount,
		"credibility_score":  credibility,
		"last_updated":       time.Now().UTC(),
	}
	if bias != nil {
		updates["bias_score"] = *bias
	}
	res := db.WithContext(ctx).
		Model(&domain.Source{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountSources returns the total number of registered sources.
func CountSources(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Source{}).Count(&total).Error
	return total, err
}

// ListSourcesPage returns a paginated slice of sources ordered by credibility
// descending.
func ListSourcesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Source, error) {
	var out []domain.Source
	err := db.WithContext(ctx).
		Order("credibility_score desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
