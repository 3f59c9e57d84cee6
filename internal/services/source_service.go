// Package services – SourceService
//
// This file implements SourceService, which owns the source reputation
// ledger. Registering a source starts it at the neutral credibility;
// recording a verification outcome bumps the matching verdict bucket,
// increments the verification count, recomputes the credibility score
// through the source credibility model, and persists the result. Bucket
// counts only ever grow.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/score"
	"github.com/tbourn/go-polygraph-backend/internal/verdict"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SourceRepo defines the repository contract required by SourceService.
type SourceRepo interface {
	// CreateSource inserts a new source row.
	CreateSource(ctx context.Context, db *gorm.DB, s *domain.Source) (*domain.Source, error)

	// GetSourceByDomain fetches a source by publisher domain.
	GetSourceByDomain(ctx context.Context, db *gorm.DB, sourceDomain string) (*domain.Source, error)

	// UpdateSourceReputation persists a recomputed reputation.
	UpdateSourceReputation(ctx context.Context, db *gorm.DB, id string, record map[string]int, verificationCount int, credibility float64, bias *float64) error

	// CountSources returns the total number of sources for pagination.
	CountSources(ctx context.Context, db *gorm.DB) (int64, error)

	// ListSourcesPage returns a page of sources.
	ListSourcesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Source, error)
}

// RegisterSourceInput carries a source registration.
type RegisterSourceInput struct {
	Domain   string
	Name     string
	URL      string
	Category string
	Country  string
}

// SourceService manages publisher reputation.
type SourceService struct {
	DB     *gorm.DB
	Repo   SourceRepo
	Scorer *score.Scorer
}

// NewSourceService constructs a SourceService with the default scorer.
func NewSourceService(db *gorm.DB, r SourceRepo) *SourceService {
	return &SourceService{DB: db, Repo: r, Scorer: score.NewScorer()}
}

// Register adds a new source. Domains are normalized to lowercase without a
// leading "www.". Registering an already-known domain fails with
// ErrDuplicateSource.
func (s *SourceService) Register(ctx context.Context, in RegisterSourceInput) (*domain.Source, error) {
	tr := otel.Tracer("services/SourceService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	d := normalizeDomain(in.Domain)
	if d == "" || strings.TrimSpace(in.Name) == "" {
		return nil, ErrInvalidSource
	}
	span.SetAttributes(attribute.String("source.domain", d))

	if _, err := s.Repo.GetSourceByDomain(ctx, s.DB, d); err == nil {
		return nil, ErrDuplicateSource
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	src := &domain.Source{
		Domain:   d,
		Name:     strings.TrimSpace(in.Name),
		URL:      in.URL,
		Category: strings.ToLower(strings.TrimSpace(in.Category)),
		Country:  in.Country,
	}
	created, err := s.Repo.CreateSource(ctx, s.DB, src)
	if err != nil {
		// A concurrent registration may have won the unique index race.
		if _, gerr := s.Repo.GetSourceByDomain(ctx, s.DB, d); gerr == nil {
			return nil, ErrDuplicateSource
		}
		return nil, err
	}

	log.Info().Str("source_id", created.ID).Str("domain", d).Msg("registered source")
	return created, nil
}

// Get fetches a source by domain.
func (s *SourceService) Get(ctx context.Context, sourceDomain string) (*domain.Source, error) {
	src, err := s.Repo.GetSourceByDomain(ctx, s.DB, normalizeDomain(sourceDomain))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}
	return src, nil
}

// ListPage returns a page of sources ordered by credibility and the total
// count.
func (s *SourceService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Source, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountSources(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Source{}, 0, nil
	}

	items, err := s.Repo.ListSourcesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// RecordVerification folds one verification outcome into the source's
// history and recomputes its credibility score. The verdict is bucketed into
// the four history buckets (mostly_true counts toward true, mostly_false
// toward false). The recomputed score is clamped to [0,1] by the model. The
// claim's sentiment feeds a running bias estimate across all verifications
// recorded for the source.
func (s *SourceService) RecordVerification(ctx context.Context, sourceDomain, verdictValue string, sentiment domain.Sentiment) error {
	tr := otel.Tracer("services/SourceService")
	ctx, span := tr.Start(ctx, "RecordVerification",
		trace.WithAttributes(attribute.String("source.domain", sourceDomain)),
	)
	defer span.End()

	src, err := s.Get(ctx, sourceDomain)
	if err != nil {
		return err
	}

	record := src.FactCheckRecord
	if record == nil {
		record = domain.NewFactCheckRecord()
	}
	record[historyBucket(verdictValue)]++
	count := src.VerificationCount + 1

	ageDays := int(time.Since(src.CreatedAt).Hours() / 24)
	credibility := s.Scorer.SourceScore(record, count, ageDays, src.Category)

	bias := s.Scorer.BiasScore(sentiment.Polarity, sentiment.Subjectivity)
	if src.BiasScore != nil {
		// Running mean over all recorded verifications.
		bias = (*src.BiasScore*float64(src.VerificationCount) + bias) / float64(count)
	}

	if err := s.Repo.UpdateSourceReputation(ctx, s.DB, src.ID, record, count, credibility, &bias); err != nil {
		return err
	}

	log.Info().
		Str("domain", src.Domain).
		Str("verdict", verdictValue).
		Float64("credibility_score", credibility).
		Int("verification_count", count).
		Msg("updated source reputation")
	return nil
}

// CredibilityByDomain implements the ClaimService SourceLookup contract.
func (s *SourceService) CredibilityByDomain(ctx context.Context, sourceDomain string) (float64, bool) {
	src, err := s.Get(ctx, sourceDomain)
	if err != nil {
		return 0, false
	}
	return src.CredibilityScore, true
}

// historyBucket folds a taxonomy verdict into the four history buckets.
func historyBucket(v string) string {
	switch verdict.Normalize(v) {
	case verdict.True, verdict.MostlyTrue:
		return "true"
	case verdict.False, verdict.MostlyFalse:
		return "false"
	case verdict.Mixed:
		return "mixed"
	default:
		return "unverifiable"
	}
}

// normalizeDomain lowercases and strips whitespace and a leading "www.".
func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	return strings.TrimPrefix(d, "www.")
}
