// Package services – ClaimService
//
// This file implements the ClaimService, the verification orchestrator. It
// owns the end-to-end pipeline for one claim: content-hash deduplication on
// create, then on verify a cache check, signal extraction, concurrent
// fact-check aggregation, majority-verdict derivation, credibility scoring,
// best-effort temporal snapshotting, cache write-through, and the pending →
// verified status transition.
//
// Collaborators (cache, temporal store, NLP extractor, fact-check
// aggregator) are injected as interfaces; a failure in a best-effort
// collaborator (cache, temporal store) is logged and never fails the
// verification itself.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the claim identifier.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-polygraph-backend/internal/cache"
	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/nlp"
	"github.com/tbourn/go-polygraph-backend/internal/score"
	"github.com/tbourn/go-polygraph-backend/internal/verdict"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ClaimRepo defines the repository contract required by ClaimService.
type ClaimRepo interface {
	// CreateClaim inserts a new pending claim row.
	CreateClaim(ctx context.Context, db *gorm.DB, c *domain.Claim) (*domain.Claim, error)

	// GetClaim fetches a claim by ID.
	GetClaim(ctx context.Context, db *gorm.DB, id string) (*domain.Claim, error)

	// FindClaimByHash fetches a claim by its normalized-text digest.
	FindClaimByHash(ctx context.Context, db *gorm.DB, hash string) (*domain.Claim, error)

	// CountClaims returns the total number of claims for pagination.
	CountClaims(ctx context.Context, db *gorm.DB, status string) (int64, error)

	// ListClaimsPage returns a page of claims.
	ListClaimsPage(ctx context.Context, db *gorm.DB, status string, offset, limit int) ([]domain.Claim, error)

	// MarkClaimVerified transitions a claim's status to verified.
	MarkClaimVerified(ctx context.Context, db *gorm.DB, id string) error
}

// SnapshotRepo defines the temporal-store contract required by ClaimService.
type SnapshotRepo interface {
	// CreateSnapshot appends one verification snapshot.
	CreateSnapshot(ctx context.Context, db *gorm.DB, claimID string, result domain.VerificationResult, validTime time.Time) (*domain.Snapshot, error)

	// ListSnapshots returns all snapshots for a claim, oldest first.
	ListSnapshots(ctx context.Context, db *gorm.DB, claimID string) ([]domain.Snapshot, error)
}

// Aggregator is the fact-check aggregation contract consumed by the
// orchestrator (see factcheck.Aggregator).
type Aggregator interface {
	// Aggregate returns normalized verdict records for the claim text.
	Aggregate(ctx context.Context, claimText string) []domain.FactCheck
}

// SourceLookup resolves a registered source's credibility by domain and
// records verification outcomes against it. Optional: when nil, or when the
// claim has no registered source, the orchestrator falls back to
// DefaultSourceCredibility and skips reputation updates.
type SourceLookup interface {
	CredibilityByDomain(ctx context.Context, sourceDomain string) (float64, bool)
	RecordVerification(ctx context.Context, sourceDomain, verdict string, sentiment domain.Sentiment) error
}

// CreateClaimInput carries a claim submission.
type CreateClaimInput struct {
	Text     string
	URL      string
	Platform string
	Author   string
	Metadata map[string]string
}

// ClaimService drives the verification pipeline.
type ClaimService struct {
	DB        *gorm.DB
	Repo      ClaimRepo
	Snapshots SnapshotRepo

	Cache      cache.Cache
	Extractor  nlp.Extractor
	Aggregator Aggregator
	Scorer     *score.Scorer
	Sources    SourceLookup

	// CacheTTL bounds how long a verification result is served from cache.
	CacheTTL time.Duration
	// TemporalEnabled toggles snapshot writes and history reads.
	TemporalEnabled bool
	// MaxClaimRunes caps submissions by rune length (0 = unlimited).
	MaxClaimRunes int
	// DefaultSourceCredibility is used when the claim has no registered
	// source.
	DefaultSourceCredibility float64
}

// titleCaser capitalizes provider names in explanations.
var titleCaser = cases.Title(language.English)

// Create computes the content hash of the submitted text and either returns
// the existing claim with that hash or persists a new pending claim.
// Creation is idempotent: submitting identical normalized text twice yields
// the same claim id both times.
func (s *ClaimService) Create(ctx context.Context, in CreateClaimInput) (*domain.Claim, error) {
	tr := otel.Tracer("services/ClaimService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyClaim
	}
	if s.MaxClaimRunes > 0 && utf8.RuneCountInString(text) > s.MaxClaimRunes {
		return nil, ErrClaimTooLong
	}

	hash := s.Extractor.TextHash(text)
	span.SetAttributes(attribute.String("claim.text_hash", hash))

	if existing, err := s.Repo.FindClaimByHash(ctx, s.DB, hash); err == nil {
		log.Info().Str("claim_id", existing.ID).Str("text_hash", hash).Msg("claim already exists, reusing")
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := &domain.Claim{
		Text:     text,
		TextHash: hash,
		URL:      in.URL,
		Platform: in.Platform,
		Author:   in.Author,
		Metadata: in.Metadata,
	}
	created, err := s.Repo.CreateClaim(ctx, s.DB, c)
	if err != nil {
		// Two callers can race past the existence check; the unique index
		// on text_hash makes one insert lose. Resolve to the winner's row.
		if existing, ferr := s.Repo.FindClaimByHash(ctx, s.DB, hash); ferr == nil {
			return existing, nil
		}
		return nil, err
	}

	log.Info().Str("claim_id", created.ID).Msg("created claim")
	return created, nil
}

// Verify runs the full verification pipeline for claimID and returns the
// composed analysis. A cache hit returns the cached analysis unchanged; a
// miss is a full recompute, including for already-verified claims.
func (s *ClaimService) Verify(ctx context.Context, claimID string) (*domain.ClaimAnalysis, error) {
	tr := otel.Tracer("services/ClaimService")
	ctx, span := tr.Start(ctx, "Verify",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	key := cache.VerificationKey(claimID)
	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, key); ok {
			var cached domain.ClaimAnalysis
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Debug().Str("claim_id", claimID).Msg("returning cached verification")
				return &cached, nil
			}
			// Undecodable entries are treated as a miss.
			_ = s.Cache.Delete(ctx, key)
		}
	}

	claim, err := s.Repo.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}

	entities := s.Extractor.Entities(claim.Text)
	sentiment := s.Extractor.Sentiment(claim.Text)
	complexity := s.Extractor.Complexity(claim.Text)

	factChecks := s.Aggregator.Aggregate(ctx, claim.Text)

	majority, avgRating := summarizeEvidence(factChecks)

	sourceCredibility := s.DefaultSourceCredibility
	claimDomain := domainOf(claim.URL)
	sourceKnown := false
	if s.Sources != nil && claimDomain != "" {
		if cred, ok := s.Sources.CredibilityByDomain(ctx, claimDomain); ok {
			sourceCredibility = cred
			sourceKnown = true
		}
	}

	assessment := s.Scorer.ClaimScore(sourceCredibility, factChecks, len(factChecks), complexity)

	verification := domain.VerificationResult{
		Verdict:          majority,
		Confidence:       avgRating,
		Explanation:      explain(majority, factChecks),
		FactChecks:       factChecks,
		Entities:         entities,
		Sentiment:        sentiment,
		CredibilityScore: assessment.OverallScore,
		Breakdown:        assessment.Breakdown,
		Recommendation:   assessment.Recommendation,
		CheckedAt:        time.Now().UTC(),
	}

	var history []domain.VerificationResult
	if s.TemporalEnabled && s.Snapshots != nil {
		if _, err := s.Snapshots.CreateSnapshot(ctx, s.DB, claimID, verification, time.Time{}); err != nil {
			log.Error().Err(err).Str("claim_id", claimID).Msg("temporal snapshot write failed")
		}
		snaps, err := s.Snapshots.ListSnapshots(ctx, s.DB, claimID)
		if err != nil {
			log.Error().Err(err).Str("claim_id", claimID).Msg("temporal history read failed")
		} else {
			history = make([]domain.VerificationResult, 0, len(snaps))
			for _, sn := range snaps {
				history = append(history, sn.Result)
			}
		}
	}

	if err := s.Repo.MarkClaimVerified(ctx, s.DB, claimID); err != nil {
		return nil, err
	}
	claim.Status = domain.ClaimStatusVerified

	// Feed the outcome back into the publisher's track record, best effort.
	if sourceKnown {
		if err := s.Sources.RecordVerification(ctx, claimDomain, majority, sentiment); err != nil {
			log.Warn().Err(err).Str("domain", claimDomain).Msg("source reputation update failed")
		}
	}

	analysis := &domain.ClaimAnalysis{
		Claim:           *claim,
		Verification:    verification,
		TemporalHistory: history,
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(analysis); err == nil {
			if err := s.Cache.Set(ctx, key, raw, s.CacheTTL); err != nil {
				log.Warn().Err(err).Str("claim_id", claimID).Msg("cache write failed")
			}
		}
	}

	log.Info().
		Str("claim_id", claimID).
		Str("verdict", majority).
		Float64("credibility_score", assessment.OverallScore).
		Int("fact_checks", len(factChecks)).
		Msg("claim verified")

	return analysis, nil
}

// Get fetches a claim by ID without triggering verification.
func (s *ClaimService) Get(ctx context.Context, claimID string) (*domain.Claim, error) {
	c, err := s.Repo.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return c, nil
}

// History returns the ordered temporal history for a claim, oldest first.
func (s *ClaimService) History(ctx context.Context, claimID string) ([]domain.VerificationResult, error) {
	if _, err := s.Get(ctx, claimID); err != nil {
		return nil, err
	}
	snaps, err := s.Snapshots.ListSnapshots(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.VerificationResult, 0, len(snaps))
	for _, sn := range snaps {
		out = append(out, sn.Result)
	}
	return out, nil
}

// ListPage returns a page of claims and the total count, optionally filtered
// by status. It applies defaults for invalid page/pageSize.
func (s *ClaimService) ListPage(ctx context.Context, status string, page, pageSize int) ([]domain.Claim, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountClaims(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Claim{}, 0, nil
	}

	items, err := s.Repo.ListClaimsPage(ctx, s.DB, status, offset, pageSize)
	return items, total, err
}

// summarizeEvidence derives the majority verdict (mode, ties broken by
// first-encountered order) and the mean provider rating from the evidence
// set. An empty set yields unverifiable at the neutral 0.5.
func summarizeEvidence(factChecks []domain.FactCheck) (string, float64) {
	if len(factChecks) == 0 {
		return verdict.Unverifiable, 0.5
	}
	verdicts := make([]string, len(factChecks))
	sum := 0.0
	for i, fc := range factChecks {
		verdicts[i] = fc.Verdict
		sum += fc.Rating
	}
	return verdict.Majority(verdicts), sum / float64(len(factChecks))
}

// explanations maps each majority verdict to its sentence template. %s is
// the comma-joined list of distinct provider names.
var explanations = map[string]string{
	verdict.True:         "This claim has been verified as true by %s.",
	verdict.MostlyTrue:   "This claim is mostly accurate according to %s, though some details may need context.",
	verdict.Mixed:        "This claim contains both accurate and inaccurate elements according to %s.",
	verdict.MostlyFalse:  "This claim is mostly inaccurate according to %s.",
	verdict.False:        "This claim has been fact-checked and found to be false by %s.",
	verdict.Unverifiable: "This claim cannot be verified with available information from %s.",
}

// explain builds the human-readable explanation from the verdict template
// and the distinct provider names, in first-appearance order.
func explain(majority string, factChecks []domain.FactCheck) string {
	if len(factChecks) == 0 {
		return "This claim could not be verified due to insufficient information from fact-checking sources."
	}

	seen := make(map[string]struct{}, len(factChecks))
	names := make([]string, 0, len(factChecks))
	for _, fc := range factChecks {
		name := fc.Source
		if name == "" {
			name = "Unknown"
		}
		if name == strings.ToLower(name) {
			name = titleCaser.String(name)
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	template, ok := explanations[majority]
	if !ok {
		return "Verification status unclear. See fact-check sources for details."
	}
	return fmt.Sprintf(template, strings.Join(names, ", "))
}

// domainOf extracts the host from a claim URL, or "" when absent/unparsable.
func domainOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
