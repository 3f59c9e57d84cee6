// Package score implements the credibility models: source scoring from
// historical verdict records, claim scoring from aggregated signals, and the
// auxiliary bias score.
//
// All scores are bounded and every claim assessment carries a transparent
// per-component breakdown so callers can explain, not just assert, a result.
// The shared weight table is the single tunable policy surface for the whole
// scoring system; it is read-only process-wide configuration.
package score

import (
	"math"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/verdict"
)

// Weights is the shared factor-weight table used by both the source and the
// claim model. The weights sum to 1.0.
type Weights struct {
	HistoricalAccuracy float64
	SourceReputation   float64
	ClaimComplexity    float64
	Corroboration      float64
	Recency            float64
}

// DefaultWeights returns the standard policy weights.
func DefaultWeights() Weights {
	return Weights{
		HistoricalAccuracy: 0.35,
		SourceReputation:   0.25,
		ClaimComplexity:    0.15,
		Corroboration:      0.15,
		Recency:            0.10,
	}
}

// categoryReputation is the lookup table scoring a source category's baseline
// trustworthiness. Unknown categories score neutral.
var categoryReputation = map[string]float64{
	"academic":        0.9,
	"fact_checker":    0.95,
	"government":      0.85,
	"mainstream_news": 0.7,
	"blog":            0.4,
	"social_media":    0.3,
	"unknown":         0.5,
}

// Recommendation buckets, ordered from most to least credible.
const (
	RecHighlyCredible    = "highly_credible"
	RecLikelyCredible    = "likely_credible"
	RecUncertain         = "uncertain"
	RecLikelyNotCredible = "likely_not_credible"
	RecNotCredible       = "not_credible"
)

// Assessment is the output of the claim credibility model. Breakdown always
// contains exactly the five named components, each rounded to 3 decimals.
type Assessment struct {
	OverallScore   float64            `json:"overall_score"`
	Confidence     float64            `json:"confidence"`
	Breakdown      map[string]float64 `json:"breakdown"`
	Recommendation string             `json:"recommendation"`
}

// Scorer evaluates source and claim credibility under a fixed weight table.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer using the default policy weights.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// SourceScore computes a source's credibility in [0,1] from its verdict
// history, verification volume, age, and category.
//
// A source with no verifications scores exactly the neutral 0.5: new sources
// default to unknown trust, not distrust or full trust. Otherwise the score
// combines a weighted accuracy rate over the history buckets with the
// category reputation, adjusted by an age multiplier (established sources get
// a small boost, very new ones a small penalty) and a log-dampened confidence
// multiplier that grows with verification volume.
func (s *Scorer) SourceScore(history map[string]int, verificationCount, ageDays int, category string) float64 {
	if verificationCount == 0 {
		return 0.5
	}

	total := 0
	for _, n := range history {
		total += n
	}
	accuracy := 0.5
	if total > 0 {
		weighted := float64(history[verdict.True])*1.0 +
			float64(history[verdict.Mixed])*0.5 +
			float64(history[verdict.Unverifiable])*0.3 +
			float64(history[verdict.False])*0.0
		accuracy = weighted / float64(total)
	}

	reputation, ok := categoryReputation[category]
	if !ok {
		reputation = 0.5
	}

	var recencyMultiplier float64
	switch {
	case ageDays > 365:
		recencyMultiplier = 1.1
	case ageDays > 180:
		recencyMultiplier = 1.0
	default:
		recencyMultiplier = 0.9
	}

	confidenceMultiplier := math.Min(1.0, math.Log10(float64(verificationCount)+1)/2)

	base := accuracy*s.weights.HistoricalAccuracy + reputation*s.weights.SourceReputation
	final := base * recencyMultiplier * (0.5 + 0.5*confidenceMultiplier)

	return clamp01(final)
}

// ClaimScore combines source credibility, fact-check consensus, corroboration
// count, and text complexity into one bounded assessment.
//
// An empty evidence set contributes the neutral 0.5 consensus. Corroboration
// saturates at five independent sources. The complexity component treats
// lower lexical diversity and shorter sentences as easier to verify; it is a
// heuristic proxy, not a correctness signal. The recency component is a fixed
// placeholder until timestamp-based computation lands.
func (s *Scorer) ClaimScore(sourceCredibility float64, factChecks []domain.FactCheck, corroborating int, complexity domain.Complexity) Assessment {
	factCheckScore := 0.5
	if len(factChecks) > 0 {
		sum := 0.0
		for _, fc := range factChecks {
			sum += verdict.Strength(fc.Verdict)
		}
		factCheckScore = sum / float64(len(factChecks))
	}

	corroborationScore := math.Min(1.0, float64(corroborating)/5.0)

	complexityScore := scoreComplexity(complexity)

	recencyScore := 0.8

	overall := clamp01(
		sourceCredibility*s.weights.SourceReputation +
			factCheckScore*s.weights.HistoricalAccuracy +
			corroborationScore*s.weights.Corroboration +
			complexityScore*s.weights.ClaimComplexity +
			recencyScore*s.weights.Recency,
	)

	return Assessment{
		OverallScore: round3(overall),
		Confidence:   confidence(len(factChecks), corroborating),
		Breakdown: map[string]float64{
			"source_credibility":   round3(sourceCredibility),
			"fact_check_consensus": round3(factCheckScore),
			"corroboration":        round3(corroborationScore),
			"complexity":           round3(complexityScore),
			"recency":              round3(recencyScore),
		},
		Recommendation: Recommend(overall),
	}
}

// BiasScore estimates directional bias in [-1,1] from sentiment. Strong
// polarity paired with high subjectivity amplifies the magnitude; the sign
// follows polarity.
func (s *Scorer) BiasScore(polarity, subjectivity float64) float64 {
	magnitude := math.Abs(polarity) * subjectivity
	v := polarity * magnitude
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Recommend buckets an overall score into one of the five recommendation
// labels under the fixed {0.8, 0.6, 0.4, 0.2} thresholds.
func Recommend(score float64) string {
	switch {
	case score >= 0.8:
		return RecHighlyCredible
	case score >= 0.6:
		return RecLikelyCredible
	case score >= 0.4:
		return RecUncertain
	case score >= 0.2:
		return RecLikelyNotCredible
	default:
		return RecNotCredible
	}
}

// scoreComplexity inverts the two normalized complexity metrics: simpler
// claims are easier to verify, hence a slightly higher component score.
func scoreComplexity(c domain.Complexity) float64 {
	diversityScore := 1.0 - math.Min(1.0, c.LexicalDiversity)
	lengthScore := 1.0 - math.Min(1.0, c.AvgSentenceLength/30.0)
	return (diversityScore + lengthScore) / 2
}

// confidence is a step function of the total number of data points backing
// the assessment. It is monotonically non-decreasing across the 0/2/5
// boundaries.
func confidence(factChecks, corroborating int) float64 {
	dataPoints := factChecks + corroborating
	switch {
	case dataPoints == 0:
		return 0.1
	case dataPoints <= 2:
		return 0.4
	case dataPoints <= 5:
		return 0.7
	default:
		return 0.9
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
