// Package domain – verification value types.
//
// These types are produced per verification pass. They are not independently
// persisted rows: the latest VerificationResult lives in the cache and every
// result is retained as JSON inside an append-only Snapshot.
package domain

import "time"

// FactCheck is a single provider's opinion on a claim. Ephemeral: produced
// per aggregation call; multiple records form the evidence set for one
// verification.
type FactCheck struct {
	Source      string    `json:"source"`
	Verdict     string    `json:"verdict"`
	Rating      float64   `json:"rating"`
	Explanation string    `json:"explanation,omitempty"`
	URL         string    `json:"url,omitempty"`
	Date        time.Time `json:"date,omitempty"`
}

// Entity is a named entity found in the claim text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Sentiment carries the extractor's sentiment signal.
// Polarity is in [-1,1], Subjectivity in [0,1].
type Sentiment struct {
	Polarity       float64 `json:"polarity"`
	Subjectivity   float64 `json:"subjectivity"`
	Classification string  `json:"classification"`
}

// Complexity carries the extractor's text-complexity signal. Only
// LexicalDiversity and AvgSentenceLength feed the credibility model; the
// remaining counts are kept for explainability.
type Complexity struct {
	NumSentences      int     `json:"num_sentences"`
	NumWords          int     `json:"num_words"`
	NumUniqueWords    int     `json:"num_unique_words"`
	AvgWordLength     float64 `json:"avg_word_length"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	LexicalDiversity  float64 `json:"lexical_diversity"`
}

// VerificationResult is the decision artifact for one verification pass.
// Superseded results are retained only in the temporal store, never mutated
// in place.
type VerificationResult struct {
	Verdict          string             `json:"verdict"`
	Confidence       float64            `json:"confidence"`
	Explanation      string             `json:"explanation"`
	FactChecks       []FactCheck        `json:"fact_checks"`
	Entities         []Entity           `json:"entities"`
	Sentiment        Sentiment          `json:"sentiment"`
	CredibilityScore float64            `json:"credibility_score"`
	Breakdown        map[string]float64 `json:"breakdown,omitempty"`
	Recommendation   string             `json:"recommendation,omitempty"`
	CheckedAt        time.Time          `json:"checked_at"`
}

// ClaimAnalysis is the read-only composition returned to callers: the claim,
// its latest verification, and (when temporal tracking is on) the ordered
// prior results, oldest first.
type ClaimAnalysis struct {
	Claim           Claim                `json:"claim"`
	Verification    VerificationResult   `json:"verification"`
	TemporalHistory []VerificationResult `json:"temporal_history,omitempty"`
}
