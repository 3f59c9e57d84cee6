// Package nlp provides the linguistic signals the verification pipeline
// consumes: named entities, sentiment, text-complexity metrics, and the
// deterministic content hash used for claim deduplication.
//
// The package is deliberately small and dependency-free: it is a heuristic,
// deterministic stand-in defined behind the Extractor interface so a real
// NLP service can replace it without touching the orchestrator. Scores
// derived from these signals must therefore be read as proxies, not
// linguistic ground truth.
package nlp

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
)

// Extractor is the contract the verification pipeline consumes.
// Implementations must be deterministic and safe for concurrent use.
type Extractor interface {
	// Entities returns named entities found in text.
	Entities(text string) []domain.Entity
	// Sentiment returns polarity in [-1,1], subjectivity in [0,1], and a
	// positive/negative/neutral classification.
	Sentiment(text string) domain.Sentiment
	// Complexity returns text-complexity metrics.
	Complexity(text string) domain.Complexity
	// TextHash returns the content-addressed digest of normalized text.
	TextHash(text string) string
}

// Heuristic is the built-in rule-based Extractor.
type Heuristic struct{}

// NewHeuristic returns the built-in rule-based extractor.
func NewHeuristic() *Heuristic { return &Heuristic{} }

var (
	wordRE     = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’-][\p{L}\p{N}]+)*`)
	sentenceRE = regexp.MustCompile(`[.!?]+`)
	yearRE     = regexp.MustCompile(`^(1[5-9]\d{2}|20\d{2})$`)
	numberRE   = regexp.MustCompile(`^\d+(?:[.,]\d+)*%?$`)
)

// Small polarity lexicons. Enough to classify the tone of short social-media
// claims; not a general sentiment model.
var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "best": {}, "amazing": {},
	"positive": {}, "success": {}, "successful": {}, "win": {}, "wins": {},
	"safe": {}, "effective": {}, "proven": {}, "true": {}, "beneficial": {},
	"improve": {}, "improved": {}, "growth": {}, "strong": {}, "healthy": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "worst": {}, "awful": {}, "horrible": {},
	"negative": {}, "fail": {}, "fails": {}, "failed": {}, "failure": {},
	"dangerous": {}, "deadly": {}, "false": {}, "fake": {}, "hoax": {},
	"fraud": {}, "corrupt": {}, "crisis": {}, "disaster": {}, "toxic": {},
}

// Subjectivity markers: hedges, intensifiers, and opinion verbs.
var subjectiveWords = map[string]struct{}{
	"think": {}, "believe": {}, "feel": {}, "seems": {}, "probably": {},
	"maybe": {}, "very": {}, "really": {}, "extremely": {}, "totally": {},
	"clearly": {}, "obviously": {}, "definitely": {}, "should": {},
	"must": {}, "always": {}, "never": {}, "everyone": {}, "nobody": {},
}

// Entities extracts capitalized spans, years, and other numerals.
// Capitalized spans are reported as PROPN, years as DATE, numbers as
// CARDINAL. Sentence-initial capitalized words are kept: for short claims
// the leading token is often the subject, and a false positive is cheaper
// here than a miss.
func (h *Heuristic) Entities(text string) []domain.Entity {
	tokens := wordRE.FindAllString(text, -1)
	var out []domain.Entity

	var span []string
	flush := func() {
		if len(span) > 0 {
			out = append(out, domain.Entity{Text: strings.Join(span, " "), Label: "PROPN"})
			span = span[:0]
		}
	}

	for _, tok := range tokens {
		switch {
		case yearRE.MatchString(tok):
			flush()
			out = append(out, domain.Entity{Text: tok, Label: "DATE"})
		case numberRE.MatchString(tok):
			flush()
			out = append(out, domain.Entity{Text: tok, Label: "CARDINAL"})
		case isCapitalized(tok):
			span = append(span, tok)
		default:
			flush()
		}
	}
	flush()
	return out
}

// Sentiment scores polarity from the positive/negative lexicons and
// subjectivity from hedging/intensifier density. Classification uses the
// same ±0.1 neutral band the rest of the system expects.
func (h *Heuristic) Sentiment(text string) domain.Sentiment {
	tokens := wordRE.FindAllString(strings.ToLower(text), -1)

	pos, neg, subj := 0, 0, 0
	for _, tok := range tokens {
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
		if _, ok := subjectiveWords[tok]; ok {
			subj++
		}
	}

	polarity := 0.0
	if pos+neg > 0 {
		polarity = float64(pos-neg) / float64(pos+neg)
	}

	subjectivity := 0.0
	if len(tokens) > 0 {
		// Polar words are themselves subjective signals.
		subjectivity = math.Min(1.0, float64(subj+pos+neg)*3/float64(len(tokens)))
	}

	classification := "neutral"
	if polarity > 0.1 {
		classification = "positive"
	} else if polarity < -0.1 {
		classification = "negative"
	}

	return domain.Sentiment{
		Polarity:       polarity,
		Subjectivity:   round3(subjectivity),
		Classification: classification,
	}
}

// Complexity computes sentence/word counts, average word and sentence length,
// and lexical diversity (unique words over total words).
func (h *Heuristic) Complexity(text string) domain.Complexity {
	sentences := 0
	for _, part := range sentenceRE.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}

	tokens := wordRE.FindAllString(text, -1)
	unique := make(map[string]struct{}, len(tokens))
	totalLen := 0
	for _, tok := range tokens {
		unique[strings.ToLower(tok)] = struct{}{}
		totalLen += len(tok)
	}

	avgWordLen := 0.0
	diversity := 0.0
	if len(tokens) > 0 {
		avgWordLen = float64(totalLen) / float64(len(tokens))
		diversity = float64(len(unique)) / float64(len(tokens))
	}

	return domain.Complexity{
		NumSentences:      sentences,
		NumWords:          len(tokens),
		NumUniqueWords:    len(unique),
		AvgWordLength:     round2(avgWordLen),
		AvgSentenceLength: round2(float64(len(tokens)) / float64(sentences)),
		LexicalDiversity:  round3(diversity),
	}
}

// TextHash lowercases the text, collapses whitespace runs to single spaces,
// trims, then returns the hex sha256 digest. Two texts differing only by
// case or run-length whitespace hash identically.
func (h *Heuristic) TextHash(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func isCapitalized(tok string) bool {
	r := []rune(tok)
	return len(r) > 0 && unicode.IsUpper(r[0])
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
