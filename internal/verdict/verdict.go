// Package verdict defines the fixed verdict taxonomy and the normalization
// of arbitrary provider-reported verdict strings onto it.
//
// Fact-check providers disagree not only on judgments but on vocabulary
// ("Pants on Fire!", "Four Pinocchios", "mostly accurate"). Normalize maps
// any input string to exactly one taxonomy member via case-insensitive
// substring matching against curated term sets. It is pure and total: every
// string has a defined output and there is no error path.
package verdict

import "strings"

// Taxonomy members. These are the only verdict values that appear downstream
// of normalization.
const (
	True         = "true"
	MostlyTrue   = "mostly_true"
	Mixed        = "mixed"
	MostlyFalse  = "mostly_false"
	False        = "false"
	Unverifiable = "unverifiable"
)

var (
	trueTerms  = []string{"true", "correct", "accurate"}
	falseTerms = []string{"false", "incorrect", "inaccurate"}
	mixedTerms = []string{"mixed", "complicated"}
	partTerms  = []string{"mostly", "partly"}
)

// strengths maps each taxonomy member to its numeric rating in [0,1].
// Unverifiable sits at the neutral midpoint rather than zero: absence of
// evidence is not evidence of falsehood.
var strengths = map[string]float64{
	True:         1.0,
	MostlyTrue:   0.8,
	Mixed:        0.5,
	MostlyFalse:  0.2,
	False:        0.0,
	Unverifiable: 0.5,
}

// Normalize maps a raw provider verdict string to a taxonomy member.
// Matching is case-insensitive substring matching; a "mostly"/"partly"
// qualifier demotes the true and false families to their hedged variants.
// Anything unmatched is Unverifiable.
//
// Normalize is idempotent: taxonomy members normalize to themselves.
func Normalize(raw string) string {
	lower := strings.ToLower(raw)

	if containsAny(lower, trueTerms) {
		if containsAny(lower, partTerms) {
			return MostlyTrue
		}
		return True
	}
	if containsAny(lower, falseTerms) {
		if containsAny(lower, partTerms) {
			return MostlyFalse
		}
		return False
	}
	if containsAny(lower, mixedTerms) {
		return Mixed
	}
	return Unverifiable
}

// Strength returns the numeric rating for a taxonomy member. Unknown values
// (which normalization never produces) rate as the neutral 0.5.
func Strength(v string) float64 {
	if s, ok := strengths[v]; ok {
		return s
	}
	return 0.5
}

// Majority returns the most common verdict in the list, breaking exact ties
// by first-encountered order. An empty list yields Unverifiable.
func Majority(verdicts []string) string {
	if len(verdicts) == 0 {
		return Unverifiable
	}
	counts := make(map[string]int, len(verdicts))
	for _, v := range verdicts {
		counts[v]++
	}
	best := verdicts[0]
	for _, v := range verdicts {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
