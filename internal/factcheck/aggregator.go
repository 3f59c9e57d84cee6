package factcheck

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/verdict"
)

// Retry policy per provider call. Each provider gets up to maxAttempts
// attempts with exponential backoff starting at baseBackoff and capped at
// maxBackoff.
const (
	maxAttempts = 3
	baseBackoff = 2 * time.Second
	maxBackoff  = 10 * time.Second
)

// Aggregator fans a claim out to all configured providers concurrently and
// merges their evidence. A provider failure is logged and its contribution
// omitted; a single provider outage never fails the aggregation. The total
// wait is bounded by the slowest non-failing provider, each individually
// bounded by its own retry/backoff ceiling.
type Aggregator struct {
	providers []Provider
	enabled   bool
}

// NewAggregator builds an aggregator over the given providers. When enabled
// is false, Aggregate returns an empty evidence set without contacting any
// provider.
func NewAggregator(providers []Provider, enabled bool) *Aggregator {
	return &Aggregator{providers: providers, enabled: enabled}
}

// Aggregate collects normalized verdict records for the claim text from all
// providers. Results arrive in completion order; identical verdicts from
// different providers are deliberately kept as independent evidence.
func (a *Aggregator) Aggregate(ctx context.Context, claimText string) []domain.FactCheck {
	if !a.enabled || len(a.providers) == 0 {
		return []domain.FactCheck{}
	}

	type batch struct {
		provider string
		records  []domain.FactCheck
	}

	results := make(chan batch, len(a.providers))
	var wg sync.WaitGroup

	for _, p := range a.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			records, err := a.checkWithRetry(ctx, p, claimText)
			if err != nil {
				log.Warn().Err(err).Str("provider", p.Name()).Msg("fact-check provider failed, omitting from evidence")
				return
			}
			results <- batch{provider: p.Name(), records: records}
		}(p)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := []domain.FactCheck{}
	for b := range results {
		for _, fc := range b.records {
			// Providers that predate normalization may hand back raw
			// vocabulary; normalizing here keeps the contract airtight.
			fc.Verdict = verdict.Normalize(fc.Verdict)
			if fc.Source == "" {
				fc.Source = b.provider
			}
			out = append(out, fc)
		}
	}
	return out
}

// checkWithRetry runs one provider lookup with the package retry policy.
func (a *Aggregator) checkWithRetry(ctx context.Context, p Provider, claimText string) ([]domain.FactCheck, error) {
	backoff := baseBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		records, err := p.Check(ctx, claimText)
		if err == nil {
			return records, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		log.Debug().Err(err).Str("provider", p.Name()).Int("attempt", attempt).Msg("fact-check attempt failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return nil, lastErr
}
