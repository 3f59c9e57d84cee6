// Package factcheck aggregates verdicts from independent fact-check
// providers.
//
// Each provider is a swappable strategy object keyed by name behind the
// Provider interface: the aggregator neither knows nor cares whether a
// provider is a real HTTP API, a database of prior reviews, or a test fake.
// Provider responses are normalized onto the verdict taxonomy before they
// leave this package.
package factcheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
)

// Provider is one independent fact-check source.
//
// Check returns zero or more verdict records for the claim text. A nil, empty
// result with a nil error means the provider has no opinion. Implementations
// must honor ctx and be safe for concurrent use.
type Provider interface {
	// Name returns the provider name used in logs and evidence records.
	Name() string

	// Check looks up fact-check reviews for the claim text.
	Check(ctx context.Context, claimText string) ([]domain.FactCheck, error)
}

// Config holds provider construction settings.
type Config struct {
	// APIKey authenticates against the provider, where required.
	APIKey string

	// BaseURL overrides the provider's default endpoint (tests, proxies).
	BaseURL string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
}

// NewProvider constructs a provider by name. Supported: "google".
func NewProvider(name string, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "google", "googlefactcheck":
		return NewGoogleProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown fact-check provider: %s (supported: google)", name)
	}
}
