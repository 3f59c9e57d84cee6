package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/verdict"
)

const googleDefaultBaseURL = "https://factchecktools.googleapis.com/v1alpha1"

// GoogleProvider queries the Google Fact Check Tools claims:search API.
// One API claim may carry several publisher reviews; each review becomes its
// own evidence record.
type GoogleProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider builds a provider from cfg, applying defaults for the
// endpoint and timeout.
func NewGoogleProvider(cfg Config) *GoogleProvider {
	base := cfg.BaseURL
	if base == "" {
		base = googleDefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleProvider{
		apiKey:  cfg.APIKey,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "Google Fact Check" }

// claimsSearchResponse mirrors the subset of the claims:search payload we
// consume.
type claimsSearchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// Check implements Provider. Publisher ratings are normalized onto the
// verdict taxonomy and rated by the taxonomy strength table.
func (p *GoogleProvider) Check(ctx context.Context, claimText string) ([]domain.FactCheck, error) {
	q := url.Values{}
	q.Set("query", claimText)
	q.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/claims:search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("claims:search returned %d: %s", resp.StatusCode, body)
	}

	var payload claimsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode claims:search response: %w", err)
	}

	var out []domain.FactCheck
	for _, c := range payload.Claims {
		for _, review := range c.ClaimReview {
			v := verdict.Normalize(review.TextualRating)
			source := review.Publisher.Name
			if source == "" {
				source = p.Name()
			}
			fc := domain.FactCheck{
				Source:      source,
				Verdict:     v,
				Rating:      verdict.Strength(v),
				Explanation: review.Title,
				URL:         review.URL,
			}
			if t, err := time.Parse(time.RFC3339, review.ReviewDate); err == nil {
				fc.Date = t
			}
			out = append(out, fc)
		}
	}
	return out, nil
}
