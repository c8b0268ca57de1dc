package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/groundcheck/groundcheck/internal/httpx"
)

// DefaultFactCheckBaseURL is the Google Fact Check Tools search endpoint
const DefaultFactCheckBaseURL = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

const (
	googleMaxRetries     = 3
	googleInitialBackoff = time.Second
)

// googleSleepFunc is the sleep used between retries (injectable for tests)
var googleSleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// FactCheckHit is one publisher's review of a claim
type FactCheckHit struct {
	PublisherName string
	URL           string
	Rating        string
	PublishedDate *string
}

// GoogleClient queries the Google Fact Check Tools API with outbound
// pacing and transient-failure retry
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	pacer      *rate.Limiter
}

// NewGoogleClient creates a client. An empty API key is allowed; searches
// then return no hits instead of failing.
func NewGoogleClient(apiKey string, opts httpx.Options) *GoogleClient {
	return &GoogleClient{
		apiKey:     apiKey,
		baseURL:    DefaultFactCheckBaseURL,
		httpClient: httpx.NewClient(opts),
		pacer:      rate.NewLimiter(rate.Limit(5), 5),
	}
}

// SetBaseURL overrides the endpoint, for tests and proxies
func (c *GoogleClient) SetBaseURL(u string) {
	c.baseURL = u
}

// Search looks up fact-check reviews for a claim. Rate-limit and server
// errors are retried with exponential backoff; other client errors fail
// fast.
func (c *GoogleClient) Search(ctx context.Context, query string) ([]FactCheckHit, error) {
	if c.apiKey == "" {
		fmt.Fprintln(os.Stderr, "Warning: no fact-check API key configured, skipping lookup")
		return nil, nil
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("query", query)
	params.Set("languageCode", "en")
	reqURL := c.baseURL + "?" + params.Encode()

	backoff := googleInitialBackoff
	var lastErr error

	for attempt := 0; attempt < googleMaxRetries; attempt++ {
		hits, retryable, err := c.searchOnce(ctx, reqURL)
		if err == nil {
			return hits, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		if attempt < googleMaxRetries-1 {
			if err := googleSleepFunc(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}
	}

	return nil, lastErr
}

// searchOnce performs a single API call; retryable reports whether the
// failure is transient
func (c *GoogleClient) searchOnce(ctx context.Context, reqURL string) (hits []FactCheckHit, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fact-check request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("fact-check API status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fact-check API status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	hits, err = parseFactCheckResponse(body)
	if err != nil {
		return nil, false, err
	}
	return hits, false, nil
}

// API response shapes; fields the service does not use are omitted
type factCheckResponse struct {
	Claims []struct {
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
			} `json:"publisher"`
			URL           string  `json:"url"`
			TextualRating string  `json:"textualRating"`
			ReviewDate    *string `json:"reviewDate"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// parseFactCheckResponse tolerates missing fields in the API reply
func parseFactCheckResponse(body []byte) ([]FactCheckHit, error) {
	var parsed factCheckResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	var hits []FactCheckHit
	for _, claim := range parsed.Claims {
		for _, review := range claim.ClaimReview {
			name := review.Publisher.Name
			if name == "" {
				name = "Unknown"
			}
			rating := review.TextualRating
			if rating == "" {
				rating = "Unknown"
			}
			hits = append(hits, FactCheckHit{
				PublisherName: name,
				URL:           review.URL,
				Rating:        rating,
				PublishedDate: review.ReviewDate,
			})
		}
	}
	return hits, nil
}
