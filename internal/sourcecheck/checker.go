// Package sourcecheck validates that the publisher URLs cited in a
// verification result are still reachable and reasonably fresh.
package sourcecheck

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/groundcheck/groundcheck/internal/httpx"
	"github.com/groundcheck/groundcheck/internal/model"
)

const checkMaxRetries = 3

// checkSleepFunc is the sleep used between retries (injectable for tests)
var checkSleepFunc = time.Sleep

// Result is the accessibility report for one cited source
type Result struct {
	URL          string     `json:"url"`
	IsAccessible bool       `json:"isAccessible"`
	StatusCode   int        `json:"statusCode,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	AgeDays      *int       `json:"ageDays,omitempty"`
	IsStale      bool       `json:"isStale"`     // older than a year
	IsVeryStale  bool       `json:"isVeryStale"` // older than three years
	IsDead       bool       `json:"isDead"`      // 404, 410 or unreachable
	Blocked      bool       `json:"blocked"`     // robots.txt disallows fetching
	Error        string     `json:"error,omitempty"`
}

// Checker validates cited source URLs with bounded concurrency
type Checker struct {
	httpClient *http.Client
	robots     *robotsGate
	userAgent  string
	maxWorkers int
}

// NewChecker creates a checker
func NewChecker(maxWorkers int, userAgent string, opts httpx.Options) *Checker {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	client := httpx.NewClient(opts)

	return &Checker{
		httpClient: client,
		robots:     newRobotsGate(client, userAgent),
		userAgent:  userAgent,
		maxWorkers: maxWorkers,
	}
}

// CheckSources validates every source of a verification result
func (c *Checker) CheckSources(ctx context.Context, sources []model.VerificationSource) []Result {
	if len(sources) == 0 {
		return []Result{}
	}

	results := make([]Result, len(sources))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, source := range sources {
		wg.Add(1)
		go func(idx int, sourceURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = Result{URL: sourceURL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, sourceURL)
		}(i, source.URL)
	}

	wg.Wait()
	return results
}

// checkWithRetry retries transient failures with exponential backoff
func (c *Checker) checkWithRetry(ctx context.Context, sourceURL string) Result {
	var result Result
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		result = c.checkOne(ctx, sourceURL)
		if !isRetryable(result) {
			return result
		}
		if attempt < checkMaxRetries-1 {
			checkSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

// checkOne issues a single HEAD request for a source URL
func (c *Checker) checkOne(ctx context.Context, sourceURL string) Result {
	result := Result{URL: sourceURL}

	if !c.robots.allowed(ctx, sourceURL) {
		result.Blocked = true
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, sourceURL, nil)
	if err != nil {
		result.Error = err.Error()
		result.IsDead = true
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = err.Error()
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	} else if resp.StatusCode == 404 || resp.StatusCode == 410 {
		result.IsDead = true
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
			result.LastModified = &t
			ageDays := int(time.Since(t).Hours() / 24)
			result.AgeDays = &ageDays
			result.IsStale = ageDays > 365
			result.IsVeryStale = ageDays > 365*3
		}
	}

	return result
}

// isRetryable reports whether a result indicates a transient failure
func isRetryable(result Result) bool {
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.Error != "" {
		msg := strings.ToLower(result.Error)
		return strings.Contains(msg, "timeout") ||
			strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "connection reset")
	}
	return false
}
