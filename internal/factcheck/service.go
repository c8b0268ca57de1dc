// Package factcheck implements the analysis service: pattern and LLM
// claim extraction plus verification against external fact-check
// publishers.
package factcheck

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Rating patterns that classify a publisher verdict. "unverified" and
// negated forms ("not verified", "never verified") must stay neutral, so
// truePatterns only matches bare "verified" and the negations are
// filtered separately (RE2 has no lookbehind).
var (
	truePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\btrue\b`),
		regexp.MustCompile(`\bcorrect\b`),
		regexp.MustCompile(`\baccurate\b`),
		regexp.MustCompile(`\bmostly true\b`),
	}
	bareVerified = regexp.MustCompile(`\bverified\b`)
	falsePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bfalse\b`),
		regexp.MustCompile(`\bincorrect\b`),
		regexp.MustCompile(`\binaccurate\b`),
		regexp.MustCompile(`\bmostly false\b`),
		regexp.MustCompile(`\bpants on fire\b`),
		regexp.MustCompile(`\bdisputed\b`),
		regexp.MustCompile(`\bmisleading\b`),
	}
	negatedVerified = regexp.MustCompile(`\b(?:not|never)\s+verified\b|\bun-?verified\b`)
)

// FactChecker is the upstream lookup the service verifies against
type FactChecker interface {
	Search(ctx context.Context, query string) ([]FactCheckHit, error)
}

// Service verifies claims against fact-check publishers, memoizing
// results per claim text
type Service struct {
	checker FactChecker
	cache   *VerificationCache
	now     func() time.Time
}

// NewService creates a verification service
func NewService(checker FactChecker, cacheTTL time.Duration) *Service {
	return &Service{
		checker: checker,
		cache:   NewVerificationCache(cacheTTL),
		now:     time.Now,
	}
}

// Verify looks up a claim and aggregates publisher verdicts into a single
// verification result. Upstream failures produce an error-status result,
// never a hard failure.
func (s *Service) Verify(ctx context.Context, claimText string) model.VerificationResult {
	if cached, found := s.cache.Get(claimText); found {
		return *cached
	}

	hits, err := s.checker.Search(ctx, claimText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: fact-check lookup failed: %v\n", err)
		return model.VerificationResult{
			Status:     model.VerificationError,
			Sources:    []model.VerificationSource{},
			Confidence: 0,
			VerifiedAt: s.now().UTC().Format(time.RFC3339),
		}
	}

	sources := make([]model.VerificationSource, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, model.VerificationSource{
			Name:          hit.PublisherName,
			URL:           hit.URL,
			Verdict:       hit.Rating,
			PublishedDate: hit.PublishedDate,
		})
	}

	status, confidence := aggregateVerdicts(sources)

	result := model.VerificationResult{
		Status:     status,
		Sources:    sources,
		Confidence: confidence,
		VerifiedAt: s.now().UTC().Format(time.RFC3339),
	}
	s.cache.Set(claimText, result)
	return result
}

// aggregateVerdicts folds publisher verdicts into one status. Agreement
// drives confidence; ties and unclassifiable ratings stay unverified.
func aggregateVerdicts(sources []model.VerificationSource) (model.VerificationStatus, float64) {
	if len(sources) == 0 {
		return model.VerificationUnverified, 0
	}

	trueCount := 0
	falseCount := 0
	for _, source := range sources {
		switch classifyVerdict(source.Verdict) {
		case model.VerificationVerified:
			trueCount++
		case model.VerificationDisputed:
			falseCount++
		}
	}

	if trueCount+falseCount == 0 {
		// Publishers reviewed it but no rating was classifiable
		return model.VerificationUnverified, 0.3
	}

	confidence := float64(max(trueCount, falseCount)) / float64(len(sources))

	switch {
	case trueCount > falseCount:
		return model.VerificationVerified, confidence
	case falseCount > trueCount:
		return model.VerificationDisputed, confidence
	default:
		return model.VerificationUnverified, 0.5
	}
}

// classifyVerdict maps a textual rating to verified, disputed, or
// unverified
func classifyVerdict(verdict string) model.VerificationStatus {
	rating := strings.ToLower(verdict)

	for _, p := range truePatterns {
		if p.MatchString(rating) {
			return model.VerificationVerified
		}
	}
	// "verified" counts only when not negated ("not verified",
	// "unverified" stay neutral)
	if bareVerified.MatchString(rating) && !negatedVerified.MatchString(rating) {
		return model.VerificationVerified
	}
	for _, p := range falsePatterns {
		if p.MatchString(rating) {
			return model.VerificationDisputed
		}
	}
	return model.VerificationUnverified
}
