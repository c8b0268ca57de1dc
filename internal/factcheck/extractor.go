package factcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Extractor produces claims from response text
type Extractor interface {
	// Name returns the extractor name
	Name() string

	// ExtractClaims finds checkable claims in text
	ExtractClaims(ctx context.Context, text string) ([]model.Claim, error)
}

// ExtractClaims implements Extractor; pattern matching never fails
func (e *PatternExtractor) ExtractClaims(_ context.Context, text string) ([]model.Claim, error) {
	return e.Extract(text), nil
}

// NewExtractor creates the extractor for the configured provider. An LLM
// provider is wrapped so any failure falls back to pattern matching.
func NewExtractor(cfg model.LLMConfig) (Extractor, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return NewPatternExtractor(), nil

	case "openai":
		llm, err := NewOpenAIExtractor(cfg)
		if err != nil {
			return nil, err
		}
		return &fallbackExtractor{primary: llm, fallback: NewPatternExtractor()}, nil

	default:
		return nil, fmt.Errorf("unknown extractor provider: %s (supported: openai)", cfg.Provider)
	}
}

// fallbackExtractor tries the primary extractor and falls back when it
// errors, so an unreachable LLM never blocks extraction
type fallbackExtractor struct {
	primary  Extractor
	fallback Extractor
}

func (f *fallbackExtractor) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

func (f *fallbackExtractor) ExtractClaims(ctx context.Context, text string) ([]model.Claim, error) {
	claims, err := f.primary.ExtractClaims(ctx, text)
	if err != nil {
		return f.fallback.ExtractClaims(ctx, text)
	}
	return claims, nil
}
