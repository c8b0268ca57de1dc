package factcheck

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// baseConfidence is the confidence assigned to pattern matches
const baseConfidence = 0.6

// patternBank maps each claim type to the regexes that detect it
var patternBank = map[model.ClaimType][]*regexp.Regexp{
	model.ClaimTypeStatistical: {
		// Percentages: "75% of users", "increased by 50%"
		regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?%)\s*(?:of|increase|decrease|growth|decline)`),
		// Hedged quantities: "over 1 million users", "approximately 500"
		regexp.MustCompile(`(?i)\b(?:over|about|approximately|roughly|nearly|around)\s+(\d[\d,\.]*)\s+\w+`),
		// Possessive quantities: "has 2.5 billion users"
		regexp.MustCompile(`(?i)\b(?:has|have|had|with)\s+(\d[\d,\.]*)\s*(?:million|billion|thousand|users|people|customers)`),
	},
	model.ClaimTypeTemporal: {
		// Year references: "in 2024", "since 1999"
		regexp.MustCompile(`(?i)\b(?:in|since|from|during|by)\s+(\d{4})\b`),
		// Founding dates
		regexp.MustCompile(`(?i)\b(?:founded|established|created|launched|started)\s+(?:in\s+)?(\d{4})\b`),
		// Specific dates
		regexp.MustCompile(`(?i)\b(?:on|in)\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(?:,?\s+\d{4})?\b`),
	},
	model.ClaimTypeFactual: {
		// Superlatives: "is the first", "is the largest"
		regexp.MustCompile(`(?i)\b(?:is|are|was|were)\s+(?:the\s+)?(?:first|largest|smallest|biggest|oldest|newest|most|least|only)\b`),
		// Definitive roles: "is the capital of"
		regexp.MustCompile(`(?i)\b(?:is|are)\s+(?:the\s+)?(?:capital|founder|CEO|president|inventor|creator)\s+of\b`),
		// Location claims
		regexp.MustCompile(`(?i)\b(?:located|based|headquartered)\s+in\b`),
	},
	model.ClaimTypeAttribution: {
		regexp.MustCompile(`(?i)\baccording\s+to\s+`),
		regexp.MustCompile(`(?i)\b(?:reported|stated|announced|claimed|said)\s+(?:by|that)\b`),
		regexp.MustCompile(`(?i)\b(?:research|study|survey|report)\s+(?:by|from|shows|found)\b`),
	},
	model.ClaimTypeComparative: {
		regexp.MustCompile(`(?i)\b(?:better|worse|faster|slower|larger|smaller|more|less)\s+than\b`),
		regexp.MustCompile(`(?i)\b(?:ranked|ranks)\s+(?:#?\d+|first|second|third)\b`),
		regexp.MustCompile(`(?i)\b(?:outperforms?|exceeds?|surpasses?)\b`),
	},
}

// PatternExtractor extracts claims from text using regex pattern banks
type PatternExtractor struct{}

// NewPatternExtractor creates a pattern-based extractor
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

type patternMatch struct {
	start     int
	end       int
	claimType model.ClaimType
}

// Name returns the extractor name
func (e *PatternExtractor) Name() string {
	return "patterns"
}

// Extract finds checkable claims in text. Matches are expanded to their
// containing sentences; overlapping claims are deduplicated.
func (e *PatternExtractor) Extract(text string) []model.Claim {
	var matches []patternMatch

	for claimType, patterns := range patternBank {
		for _, pattern := range patterns {
			for _, loc := range pattern.FindAllStringIndex(text, -1) {
				matches = append(matches, patternMatch{
					start:     loc[0],
					end:       loc[1],
					claimType: claimType,
				})
			}
		}
	}

	claims := matchesToClaims(text, matches)
	return dedupeClaims(claims)
}

// matchesToClaims expands matches to full sentences
func matchesToClaims(text string, matches []patternMatch) []model.Claim {
	var claims []model.Claim
	seen := make(map[string]bool)

	for _, m := range matches {
		start := sentenceStart(text, m.start)
		end := sentenceEnd(text, m.end)
		sentence := strings.TrimSpace(text[start:end])

		if seen[sentence] {
			continue
		}
		seen[sentence] = true

		// Skip fragments and run-ons
		if len(sentence) < 10 || len(sentence) > 500 {
			continue
		}

		claims = append(claims, model.Claim{
			ID:           newClaimID(),
			Text:         sentence,
			Type:         m.claimType,
			Confidence:   baseConfidence,
			SourceOffset: &model.SourceOffset{Start: start, End: end},
		})
	}

	return claims
}

const sentenceEndings = ".!?\n"

func sentenceStart(text string, pos int) int {
	start := pos
	for start > 0 && !strings.ContainsRune(sentenceEndings, rune(text[start-1])) {
		start--
	}
	return start
}

func sentenceEnd(text string, pos int) int {
	end := pos
	for end < len(text) {
		if strings.ContainsRune(sentenceEndings, rune(text[end])) {
			end++ // include the terminator
			break
		}
		end++
	}
	return end
}

// dedupeClaims drops claims overlapping an earlier claim by more than
// half of the shorter one
func dedupeClaims(claims []model.Claim) []model.Claim {
	if len(claims) == 0 {
		return claims
	}

	sorted := make([]model.Claim, len(claims))
	copy(sorted, claims)
	sort.SliceStable(sorted, func(i, j int) bool {
		return offsetStart(sorted[i]) < offsetStart(sorted[j])
	})

	var result []model.Claim
	for _, claim := range sorted {
		duplicate := false
		for _, existing := range result {
			if claimsOverlap(claim, existing) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			result = append(result, claim)
		}
	}
	return result
}

func offsetStart(c model.Claim) int {
	if c.SourceOffset == nil {
		return 0
	}
	return c.SourceOffset.Start
}

func claimsOverlap(a, b model.Claim) bool {
	if a.SourceOffset == nil || b.SourceOffset == nil {
		return a.Text == b.Text
	}

	overlapStart := max(a.SourceOffset.Start, b.SourceOffset.Start)
	overlapEnd := min(a.SourceOffset.End, b.SourceOffset.End)
	if overlapEnd <= overlapStart {
		return false
	}

	overlap := overlapEnd - overlapStart
	lenA := a.SourceOffset.End - a.SourceOffset.Start
	lenB := b.SourceOffset.End - b.SourceOffset.Start
	return float64(overlap) > 0.5*float64(min(lenA, lenB))
}

// newClaimID generates a random claim identifier
func newClaimID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "claim-unknown"
	}
	return hex.EncodeToString(b[:])
}
