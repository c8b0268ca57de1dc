package model

// ClaimType categorizes the nature of an extracted claim
type ClaimType string

const (
	ClaimTypeFactual     ClaimType = "factual"     // Definitive statements ("is the largest", "is the capital of")
	ClaimTypeStatistical ClaimType = "statistical" // Numbers, percentages, quantities
	ClaimTypeAttribution ClaimType = "attribution" // "According to X", "reported by"
	ClaimTypeTemporal    ClaimType = "temporal"    // Dates and year references
	ClaimTypeComparative ClaimType = "comparative" // Comparisons and rankings
)

// Valid reports whether t is a recognized claim type
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeFactual, ClaimTypeStatistical, ClaimTypeAttribution,
		ClaimTypeTemporal, ClaimTypeComparative:
		return true
	}
	return false
}

// SourceOffset locates a claim within the source text
type SourceOffset struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Claim represents a single checkable assertion extracted from a response
type Claim struct {
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	Type         ClaimType     `json:"type"`
	Confidence   float64       `json:"confidence"` // 0..1
	SourceOffset *SourceOffset `json:"sourceOffset,omitempty"`
}
