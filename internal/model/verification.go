package model

// VerificationStatus is the aggregate verdict for a verified claim
type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationDisputed   VerificationStatus = "disputed"
	VerificationUnverified VerificationStatus = "unverified"
	VerificationError      VerificationStatus = "error"
)

// VerificationSource is a single fact-check publisher's verdict
type VerificationSource struct {
	Name          string  `json:"name"`
	URL           string  `json:"url"`
	Verdict       string  `json:"verdict"`
	PublishedDate *string `json:"publishedDate,omitempty"`
}

// VerificationResult aggregates fact-check sources into one verdict
type VerificationResult struct {
	Status     VerificationStatus   `json:"status"`
	Sources    []VerificationSource `json:"sources"`
	Confidence float64              `json:"confidence"`
	VerifiedAt string               `json:"verifiedAt"` // RFC 3339
}
