package model

// Wire schema shared by the HTTP service and its clients.

// MaxExtractTextLen caps extraction input to keep regex work bounded.
const MaxExtractTextLen = 50000

// MaxClaimTextLen caps a single claim submitted for verification.
const MaxClaimTextLen = 2000

// ExtractClaimsRequest asks the service to extract claims from text
type ExtractClaimsRequest struct {
	Text       string `json:"text"`
	Source     string `json:"source"` // "chatgpt" or "claude"
	ResponseID string `json:"responseId,omitempty"`
}

// ExtractClaimsResponse carries the extracted claims
type ExtractClaimsResponse struct {
	Claims         []Claim  `json:"claims"`
	ProcessingTime *float64 `json:"processingTime,omitempty"` // seconds
}

// VerifyClaimRequest asks the service to verify one extracted claim
type VerifyClaimRequest struct {
	ClaimID   string    `json:"claimId"`
	ClaimText string    `json:"claimText"`
	ClaimType ClaimType `json:"claimType"`
}

// VerifyClaimResponse carries the verification verdict for a claim
type VerifyClaimResponse struct {
	ClaimID      string             `json:"claimId"`
	Verification VerificationResult `json:"verification"`
}

// ValidSource reports whether s is a recognized response origin
func ValidSource(s string) bool {
	return s == "chatgpt" || s == "claude"
}
