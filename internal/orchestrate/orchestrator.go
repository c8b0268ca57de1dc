// Package orchestrate turns finalized responses into rate-limited calls
// against the analysis service and maps replies to terminal outcomes.
package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/quota"
)

// OutcomeStatus is the terminal result of one submit
type OutcomeStatus string

const (
	// Completed means the service returned one or more items
	Completed OutcomeStatus = "completed"

	// Dismissed means the service succeeded but found nothing to show
	Dismissed OutcomeStatus = "dismissed"

	// RateLimited means the local quota denied the request before any
	// network call
	RateLimited OutcomeStatus = "rate_limited"

	// Errored covers validation, upstream and transport failures
	Errored OutcomeStatus = "errored"
)

// Outcome is the result of one submit. Exactly one of Claims or
// Verification is populated on Completed, depending on the request kind.
type Outcome struct {
	Status       OutcomeStatus
	Claims       []model.Claim
	Verification *model.VerificationResult
	Err          error
	Degraded     bool // the quota store failed and the check was fail-open
}

// Orchestrator guards the extraction and verification endpoints with
// independent quotas. Submits make exactly one attempt; callers retry by
// reprocessing the response upstream.
type Orchestrator struct {
	extractQuota *quota.Limiter
	verifyQuota  *quota.Limiter
	endpoint     Endpoint
}

// NewOrchestrator creates an orchestrator. The two limiters must be
// distinct instances so extraction and verification never share a counter.
func NewOrchestrator(endpoint Endpoint, extractQuota, verifyQuota *quota.Limiter) *Orchestrator {
	return &Orchestrator{
		extractQuota: extractQuota,
		verifyQuota:  verifyQuota,
		endpoint:     endpoint,
	}
}

// SubmitExtract sends a finalized response text for claim extraction
func (o *Orchestrator) SubmitExtract(ctx context.Context, sessionKey string, req model.ExtractClaimsRequest) Outcome {
	if err := validateExtract(req); err != nil {
		return Outcome{Status: Errored, Err: err}
	}

	// Kind-prefixed keys keep the two quotas apart even when the
	// limiters share one store
	check := o.extractQuota.Check("extract:" + sessionKey)
	if !check.Allowed {
		return Outcome{Status: RateLimited, Err: &Error{Kind: ErrRateLimited, Msg: "extraction quota exceeded"}}
	}

	var resp model.ExtractClaimsResponse
	outcome := o.call(ctx, "/api/extract-claims", req, &resp)
	outcome.Degraded = check.Degraded
	if outcome.Status != Completed {
		return outcome
	}

	if len(resp.Claims) == 0 {
		// Nothing to show is not an error
		outcome.Status = Dismissed
		return outcome
	}
	outcome.Claims = resp.Claims
	return outcome
}

// SubmitVerify sends one already-extracted claim for verification
func (o *Orchestrator) SubmitVerify(ctx context.Context, sessionKey string, req model.VerifyClaimRequest) Outcome {
	if err := validateVerify(req); err != nil {
		return Outcome{Status: Errored, Err: err}
	}

	check := o.verifyQuota.Check("verify:" + sessionKey)
	if !check.Allowed {
		return Outcome{Status: RateLimited, Err: &Error{Kind: ErrRateLimited, Msg: "verification quota exceeded"}}
	}

	var resp model.VerifyClaimResponse
	outcome := o.call(ctx, "/api/verify-claim", req, &resp)
	outcome.Degraded = check.Degraded
	if outcome.Status != Completed {
		return outcome
	}

	outcome.Verification = &resp.Verification
	return outcome
}

// EvictSession removes all quota state for a closed session
func (o *Orchestrator) EvictSession(sessionKey string) {
	o.extractQuota.Evict("extract:" + sessionKey)
	o.verifyQuota.Evict("verify:" + sessionKey)
}

// call issues exactly one request and decodes a success reply into out
func (o *Orchestrator) call(ctx context.Context, path string, body, out any) Outcome {
	resp, err := o.endpoint.Do(ctx, Request{Path: path, Body: body})
	if err != nil {
		return Outcome{Status: Errored, Err: &Error{Kind: ErrNetwork, Msg: "endpoint unreachable", Err: err}}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Outcome{Status: Errored, Err: &Error{
			Kind: ErrUpstream,
			Msg:  fmt.Sprintf("service returned %d", resp.StatusCode),
		}}
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return Outcome{Status: Errored, Err: &Error{Kind: ErrUpstream, Msg: "malformed service response", Err: err}}
	}
	return Outcome{Status: Completed}
}

func validateExtract(req model.ExtractClaimsRequest) error {
	if len(req.Text) == 0 || len(req.Text) > model.MaxExtractTextLen {
		return &Error{Kind: ErrValidation, Msg: fmt.Sprintf("text length must be 1..%d", model.MaxExtractTextLen)}
	}
	if !model.ValidSource(req.Source) {
		return &Error{Kind: ErrValidation, Msg: fmt.Sprintf("unknown source %q", req.Source)}
	}
	return nil
}

func validateVerify(req model.VerifyClaimRequest) error {
	if req.ClaimID == "" {
		return &Error{Kind: ErrValidation, Msg: "claimId is required"}
	}
	if len(req.ClaimText) == 0 || len(req.ClaimText) > model.MaxClaimTextLen {
		return &Error{Kind: ErrValidation, Msg: fmt.Sprintf("claim text length must be 1..%d", model.MaxClaimTextLen)}
	}
	if !req.ClaimType.Valid() {
		return &Error{Kind: ErrValidation, Msg: fmt.Sprintf("unknown claim type %q", req.ClaimType)}
	}
	return nil
}
