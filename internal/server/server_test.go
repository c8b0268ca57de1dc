package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/groundcheck/groundcheck/internal/factcheck"
	"github.com/groundcheck/groundcheck/internal/model"
)

// stubChecker returns canned fact-check hits
type stubChecker struct {
	hits []factcheck.FactCheckHit
}

func (s *stubChecker) Search(context.Context, string) ([]factcheck.FactCheckHit, error) {
	return s.hits, nil
}

func newTestHandler(hits []factcheck.FactCheckHit) http.Handler {
	extractor := factcheck.NewPatternExtractor()
	verifier := factcheck.NewService(&stubChecker{hits: hits}, time.Hour)
	return NewServer("", extractor, verifier).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != Version {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestServer_ExtractClaims(t *testing.T) {
	handler := newTestHandler(nil)

	rec := postJSON(t, handler, "/api/extract-claims", model.ExtractClaimsRequest{
		Text:   "The company was founded in 1998. The tower is the tallest in Europe.",
		Source: "chatgpt",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp model.ExtractClaimsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Claims) == 0 {
		t.Error("expected extracted claims")
	}
	if resp.ProcessingTime == nil {
		t.Error("expected processing time")
	}
}

func TestServer_ExtractClaimsEmptyResult(t *testing.T) {
	handler := newTestHandler(nil)

	rec := postJSON(t, handler, "/api/extract-claims", model.ExtractClaimsRequest{
		Text:   "What a lovely day outside today.",
		Source: "claude",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Claims must serialize as [], not null
	if !strings.Contains(rec.Body.String(), `"claims":[]`) {
		t.Errorf("expected empty claims array, got %s", rec.Body.String())
	}
}

func TestServer_ExtractClaimsValidation(t *testing.T) {
	handler := newTestHandler(nil)

	cases := []model.ExtractClaimsRequest{
		{Text: "", Source: "chatgpt"},
		{Text: strings.Repeat("a", model.MaxExtractTextLen+1), Source: "chatgpt"},
		{Text: "valid", Source: "gemini"},
	}
	for i, req := range cases {
		rec := postJSON(t, handler, "/api/extract-claims", req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}

func TestServer_ExtractClaimsMalformedBody(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/extract-claims", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestServer_VerifyClaim(t *testing.T) {
	handler := newTestHandler([]factcheck.FactCheckHit{
		{PublisherName: "Snopes", URL: "https://snopes.com/x", Rating: "True"},
	})

	rec := postJSON(t, handler, "/api/verify-claim", model.VerifyClaimRequest{
		ClaimID:   "c1",
		ClaimText: "The Eiffel Tower is 330 meters tall",
		ClaimType: model.ClaimTypeStatistical,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp model.VerifyClaimResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ClaimID != "c1" {
		t.Errorf("expected claim id echoed back, got %q", resp.ClaimID)
	}
	if resp.Verification.Status != model.VerificationVerified {
		t.Errorf("expected verified, got %s", resp.Verification.Status)
	}
	if len(resp.Verification.Sources) != 1 {
		t.Errorf("expected one source, got %d", len(resp.Verification.Sources))
	}
}

func TestServer_VerifyClaimValidation(t *testing.T) {
	handler := newTestHandler(nil)

	cases := []model.VerifyClaimRequest{
		{ClaimID: "", ClaimText: "x", ClaimType: model.ClaimTypeFactual},
		{ClaimID: "c1", ClaimText: "", ClaimType: model.ClaimTypeFactual},
		{ClaimID: "c1", ClaimText: strings.Repeat("a", model.MaxClaimTextLen+1), ClaimType: model.ClaimTypeFactual},
		{ClaimID: "c1", ClaimText: "x", ClaimType: "opinion"},
	}
	for i, req := range cases {
		rec := postJSON(t, handler, "/api/verify-claim", req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}

func TestServer_StartStop(t *testing.T) {
	extractor := factcheck.NewPatternExtractor()
	verifier := factcheck.NewService(&stubChecker{}, time.Hour)
	s := NewServer("127.0.0.1:0", extractor, verifier)

	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("stop failed: %v", err)
	}
}
