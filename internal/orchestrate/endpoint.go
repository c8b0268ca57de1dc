package orchestrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/groundcheck/groundcheck/internal/httpx"
)

// Request is one outbound analysis call
type Request struct {
	Path string // endpoint path, e.g. "/api/extract-claims"
	Body any    // JSON-encodable payload
}

// Response is the raw endpoint reply
type Response struct {
	StatusCode int
	Body       []byte
}

// Endpoint is the asynchronous request/response seam between the
// orchestrator and whatever transport carries analysis calls. A transport
// error is returned as err; a delivered non-success reply comes back as a
// Response with its status code.
type Endpoint interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// HTTPEndpoint posts JSON to the analysis service
type HTTPEndpoint struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewHTTPEndpoint creates an endpoint for the service at baseURL
func NewHTTPEndpoint(baseURL, userAgent string, opts httpx.Options) *HTTPEndpoint {
	return &HTTPEndpoint{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpx.NewClient(opts),
		userAgent:  userAgent,
	}
}

// Do executes a single request; it never retries
func (e *HTTPEndpoint) Do(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+req.Path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.userAgent != "" {
		httpReq.Header.Set("User-Agent", e.userAgent)
	}

	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
	}, nil
}
