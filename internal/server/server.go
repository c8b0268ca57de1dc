// Package server exposes the analysis service over HTTP: claim
// extraction, claim verification and a health probe.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/groundcheck/groundcheck/internal/factcheck"
	"github.com/groundcheck/groundcheck/internal/model"
)

// Version is the service version reported by the health endpoint
const Version = "0.1.0"

// Server serves the extraction and verification API
type Server struct {
	addr      string
	extractor factcheck.Extractor
	verifier  *factcheck.Service
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewServer creates an API server around the given analysis components
func NewServer(addr string, extractor factcheck.Extractor, verifier *factcheck.Service) *Server {
	if addr == "" {
		addr = "127.0.0.1:8090"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		extractor: extractor,
		verifier:  verifier,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Handler builds the route table; split out so tests can drive it with
// httptest
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.POST("/api/extract-claims", s.handleExtractClaims)
	r.POST("/api/verify-claim", s.handleVerifyClaim)

	return r
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	go func() { _ = s.server.Serve(listener) }()
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "groundcheck-factcheck",
		"version": Version,
	})
}

func (s *Server) handleExtractClaims(c *gin.Context) {
	var req model.ExtractClaimsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if len(req.Text) == 0 || len(req.Text) > model.MaxExtractTextLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("text length must be 1..%d", model.MaxExtractTextLen)})
		return
	}
	if !model.ValidSource(req.Source) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be \"chatgpt\" or \"claude\""})
		return
	}

	started := time.Now()
	claims, err := s.extractor.ExtractClaims(c.Request.Context(), req.Text)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "claim extraction failed"})
		return
	}
	if claims == nil {
		claims = []model.Claim{}
	}

	elapsed := time.Since(started).Seconds()
	c.JSON(http.StatusOK, model.ExtractClaimsResponse{
		Claims:         claims,
		ProcessingTime: &elapsed,
	})
}

func (s *Server) handleVerifyClaim(c *gin.Context) {
	var req model.VerifyClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.ClaimID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claimId is required"})
		return
	}
	if len(req.ClaimText) == 0 || len(req.ClaimText) > model.MaxClaimTextLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("claim text length must be 1..%d", model.MaxClaimTextLen)})
		return
	}
	if !req.ClaimType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown claim type"})
		return
	}

	verification := s.verifier.Verify(c.Request.Context(), req.ClaimText)
	c.JSON(http.StatusOK, model.VerifyClaimResponse{
		ClaimID:      req.ClaimID,
		Verification: verification,
	})
}
