package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/factcheck"
	"github.com/groundcheck/groundcheck/internal/httpx"
	"github.com/groundcheck/groundcheck/internal/server"
)

var serveAddr string

// serveCmd runs the analysis service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the claim extraction and verification HTTP service",
	Long: `Serve starts the analysis service consumed by the response-tracking
pipeline:

  POST /api/extract-claims   extract checkable claims from text
  POST /api/verify-claim     verify one extracted claim
  GET  /health               liveness probe

Example:
  groundcheck serve
  groundcheck serve --addr 127.0.0.1:9000
  GOOGLE_FACTCHECK_API_KEY=... groundcheck serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if serveAddr != "" {
		cfg.Service.Addr = serveAddr
	}

	extractor, err := factcheck.NewExtractor(cfg.LLM)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	httpOpts := httpx.Options{
		Timeout:    cfg.HTTP.Timeout,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
	checker := factcheck.NewGoogleClient(cfg.Service.GoogleAPIKey, httpOpts)
	verifier := factcheck.NewService(checker, time.Duration(cfg.Service.CacheTTLSeconds)*time.Second)

	srv := server.NewServer(cfg.Service.Addr, extractor, verifier)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	fmt.Fprintf(os.Stderr, "groundcheck service listening on %s\n", cfg.Service.Addr)
	if verbose {
		fmt.Fprintf(os.Stderr, "Extractor: %s\n", extractor.Name())
		fmt.Fprintf(os.Stderr, "Fact-check key configured: %v\n", cfg.Service.GoogleAPIKey != "")
	}

	// Block until interrupted
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Fprintln(os.Stderr, "shutting down")
	return srv.Stop()
}
