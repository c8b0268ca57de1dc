package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/httpx"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/orchestrate"
	"github.com/groundcheck/groundcheck/internal/quota"
	"github.com/groundcheck/groundcheck/internal/sourcecheck"
)

var (
	checkSource       string
	checkVerify       bool
	checkSourceLinks  bool
	checkTimeout      time.Duration
	checkSessionKey   string
	checkQuotaDirFlag string
)

// checkCmd submits text through the same rate-limited pipeline the
// watcher uses
var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Extract and verify claims from a file or stdin",
	Long: `Check reads response text from a file (or stdin when no file is
given), submits it to the analysis service for claim extraction and
optionally verifies each claim.

Requests go through the same per-session fixed-window quotas as the
watcher pipeline; quota state persists under ~/.groundcheck/quota.

Example:
  groundcheck check answer.txt
  groundcheck check answer.txt --verify
  cat answer.txt | groundcheck check --source claude`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkSource, "source", "chatgpt", "response origin (chatgpt, claude)")
	checkCmd.Flags().BoolVar(&checkVerify, "verify", false, "verify each extracted claim")
	checkCmd.Flags().BoolVar(&checkSourceLinks, "check-sources", false, "validate cited source URLs (implies --verify)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout")
	checkCmd.Flags().StringVar(&checkSessionKey, "session", "cli", "session key for quota accounting")
	checkCmd.Flags().StringVar(&checkQuotaDirFlag, "quota-dir", "", "quota state directory (default: ~/.groundcheck/quota)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := readCheckInput(args)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	httpOpts := httpx.Options{
		Timeout:    cfg.HTTP.Timeout,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}

	store, err := checkQuotaStore()
	if err != nil {
		return err
	}
	orch := orchestrate.NewOrchestrator(
		orchestrate.NewHTTPEndpoint(cfg.Service.BaseURL, cfg.HTTP.UserAgent, httpOpts),
		quota.NewLimiter(store, cfg.RateLimit.Extract.Max, cfg.RateLimit.Extract.Window()),
		quota.NewLimiter(store, cfg.RateLimit.Verify.Max, cfg.RateLimit.Verify.Window()),
	)

	outcome := orch.SubmitExtract(ctx, checkSessionKey, model.ExtractClaimsRequest{
		Text:   text,
		Source: checkSource,
	})

	switch outcome.Status {
	case orchestrate.Dismissed:
		fmt.Println("No checkable claims found.")
		return nil
	case orchestrate.RateLimited:
		return fmt.Errorf("extraction quota exceeded, retry later")
	case orchestrate.Errored:
		return fmt.Errorf("extraction failed: %w", outcome.Err)
	}

	fmt.Printf("Extracted %d claims:\n\n", len(outcome.Claims))
	for i, claim := range outcome.Claims {
		fmt.Printf("%2d. [%s, %.2f] %s\n", i+1, claim.Type, claim.Confidence, claim.Text)

		if !checkVerify && !checkSourceLinks {
			continue
		}
		verification, err := verifyOne(ctx, orch, claim)
		if err != nil {
			fmt.Printf("    verification failed: %v\n", err)
			continue
		}
		fmt.Printf("    → %s (confidence %.2f, %d sources)\n",
			verification.Status, verification.Confidence, len(verification.Sources))

		if checkSourceLinks && len(verification.Sources) > 0 {
			printSourceChecks(ctx, cfg.HTTP.UserAgent, httpOpts, verification.Sources)
		}
	}

	return nil
}

func verifyOne(ctx context.Context, orch *orchestrate.Orchestrator, claim model.Claim) (*model.VerificationResult, error) {
	outcome := orch.SubmitVerify(ctx, checkSessionKey, model.VerifyClaimRequest{
		ClaimID:   claim.ID,
		ClaimText: claim.Text,
		ClaimType: claim.Type,
	})
	if outcome.Status != orchestrate.Completed {
		return nil, outcome.Err
	}
	return outcome.Verification, nil
}

func printSourceChecks(ctx context.Context, userAgent string, httpOpts httpx.Options, sources []model.VerificationSource) {
	checker := sourcecheck.NewChecker(5, userAgent, httpOpts)
	for _, result := range checker.CheckSources(ctx, sources) {
		state := "dead"
		switch {
		case result.Blocked:
			state = "blocked by robots.txt"
		case result.IsAccessible && result.IsVeryStale:
			state = "accessible, very stale"
		case result.IsAccessible && result.IsStale:
			state = "accessible, stale"
		case result.IsAccessible:
			state = "accessible"
		}
		fmt.Printf("      %s - %s\n", result.URL, state)
	}
}

func readCheckInput(args []string) (string, error) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
	} else {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no input text")
	}
	return string(data), nil
}

func checkQuotaStore() (quota.Store, error) {
	dir := checkQuotaDirFlag
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		dir = filepath.Join(home, ".groundcheck", "quota")
	}
	return quota.NewFileStore(dir), nil
}
