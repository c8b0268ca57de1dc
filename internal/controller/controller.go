// Package controller wires the watcher, orchestrator and indicator layers
// into the response-checking pipeline.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/groundcheck/groundcheck/internal/indicator"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/orchestrate"
	"github.com/groundcheck/groundcheck/internal/watch"
)

// Options configures a controller
type Options struct {
	SessionKey string        // originating session identifier for quota keys
	Source     string        // "chatgpt" or "claude"
	Debounce   time.Duration // quiescence period before finalize
	KeyAttr    string        // host attribute carrying stable block ids
	Timeout    time.Duration // per-submit deadline
}

// Controller drives responses from finalize through analysis to a
// terminal indicator state. Each response reaches exactly one terminal
// state per episode even when completions arrive out of order.
type Controller struct {
	opts       Options
	watcher    *watch.Watcher
	orch       *orchestrate.Orchestrator
	indicators *indicator.Manager

	mu      sync.Mutex
	epochs  map[string]int // bumped on reprocess/remove; stale outcomes are discarded
	stopped bool
}

// New creates a controller around an orchestrator and indicator manager
func New(opts Options, orch *orchestrate.Orchestrator, indicators *indicator.Manager) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	c := &Controller{
		opts:       opts,
		orch:       orch,
		indicators: indicators,
		epochs:     make(map[string]int),
	}
	c.watcher = watch.NewWatcher(opts.Debounce, opts.KeyAttr, watch.Callbacks{
		OnStart:    c.onStart,
		OnComplete: c.onComplete,
		OnError:    c.onError,
	})
	return c
}

// Start begins observing the tree
func (c *Controller) Start(tree watch.Tree, classifier watch.Classifier, extractor watch.Extractor) error {
	return c.watcher.Start(tree, classifier, extractor)
}

// Stop halts observation. Outcomes of submissions still in flight are
// dropped.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.watcher.Stop()
}

// Reprocess restarts the lifecycle for a response so the user can retry
// after an error or rate-limit denial
func (c *Controller) Reprocess(id string) {
	c.mu.Lock()
	c.epochs[id]++
	c.mu.Unlock()

	c.indicators.Remove(id)
	c.watcher.Reprocess(id)
}

// Remove drops a response's indicator and invalidates any in-flight
// submission for it
func (c *Controller) Remove(id string) {
	c.mu.Lock()
	c.epochs[id]++
	c.mu.Unlock()

	c.indicators.Remove(id)
}

// VerifyClaim verifies one claim of a completed response through the
// verification quota and endpoint
func (c *Controller) VerifyClaim(ctx context.Context, claim model.Claim) (*model.VerificationResult, error) {
	outcome := c.orch.SubmitVerify(ctx, c.opts.SessionKey, model.VerifyClaimRequest{
		ClaimID:   claim.ID,
		ClaimText: claim.Text,
		ClaimType: claim.Type,
	})

	switch outcome.Status {
	case orchestrate.Completed:
		return outcome.Verification, nil
	case orchestrate.RateLimited, orchestrate.Errored:
		return nil, outcome.Err
	default:
		return nil, fmt.Errorf("unexpected verify outcome %q", outcome.Status)
	}
}

func (c *Controller) onStart(id string) {
	c.indicators.Begin(id)
}

func (c *Controller) onError(id string, err error) {
	c.indicators.Fail(id, err.Error(), false)
}

// onComplete runs while the watcher holds its lock, so the submit hops to
// a goroutine before doing any network work
func (c *Controller) onComplete(id, text string) {
	c.mu.Lock()
	epoch := c.epochs[id]
	stopped := c.stopped
	c.mu.Unlock()
	if stopped {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		defer cancel()

		outcome := c.orch.SubmitExtract(ctx, c.opts.SessionKey, model.ExtractClaimsRequest{
			Text:       text,
			Source:     c.opts.Source,
			ResponseID: id,
		})
		c.apply(id, epoch, outcome)
	}()
}

// apply maps an outcome onto the indicator unless the response was
// removed or reprocessed while the submission was outstanding
func (c *Controller) apply(id string, epoch int, outcome orchestrate.Outcome) {
	c.mu.Lock()
	stale := c.stopped || c.epochs[id] != epoch
	c.mu.Unlock()
	if stale {
		return
	}

	switch outcome.Status {
	case orchestrate.Completed:
		c.indicators.Complete(id, outcome.Claims)
	case orchestrate.Dismissed:
		c.indicators.Dismiss(id)
	case orchestrate.RateLimited:
		c.indicators.Fail(id, "request quota exceeded, retry later", true)
	case orchestrate.Errored:
		reason := "analysis failed"
		if outcome.Err != nil {
			reason = outcome.Err.Error()
		}
		c.indicators.Fail(id, reason, false)
	}
}

// CloseSession drops the session's quota state when its tab or window
// goes away
func (c *Controller) CloseSession() {
	c.orch.EvictSession(c.opts.SessionKey)
}

// Indicators exposes the indicator manager for UI layers
func (c *Controller) Indicators() *indicator.Manager {
	return c.indicators
}
