// internal/orchestrator/orchestrator.go

// Package orchestrator composes gating, Truth-Lock verification, adapter
// selection, and browser automation into one end-to-end submission attempt.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"applyflow/internal/ats"
	"applyflow/internal/browser"
	"applyflow/internal/common/config"
	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
	"applyflow/internal/common/metrics"
	"applyflow/internal/common/observability"
	"applyflow/internal/gates"
	"applyflow/internal/models"
	"applyflow/internal/truthlock"
)

// BrowserFactory opens one page per attempt. Attempts never share a page.
type BrowserFactory interface {
	NewPage(ctx context.Context) (browser.Page, error)
}

// Request carries everything one submission attempt needs. All fields are
// treated as immutable for the attempt's duration.
type Request struct {
	ApplicationID string
	Job           *models.Job
	ResumeFacts   *models.ResumeFacts
	Data          *models.ApplicationData
	Subscription  *models.Subscription
}

// Orchestrator runs the per-attempt state machine:
// GATED, VERIFYING, DETECTING_ADAPTER, FILLING, BLOCKER_CHECK, SUBMITTING,
// then one of SUCCEEDED, FAILED, MANUAL_NEEDED.
type Orchestrator struct {
	browsers BrowserFactory
	evidence ats.EvidenceStore
	registry *ats.Registry
	planGate gates.PlanGate
	obs      *observability.Observability
	cfg      *config.Config
	logger   logger.Logger
}

func New(
	browsers BrowserFactory,
	evidence ats.EvidenceStore,
	registry *ats.Registry,
	planGate gates.PlanGate,
	obs *observability.Observability,
	cfg *config.Config,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		browsers: browsers,
		evidence: evidence,
		registry: registry,
		planGate: planGate,
		obs:      obs,
		cfg:      cfg,
		logger:   log,
	}
}

// SubmitApplication runs one complete attempt. It always returns a non-nil
// SubmissionResult; on failure paths the result carries the partial audit
// trail and evidence captured so far alongside the error.
func (o *Orchestrator) SubmitApplication(ctx context.Context, req *Request) (*models.SubmissionResult, error) {
	log := o.logger.WithFields(map[string]interface{}{
		"applicationId": req.ApplicationID,
		"jobId":         req.Job.ID,
	})
	start := time.Now()

	// GATED: plan and match-score checks run before any browser action, so
	// a rejection here produces no audit trail.
	if err := gates.CheckMatchScore(req.Job, o.cfg.Gates.MinMatchScore); err != nil {
		return failedResult(err), err
	}
	if err := o.planGate.CheckDailyLimit(ctx, req.Subscription); err != nil {
		return failedResult(err), err
	}
	if err := o.planGate.AcquireSlot(ctx, req.Subscription); err != nil {
		return failedResult(err), err
	}
	defer func() {
		if err := o.planGate.ReleaseSlot(context.WithoutCancel(ctx), req.Subscription); err != nil {
			log.Warn("failed to release concurrency slot", map[string]interface{}{"error": err.Error()})
		}
	}()

	// VERIFYING: Truth-Lock over the cover letter and every screening
	// answer. A violation rejects the content before the browser starts,
	// logged distinctly from automation failures.
	if err := o.verifyContent(req, log); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("none", "content_rejected").Inc()
		return failedResult(err), err
	}

	// DETECTING_ADAPTER: no match is not an automation failure; the
	// application is routed to a human.
	adapter, found := o.registry.Select(req.Job.URL)
	if !found {
		log.Info("no adapter for site, routing to manual submission", map[string]interface{}{
			"url": req.Job.URL,
		})
		metrics.SubmissionsTotal.WithLabelValues("none", "manual_needed").Inc()
		return &models.SubmissionResult{
			NeedsManual: true,
			Error:       errors.NewUnsupportedSiteError(req.Job.URL).Error(),
		}, nil
	}

	site := adapter.Name()
	log = log.WithFields(map[string]interface{}{"site": site})
	metrics.ActiveAttempts.Inc()
	defer metrics.ActiveAttempts.Dec()

	result, err := o.runAttempt(ctx, req, adapter, log)

	status := "failed"
	switch {
	case result.Success:
		status = "succeeded"
	case result.NeedsManual:
		status = "manual_needed"
	}
	metrics.SubmissionsTotal.WithLabelValues(site, status).Inc()
	metrics.AttemptDuration.WithLabelValues(site).Observe(time.Since(start).Seconds())
	o.obs.RecordAttempt(ctx, site, status)
	o.obs.RecordAttemptDuration(ctx, time.Since(start), status)

	if result.Success {
		if recErr := o.planGate.RecordSubmission(context.WithoutCancel(ctx), req.Subscription); recErr != nil {
			log.Warn("failed to record submission against daily limit", map[string]interface{}{
				"error": recErr.Error(),
			})
		}
	}

	return result, err
}

// runAttempt drives FILLING, BLOCKER_CHECK, and SUBMITTING against one
// freshly opened page. RETRY re-enters the fill loop on a clean page, up to
// the configured attempt cap.
func (o *Orchestrator) runAttempt(ctx context.Context, req *Request, adapter ats.Adapter, log logger.Logger) (*models.SubmissionResult, error) {
	maxAttempts := o.cfg.Automation.MaxFillAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	var lastBase *ats.BaseAdapter

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, base, err := o.attemptOnce(ctx, req, adapter, log, attempt)
		if err == nil {
			return result, nil
		}

		lastErr = err
		lastBase = base

		switch ats.Classify(err) {
		case models.ActionRetry:
			if attempt < maxAttempts {
				log.Warn("attempt failed with retryable error, restarting fill", map[string]interface{}{
					"attempt": attempt,
					"error":   err.Error(),
				})
				continue
			}
			// Retries exhausted: fall through to a terminal failure.
		case models.ActionManualNeeded:
			return resultFromAttempt(base, err, true), err
		}
		// ABORT, SKIP, or exhausted retries.
		return resultFromAttempt(base, err, false), err
	}

	return resultFromAttempt(lastBase, lastErr, false), lastErr
}

// attemptOnce opens a page, navigates, fills, re-checks blockers, and
// submits. The page is closed before returning; the audit trail and evidence
// keys survive in the returned base.
func (o *Orchestrator) attemptOnce(ctx context.Context, req *Request, adapter ats.Adapter, log logger.Logger, attempt int) (*models.SubmissionResult, *ats.BaseAdapter, error) {
	page, err := o.browsers.NewPage(ctx)
	if err != nil {
		return nil, nil, errors.NewBrowserError("open_page", err)
	}
	defer page.Close()

	base := ats.NewBase(req.ApplicationID, adapter.Name(), page, o.evidence, o.cfg.Automation, o.logger)

	log.Info("starting submission attempt", map[string]interface{}{"attempt": attempt})

	// Navigate includes the first blocker check.
	if err := base.Navigate(ctx, req.Job.URL); err != nil {
		o.finalScreenshot(ctx, base, "navigate_failed", err)
		return nil, base, err
	}

	if err := adapter.FillForm(ctx, base, req.Data); err != nil {
		o.finalScreenshot(ctx, base, "fill_failed", err)
		return nil, base, err
	}

	// BLOCKER_CHECK: a blocker that appeared during filling must be caught
	// before the submit click.
	if err := base.CheckBlockers(ctx); err != nil {
		return nil, base, err
	}

	result, err := adapter.Submit(ctx, base)
	if err != nil {
		o.finalScreenshot(ctx, base, "submit_failed", err)
		return nil, base, err
	}

	result.AuditTrail = base.AuditTrail()
	result.EvidenceKeys = base.EvidenceKeys()

	log.Info("submission succeeded", map[string]interface{}{
		"confirmationId": result.ConfirmationID,
		"auditSteps":     len(result.AuditTrail),
	})
	return result, base, nil
}

func (o *Orchestrator) verifyContent(req *Request, log logger.Logger) error {
	verify := func(label, text string) error {
		if text == "" {
			return nil
		}
		verdict, err := truthlock.VerifyOrReject(text, req.ResumeFacts, req.Job)
		if err != nil {
			log.Warn("generated content rejected", map[string]interface{}{
				"content":    label,
				"violations": verdict.Violations,
			})
			return err
		}
		if len(verdict.Warnings) > 0 {
			log.Info("generated content verified with warnings", map[string]interface{}{
				"content":  label,
				"warnings": verdict.Warnings,
			})
		}
		return nil
	}

	if err := verify("cover_letter", req.Data.CoverLetter); err != nil {
		return err
	}
	for questionID, answer := range req.Data.ScreeningAnswers {
		if err := verify(fmt.Sprintf("answer:%s", questionID), answer); err != nil {
			return err
		}
	}
	return nil
}

// finalScreenshot captures last-known page state on a failure path. Blocker
// failures skip it: CheckBlockers already captured a labeled screenshot.
func (o *Orchestrator) finalScreenshot(ctx context.Context, base *ats.BaseAdapter, label string, cause error) {
	if errors.IsBlockerCode(errors.CodeOf(cause)) {
		return
	}
	base.CaptureScreenshot(context.WithoutCancel(ctx), label)
}

func failedResult(err error) *models.SubmissionResult {
	return &models.SubmissionResult{Error: err.Error()}
}

// resultFromAttempt flushes whatever partial trail an attempt produced into
// a terminal result.
func resultFromAttempt(base *ats.BaseAdapter, err error, needsManual bool) *models.SubmissionResult {
	result := &models.SubmissionResult{NeedsManual: needsManual}
	if err != nil {
		result.Error = err.Error()
	}
	if base != nil {
		result.AuditTrail = base.AuditTrail()
		result.EvidenceKeys = base.EvidenceKeys()
	}
	return result
}
