// internal/ats/base.go
package ats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"applyflow/internal/browser"
	"applyflow/internal/common/config"
	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
	"applyflow/internal/common/metrics"
	"applyflow/internal/models"

	"github.com/google/uuid"
)

// EvidenceStore is the object-storage contract for screenshots. Keys are
// append-only; the pipeline never overwrites them.
type EvidenceStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// BaseAdapter gives every site adapter safe, retrying primitives instead of
// raw browser calls, and owns the audit recorder and evidence list for one
// attempt.
type BaseAdapter struct {
	appID    string
	siteName string
	page     browser.Page
	evidence EvidenceStore
	recorder *Recorder
	cfg      config.AutomationConfig
	logger   logger.Logger

	evidenceKeys []string
}

func NewBase(
	appID, siteName string,
	page browser.Page,
	evidence EvidenceStore,
	cfg config.AutomationConfig,
	log logger.Logger,
) *BaseAdapter {
	return &BaseAdapter{
		appID:    appID,
		siteName: siteName,
		page:     page,
		evidence: evidence,
		recorder: NewRecorder(cfg.ValuePreviewLen),
		cfg:      cfg,
		logger: log.WithFields(map[string]interface{}{
			"applicationId": appID,
			"site":          siteName,
		}),
	}
}

// Page exposes the underlying page for adapter-specific reads.
func (b *BaseAdapter) Page() browser.Page {
	return b.page
}

// AuditTrail returns a snapshot of the steps recorded so far. Partial trails
// are valid and must be preserved on every failure path.
func (b *BaseAdapter) AuditTrail() []models.AuditStep {
	return b.recorder.Steps()
}

// EvidenceKeys returns the evidence-store keys captured so far.
func (b *BaseAdapter) EvidenceKeys() []string {
	out := make([]string, len(b.evidenceKeys))
	copy(out, b.evidenceKeys)
	return out
}

// Record appends an adapter-level audit step (e.g. a submit confirmation).
func (b *BaseAdapter) Record(rec StepRecord) {
	b.recorder.Append(rec)
}

// Navigate loads the page and immediately checks for blockers.
func (b *BaseAdapter) Navigate(ctx context.Context, url string) error {
	if err := b.page.Navigate(ctx, url); err != nil {
		b.recorder.Append(StepRecord{Action: "navigate", Target: url, Error: err.Error()})
		return errors.NewNavigationFailedError(url, err)
	}
	b.recorder.Append(StepRecord{Action: "navigate", Target: url, Success: true})
	return b.CheckBlockers(ctx)
}

// retryBackoff is the pause between fill attempts, giving slow-rendering
// forms a moment to attach the node.
const retryBackoff = 250 * time.Millisecond

// FillField attempts the locator up to retries+1 times, each attempt bounded
// by FieldWaitTimeout. Exactly one terminal audit step is recorded per call.
// Exceeding the wait counts as "field not found", not a distinct timeout.
func (b *BaseAdapter) FillField(ctx context.Context, locator, value, fieldName string) error {
	var lastErr error
attempts:
	for attempt := 0; attempt <= b.cfg.FieldRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attempts
			}
		}

		lastErr = b.fillOnce(ctx, locator, value)
		if lastErr == nil {
			b.recorder.Append(StepRecord{
				Action:  "fill_field",
				Target:  locator,
				Value:   value,
				Success: true,
			})
			return nil
		}

		b.logger.Debug("field fill attempt failed", map[string]interface{}{
			"field":   fieldName,
			"locator": locator,
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})

		if ctx.Err() != nil {
			break
		}
	}

	b.recorder.Append(StepRecord{
		Action: "fill_field",
		Target: locator,
		Value:  value,
		Error:  fmt.Sprintf("field '%s' not found: %v", fieldName, lastErr),
	})
	return errors.NewFieldNotFoundError(fieldName, locator)
}

// fillOnce runs a single fill, bounded by the configured field wait so a
// never-appearing node cannot consume the whole attempt budget.
func (b *BaseAdapter) fillOnce(ctx context.Context, locator, value string) error {
	if b.cfg.FieldWaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.GetDuration(b.cfg.FieldWaitTimeout))
		defer cancel()
	}
	return b.page.Fill(ctx, locator, value)
}

// Click is best-effort and never fails the attempt: optional UI elements
// (cookie banners, "no thanks" dialogs) are expected to sometimes miss.
func (b *BaseAdapter) Click(ctx context.Context, locator, description string) bool {
	err := b.page.Click(ctx, locator)
	if err != nil {
		b.recorder.Append(StepRecord{
			Action: "click",
			Target: locator,
			Error:  fmt.Sprintf("%s: %v", description, err),
		})
		return false
	}
	b.recorder.Append(StepRecord{
		Action:  "click",
		Target:  locator,
		Value:   description,
		Success: true,
	})
	return true
}

// UploadFile attempts one upload and propagates failure after logging: a
// missing resume-upload field is fatal to the attempt.
func (b *BaseAdapter) UploadFile(ctx context.Context, locator, filePath string) error {
	if err := b.page.Upload(ctx, locator, filePath); err != nil {
		b.recorder.Append(StepRecord{
			Action: "upload_file",
			Target: locator,
			Value:  filePath,
			Error:  err.Error(),
		})
		return errors.NewUploadFailedError(locator, err)
	}
	b.recorder.Append(StepRecord{
		Action:  "upload_file",
		Target:  locator,
		Value:   filePath,
		Success: true,
	})
	return nil
}

// CaptureScreenshot pushes a full-page capture to the evidence store and
// returns the key. It never fails the attempt: a failed capture degrades to
// "no evidence for this step". The random suffix avoids key collisions
// across retries.
func (b *BaseAdapter) CaptureScreenshot(ctx context.Context, stepLabel string) string {
	key := fmt.Sprintf("%s/%s-%s.png", b.appID, stepLabel, uuid.NewString()[:8])

	shot, err := b.page.Screenshot(ctx)
	if err != nil {
		b.logger.Warn("screenshot capture failed", map[string]interface{}{
			"step":  stepLabel,
			"error": err.Error(),
		})
		metrics.EvidenceUploads.WithLabelValues("capture_failed").Inc()
		b.recorder.Append(StepRecord{
			Action: "screenshot_" + stepLabel,
			Error:  err.Error(),
		})
		return ""
	}

	if _, err := b.evidence.Upload(ctx, key, shot, "image/png"); err != nil {
		b.logger.Warn("evidence upload failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.EvidenceUploads.WithLabelValues("upload_failed").Inc()
		b.recorder.Append(StepRecord{
			Action: "screenshot_" + stepLabel,
			Error:  errors.NewEvidenceUploadFailedError(key, err).Error(),
		})
		return ""
	}

	metrics.EvidenceUploads.WithLabelValues("uploaded").Inc()
	b.evidenceKeys = append(b.evidenceKeys, key)
	b.recorder.Append(StepRecord{
		Action:      "screenshot_" + stepLabel,
		Success:     true,
		EvidenceKey: key,
	})
	return key
}

// CheckBlockers inspects the current page for CAPTCHA indicators, then MFA
// indicators. On a match it captures a labeled screenshot and returns the
// typed blocker error carrying the current URL.
func (b *BaseAdapter) CheckBlockers(ctx context.Context) error {
	html, err := b.page.HTML(ctx)
	if err != nil {
		// An unreadable page is not evidence of a blocker.
		b.logger.Warn("blocker check could not read page", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	kind, indicator, found := DetectBlocker(html)
	if !found {
		return nil
	}

	url, _ := b.page.Location(ctx)
	metrics.BlockersDetected.WithLabelValues(b.siteName, string(kind)).Inc()
	b.logger.Warn("automation blocker detected", map[string]interface{}{
		"kind":      string(kind),
		"indicator": indicator,
		"url":       url,
	})

	switch kind {
	case BlockerCaptcha:
		b.CaptureScreenshot(ctx, "captcha_detected")
		return errors.NewCaptchaDetectedError(url)
	default:
		b.CaptureScreenshot(ctx, "mfa_detected")
		return errors.NewMFARequiredError(url)
	}
}

// FullName is a convenience for adapters with a single name input.
func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
