// internal/ats/base_test.go
package ats

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applyflow/internal/common/config"
	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
)

// ==========================
// Test Fakes
// ==========================

// fakePage scripts browser behavior per selector. Fields left nil mean the
// operation succeeds.
type fakePage struct {
	fillErrs    map[string]error
	fillCalls   map[string]int
	onFill      func()
	fillBlock   bool
	clickErrs   map[string]error
	uploadErr   error
	navigateErr error
	html        string
	texts       map[string]string
	location    string
	shot        []byte
	shotErr     error
}

func newFakePage() *fakePage {
	return &fakePage{
		fillErrs:  map[string]error{},
		fillCalls: map[string]int{},
		clickErrs: map[string]error{},
		texts:     map[string]string{},
		location:  "https://boards.greenhouse.io/acme/jobs/1",
		shot:      []byte("png-bytes"),
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error { return p.navigateErr }

func (p *fakePage) Fill(ctx context.Context, selector, value string) error {
	p.fillCalls[selector]++
	if p.onFill != nil {
		p.onFill()
	}
	if p.fillBlock {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.fillErrs[selector]
}

func (p *fakePage) Click(ctx context.Context, selector string) error { return p.clickErrs[selector] }

func (p *fakePage) Upload(ctx context.Context, selector, filePath string) error { return p.uploadErr }

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	if text, ok := p.texts[selector]; ok {
		return text, nil
	}
	return "", fmt.Errorf("no such node: %s", selector)
}

func (p *fakePage) HTML(ctx context.Context) (string, error) { return p.html, nil }

func (p *fakePage) Location(ctx context.Context) (string, error) { return p.location, nil }

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) { return p.shot, p.shotErr }

func (p *fakePage) Close() {}

// fakeEvidenceStore collects uploads in memory.
type fakeEvidenceStore struct {
	objects   map[string][]byte
	uploadErr error
}

func newFakeEvidenceStore() *fakeEvidenceStore {
	return &fakeEvidenceStore{objects: map[string][]byte{}}
}

func (s *fakeEvidenceStore) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.objects[key] = body
	return "https://evidence.local/" + key, nil
}

func (s *fakeEvidenceStore) Download(ctx context.Context, key string) ([]byte, error) {
	body, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("not found: %s", key)
	}
	return body, nil
}

func (s *fakeEvidenceStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func testAutomationConfig() config.AutomationConfig {
	return config.AutomationConfig{
		FieldRetries:     2,
		FieldWaitTimeout: 100,
		MaxFillAttempts:  3,
		ValuePreviewLen:  20,
	}
}

func newTestBase(page *fakePage, evidence EvidenceStore) *BaseAdapter {
	return NewBase("app-123", "greenhouse", page, evidence, testAutomationConfig(), logger.NewNoOpLogger())
}

// ==========================
// FillField Tests
// ==========================

func TestBaseAdapter_FillField_Success(t *testing.T) {
	page := newFakePage()
	base := newTestBase(page, newFakeEvidenceStore())

	err := base.FillField(context.Background(), "#email", "a@b.c", "email")

	assert.NoError(t, err)
	assert.Equal(t, 1, page.fillCalls["#email"])

	steps := base.AuditTrail()
	require.Len(t, steps, 1)
	assert.Equal(t, "fill_field", steps[0].Action)
	assert.True(t, steps[0].Success)
}

func TestBaseAdapter_FillField_RetriesThenFails(t *testing.T) {
	page := newFakePage()
	page.fillErrs["#email"] = fmt.Errorf("node not visible")
	base := newTestBase(page, newFakeEvidenceStore())

	err := base.FillField(context.Background(), "#email", "a@b.c", "email")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFieldNotFound, errors.CodeOf(err))
	// retries=2 means three total attempts.
	assert.Equal(t, 3, page.fillCalls["#email"])

	// Exactly one terminal audit step despite multiple attempts.
	steps := base.AuditTrail()
	require.Len(t, steps, 1)
	assert.False(t, steps[0].Success)
	assert.Contains(t, steps[0].Error, "email")
}

func TestBaseAdapter_FillField_TruncatesValueInAudit(t *testing.T) {
	page := newFakePage()
	base := newTestBase(page, newFakeEvidenceStore())

	long := strings.Repeat("x", 50)
	err := base.FillField(context.Background(), "#cover_letter_text", long, "cover letter")

	require.NoError(t, err)
	steps := base.AuditTrail()
	require.Len(t, steps, 1)
	assert.Len(t, steps[0].ValuePreview, 23) // 20 chars + "..."
}

func TestBaseAdapter_FillField_CancelledDuringBackoff(t *testing.T) {
	page := newFakePage()
	page.fillErrs["#email"] = fmt.Errorf("node not visible")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	page.onFill = func() { time.AfterFunc(20*time.Millisecond, cancel) }
	base := newTestBase(page, newFakeEvidenceStore())

	err := base.FillField(ctx, "#email", "a@b.c", "email")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFieldNotFound, errors.CodeOf(err))
	// Cancellation during the backoff wait ends the loop; the dead context
	// must not reach the page again.
	assert.Equal(t, 1, page.fillCalls["#email"])

	steps := base.AuditTrail()
	require.Len(t, steps, 1)
	assert.False(t, steps[0].Success)
}

func TestBaseAdapter_FillField_WaitTimeoutBoundsAttempt(t *testing.T) {
	page := newFakePage()
	page.fillBlock = true
	cfg := testAutomationConfig()
	cfg.FieldRetries = 0
	cfg.FieldWaitTimeout = 30
	base := NewBase("app-123", "greenhouse", page, newFakeEvidenceStore(), cfg, logger.NewNoOpLogger())

	start := time.Now()
	err := base.FillField(context.Background(), "#email", "a@b.c", "email")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFieldNotFound, errors.CodeOf(err))
	// The blocking fill is cut off by the field wait, not the caller.
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, page.fillCalls["#email"])
}

// ==========================
// Click / Upload Tests
// ==========================

func TestBaseAdapter_Click_MissIsNotFatal(t *testing.T) {
	page := newFakePage()
	page.clickErrs["#cookie-banner"] = fmt.Errorf("no such node")
	base := newTestBase(page, newFakeEvidenceStore())

	ok := base.Click(context.Background(), "#cookie-banner", "accept cookies")

	assert.False(t, ok)
	steps := base.AuditTrail()
	require.Len(t, steps, 1)
	assert.False(t, steps[0].Success)
}

func TestBaseAdapter_Click_Success(t *testing.T) {
	page := newFakePage()
	base := newTestBase(page, newFakeEvidenceStore())

	ok := base.Click(context.Background(), "#submit_app", "submit application")

	assert.True(t, ok)
	assert.True(t, base.AuditTrail()[0].Success)
}

func TestBaseAdapter_UploadFile_FailureIsFatal(t *testing.T) {
	page := newFakePage()
	page.uploadErr = fmt.Errorf("input not found")
	base := newTestBase(page, newFakeEvidenceStore())

	err := base.UploadFile(context.Background(), "input[name='resume']", "/tmp/resume.pdf")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUploadFailed, errors.CodeOf(err))
	assert.False(t, base.AuditTrail()[0].Success)
}

// ==========================
// Screenshot / Evidence Tests
// ==========================

func TestBaseAdapter_CaptureScreenshot_UploadsEvidence(t *testing.T) {
	page := newFakePage()
	evidence := newFakeEvidenceStore()
	base := newTestBase(page, evidence)

	key := base.CaptureScreenshot(context.Background(), "submitted")

	require.NotEmpty(t, key)
	assert.True(t, strings.HasPrefix(key, "app-123/submitted-"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Contains(t, evidence.objects, key)
	assert.Equal(t, []string{key}, base.EvidenceKeys())

	steps := base.AuditTrail()
	require.Len(t, steps, 1)
	assert.Equal(t, "screenshot_submitted", steps[0].Action)
	assert.Equal(t, key, steps[0].EvidenceKey)
}

func TestBaseAdapter_CaptureScreenshot_KeysAreUnique(t *testing.T) {
	page := newFakePage()
	base := newTestBase(page, newFakeEvidenceStore())

	first := base.CaptureScreenshot(context.Background(), "submitted")
	second := base.CaptureScreenshot(context.Background(), "submitted")

	assert.NotEqual(t, first, second)
}

func TestBaseAdapter_CaptureScreenshot_UploadFailureDegrades(t *testing.T) {
	page := newFakePage()
	evidence := newFakeEvidenceStore()
	evidence.uploadErr = fmt.Errorf("bucket unavailable")
	base := newTestBase(page, evidence)

	key := base.CaptureScreenshot(context.Background(), "submitted")

	assert.Empty(t, key)
	assert.Empty(t, base.EvidenceKeys())

	// The failure is still part of the causal history.
	steps := base.AuditTrail()
	require.Len(t, steps, 1)
	assert.False(t, steps[0].Success)
}

// ==========================
// Blocker Tests
// ==========================

func TestBaseAdapter_CheckBlockers_Captcha(t *testing.T) {
	page := newFakePage()
	page.html = `<div class="g-recaptcha"></div>`
	evidence := newFakeEvidenceStore()
	base := newTestBase(page, evidence)

	err := base.CheckBlockers(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCaptchaDetected, errors.CodeOf(err))
	// A labeled screenshot was captured before raising.
	require.Len(t, base.EvidenceKeys(), 1)
	assert.Contains(t, base.EvidenceKeys()[0], "captcha_detected")
}

func TestBaseAdapter_CheckBlockers_MFA(t *testing.T) {
	page := newFakePage()
	page.html = `<label>Enter the verification code</label>`
	base := newTestBase(page, newFakeEvidenceStore())

	err := base.CheckBlockers(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMFARequired, errors.CodeOf(err))
}

func TestBaseAdapter_CheckBlockers_CleanPage(t *testing.T) {
	page := newFakePage()
	page.html = `<form><input id="email"/></form>`
	base := newTestBase(page, newFakeEvidenceStore())

	assert.NoError(t, base.CheckBlockers(context.Background()))
	assert.Empty(t, base.AuditTrail())
}

// ==========================
// Navigate Tests
// ==========================

func TestBaseAdapter_Navigate_RecordsStepAndChecksBlockers(t *testing.T) {
	page := newFakePage()
	page.html = `<form></form>`
	base := newTestBase(page, newFakeEvidenceStore())

	err := base.Navigate(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")

	require.NoError(t, err)
	steps := base.AuditTrail()
	require.Len(t, steps, 1)
	assert.Equal(t, "navigate", steps[0].Action)
	assert.True(t, steps[0].Success)
}

func TestBaseAdapter_Navigate_Failure(t *testing.T) {
	page := newFakePage()
	page.navigateErr = fmt.Errorf("dns failure")
	base := newTestBase(page, newFakeEvidenceStore())

	err := base.Navigate(context.Background(), "https://unreachable.example")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNavigationFailed, errors.CodeOf(err))
	assert.False(t, base.AuditTrail()[0].Success)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Jordan Reyes", FullName("Jordan", "Reyes"))
	assert.Equal(t, "Jordan", FullName("Jordan", ""))
	assert.Equal(t, "Reyes", FullName("", "Reyes"))
	assert.Equal(t, "", FullName("", ""))
}
