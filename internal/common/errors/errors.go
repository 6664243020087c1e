// Package errors provides standardized error handling for the submission
// pipeline and its BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Automation blockers: never retried, always escalate to a human.
	ErrCodeCaptchaDetected ErrorCode = "CAPTCHA_DETECTED"
	ErrCodeMFARequired     ErrorCode = "MFA_REQUIRED"

	// Field-level automation failures.
	ErrCodeFieldNotFound ErrorCode = "FIELD_NOT_FOUND"
	ErrCodeUploadFailed  ErrorCode = "UPLOAD_FAILED"

	// Content gate: generated text rejected by Truth-Lock.
	ErrCodeContentRejected ErrorCode = "CONTENT_REJECTED"

	// Plan / match gating, consulted before any browser action.
	ErrCodeDailyLimitExceeded      ErrorCode = "DAILY_LIMIT_EXCEEDED"
	ErrCodeConcurrentLimitExceeded ErrorCode = "CONCURRENT_LIMIT_EXCEEDED"
	ErrCodeMatchScoreTooLow        ErrorCode = "MATCH_SCORE_TOO_LOW"

	// Site / browser failures.
	ErrCodeUnsupportedSite  ErrorCode = "UNSUPPORTED_SITE"
	ErrCodeNavigationFailed ErrorCode = "NAVIGATION_FAILED"
	ErrCodeSubmitFailed     ErrorCode = "SUBMIT_FAILED"
	ErrCodeBrowserError     ErrorCode = "BROWSER_ERROR"

	// Infrastructure.
	ErrCodeEvidenceUploadFailed ErrorCode = "EVIDENCE_UPLOAD_FAILED"
	ErrCodeResultPersistFailed  ErrorCode = "RESULT_PERSIST_FAILED"
	ErrCodeParseError           ErrorCode = "PARSE_ERROR"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from any error. Non-standard errors map to
// INTERNAL_ERROR so callers always classify on a known tag.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewCaptchaDetectedError creates a non-retryable blocker error carrying the page URL.
func NewCaptchaDetectedError(url string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCaptchaDetected,
		Message:   "CAPTCHA challenge detected on page",
		Details:   fmt.Sprintf("url: %s", url),
		Retryable: false,
		Metadata:  map[string]interface{}{"url": url},
		Timestamp: time.Now().UTC(),
	}
}

// NewMFARequiredError creates a non-retryable blocker error carrying the page URL.
func NewMFARequiredError(url string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMFARequired,
		Message:   "Multi-factor authentication required on page",
		Details:   fmt.Sprintf("url: %s", url),
		Retryable: false,
		Metadata:  map[string]interface{}{"url": url},
		Timestamp: time.Now().UTC(),
	}
}

// NewFieldNotFoundError creates a retryable field lookup error.
func NewFieldNotFoundError(fieldName, locator string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFieldNotFound,
		Message:   fmt.Sprintf("Field '%s' not found", fieldName),
		Details:   fmt.Sprintf("locator: %s", locator),
		Retryable: true,
		Metadata:  map[string]interface{}{"field": fieldName, "locator": locator},
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadFailedError creates a non-retryable upload error. A missing
// resume-upload field is fatal to the attempt.
func NewUploadFailedError(locator string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadFailed,
		Message:   "File upload failed",
		Details:   fmt.Sprintf("locator: %s, error: %s", locator, err.Error()),
		Retryable: false,
		Metadata:  map[string]interface{}{"locator": locator},
		Timestamp: time.Now().UTC(),
	}
}

// NewContentRejectedError creates a non-retryable Truth-Lock rejection
// carrying the full violation list for review.
func NewContentRejectedError(violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeContentRejected,
		Message:   "Generated content rejected by truth verification",
		Details:   strings.Join(violations, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"violations": violations},
		Timestamp: time.Now().UTC(),
	}
}

// NewDailyLimitExceededError creates a non-retryable plan gating error.
func NewDailyLimitExceededError(limit, count int) *StandardError {
	return &StandardError{
		Code:      ErrCodeDailyLimitExceeded,
		Message:   "Daily application limit reached",
		Details:   fmt.Sprintf("limit: %d, submitted today: %d", limit, count),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConcurrentLimitExceededError creates a non-retryable plan gating error.
func NewConcurrentLimitExceededError(limit, active int) *StandardError {
	return &StandardError{
		Code:      ErrCodeConcurrentLimitExceeded,
		Message:   "Concurrent submission limit reached",
		Details:   fmt.Sprintf("limit: %d, active: %d", limit, active),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchScoreTooLowError creates a non-retryable match gating error.
func NewMatchScoreTooLowError(score, minimum float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchScoreTooLow,
		Message:   "Match score below submission threshold",
		Details:   fmt.Sprintf("score: %.1f, minimum: %.1f", score, minimum),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedSiteError creates a non-retryable adapter selection error.
func NewUnsupportedSiteError(url string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedSite,
		Message:   "No adapter registered for this ATS",
		Details:   fmt.Sprintf("url: %s", url),
		Retryable: false,
		Metadata:  map[string]interface{}{"url": url},
		Timestamp: time.Now().UTC(),
	}
}

// NewNavigationFailedError creates a non-retryable navigation error.
func NewNavigationFailedError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNavigationFailed,
		Message:   "Browser navigation failed",
		Details:   fmt.Sprintf("url: %s, error: %s", url, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmitFailedError creates a non-retryable submit error. Retrying an
// already-clicked submit risks double submission.
func NewSubmitFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmitFailed,
		Message:   "Application submit action failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrowserError creates a non-retryable browser session error.
func NewBrowserError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrowserError,
		Message:   "Browser session error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEvidenceUploadFailedError creates a non-retryable evidence store error.
// Evidence failures degrade to missing evidence, not attempt failure.
func NewEvidenceUploadFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEvidenceUploadFailed,
		Message:   "Evidence upload failed",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: false,
		Metadata:  map[string]interface{}{"key": key},
		Timestamp: time.Now().UTC(),
	}
}

// NewResultPersistFailedError creates a retryable result store error.
func NewResultPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultPersistFailed,
		Message:   "Submission result persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unclassified failure. Treated conservatively as
// non-retryable so unsafe automation is never repeated blindly.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (identical).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCaptchaDetected:         "CAPTCHA_DETECTED",
	ErrCodeMFARequired:             "MFA_REQUIRED",
	ErrCodeFieldNotFound:           "FIELD_NOT_FOUND",
	ErrCodeUploadFailed:            "UPLOAD_FAILED",
	ErrCodeContentRejected:         "CONTENT_REJECTED",
	ErrCodeDailyLimitExceeded:      "DAILY_LIMIT_EXCEEDED",
	ErrCodeConcurrentLimitExceeded: "CONCURRENT_LIMIT_EXCEEDED",
	ErrCodeMatchScoreTooLow:        "MATCH_SCORE_TOO_LOW",
	ErrCodeUnsupportedSite:         "UNSUPPORTED_SITE",
	ErrCodeNavigationFailed:        "NAVIGATION_FAILED",
	ErrCodeSubmitFailed:            "SUBMIT_FAILED",
	ErrCodeBrowserError:            "BROWSER_ERROR",
	ErrCodeEvidenceUploadFailed:    "EVIDENCE_UPLOAD_FAILED",
	ErrCodeResultPersistFailed:     "RESULT_PERSIST_FAILED",
	ErrCodeParseError:              "PARSE_ERROR",
	ErrCodeInternal:                "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended queue-level retry count per code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeFieldNotFound:
		return 2 // Often a slow-loading DOM; bounded above the adapter's own retries

	case ErrCodeResultPersistFailed:
		return 3 // Transient database errors

	default:
		return 0 // Blockers, gating, content and unknown errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsBlockerCode reports whether the code is an automation blocker that a
// human must resolve.
func IsBlockerCode(code ErrorCode) bool {
	return code == ErrCodeCaptchaDetected || code == ErrCodeMFARequired
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case IsBlockerCode(code):
		return "BLOCKER"
	case strings.Contains(codeStr, "LIMIT") || code == ErrCodeMatchScoreTooLow:
		return "GATING"
	case code == ErrCodeContentRejected:
		return "CONTENT"
	case code == ErrCodeFieldNotFound || code == ErrCodeUploadFailed:
		return "FIELD"
	case strings.Contains(codeStr, "BROWSER") || strings.Contains(codeStr, "NAVIGATION") || code == ErrCodeSubmitFailed || code == ErrCodeUnsupportedSite:
		return "AUTOMATION"
	case strings.Contains(codeStr, "EVIDENCE") || strings.Contains(codeStr, "PERSIST"):
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}
