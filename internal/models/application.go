// internal/models/application.go
package models

import "time"

// ApplicationData is the immutable input to a single submission attempt.
type ApplicationData struct {
	ResumeFileKey    string            `json:"resumeFileKey"`
	ResumeFilePath   string            `json:"resumeFilePath,omitempty"`
	CoverLetter      string            `json:"coverLetter,omitempty"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	LinkedInURL      string            `json:"linkedinUrl,omitempty"`
	PortfolioURL     string            `json:"portfolioUrl,omitempty"`
	ScreeningAnswers map[string]string `json:"screeningAnswers,omitempty"`
}

// AuditStep records one attempted automation action. Steps are created
// append-only and never mutated; their order is the attempt's causal history.
type AuditStep struct {
	Action       string    `json:"action"`
	Target       string    `json:"target,omitempty"`
	ValuePreview string    `json:"valuePreview,omitempty"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	EvidenceKey  string    `json:"evidenceKey,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// SubmissionResult is produced exactly once per submission attempt and is
// immutable once returned. NeedsManual=true implies Success=false.
type SubmissionResult struct {
	Success        bool        `json:"success"`
	ConfirmationID string      `json:"confirmationId,omitempty"`
	Error          string      `json:"error,omitempty"`
	NeedsManual    bool        `json:"needsManual"`
	AuditTrail     []AuditStep `json:"auditTrail"`
	EvidenceKeys   []string    `json:"evidenceKeys"`
}

// ErrorAction is the queue-level recovery action derived from a single
// failure event. Derived, never stored.
type ErrorAction string

const (
	ActionRetry        ErrorAction = "RETRY"
	ActionAbort        ErrorAction = "ABORT"
	ActionManualNeeded ErrorAction = "MANUAL_NEEDED"
	ActionSkip         ErrorAction = "SKIP"
)
