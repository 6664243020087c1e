// internal/workers/submission/submit-application/models.go
package submitapplication

import "applyflow/internal/models"

// Input is the job variable payload for one submission attempt.
type Input struct {
	ApplicationID   string                  `json:"applicationId"`
	Job             *models.Job             `json:"job"`
	ResumeFacts     *models.ResumeFacts     `json:"resumeFacts"`
	ApplicationData *models.ApplicationData `json:"applicationData"`
	Subscription    *models.Subscription    `json:"subscription"`
}

// Output is returned to the workflow on completion. MANUAL_NEEDED completes
// the job (the workflow branches on applicationStatus); only hard failures
// throw errors.
type Output struct {
	ApplicationStatus string   `json:"applicationStatus"`
	ConfirmationID    string   `json:"confirmationId,omitempty"`
	NeedsManual       bool     `json:"needsManual"`
	EvidenceKeys      []string `json:"evidenceKeys,omitempty"`
	AuditSteps        int      `json:"auditSteps"`
	ResultID          int64    `json:"resultId,omitempty"`
}

const (
	StatusSucceeded    = "SUCCEEDED"
	StatusManualNeeded = "MANUAL_NEEDED"
)
