// internal/ats/audit.go
package ats

import (
	"time"

	"applyflow/internal/models"
)

// Recorder is the append-only audit log for one submission attempt. It is
// exclusively owned by that attempt; steps are never mutated after creation
// and their order is the attempt's causal history.
type Recorder struct {
	steps      []models.AuditStep
	previewLen int
}

// StepRecord is the input for one audit entry. Value is truncated to the
// configured preview length so full secrets and PII never reach logs.
type StepRecord struct {
	Action      string
	Target      string
	Value       string
	Success     bool
	Error       string
	EvidenceKey string
}

func NewRecorder(previewLen int) *Recorder {
	if previewLen <= 0 {
		previewLen = 20
	}
	return &Recorder{previewLen: previewLen}
}

func (r *Recorder) Append(rec StepRecord) {
	r.steps = append(r.steps, models.AuditStep{
		Action:       rec.Action,
		Target:       rec.Target,
		ValuePreview: truncate(rec.Value, r.previewLen),
		Success:      rec.Success,
		Error:        rec.Error,
		EvidenceKey:  rec.EvidenceKey,
		Timestamp:    time.Now().UTC(),
	})
}

// Steps returns a snapshot copy; callers can never mutate the recorder.
func (r *Recorder) Steps() []models.AuditStep {
	out := make([]models.AuditStep, len(r.steps))
	copy(out, r.steps)
	return out
}

func (r *Recorder) Len() int {
	return len(r.steps)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
