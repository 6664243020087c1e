// internal/gates/matchscore.go
package gates

import (
	"applyflow/internal/common/errors"
	"applyflow/internal/models"
)

// CheckMatchScore rejects jobs scored below the configured floor. A floor
// of zero disables the gate.
func CheckMatchScore(job *models.Job, minimum float64) error {
	if minimum <= 0 {
		return nil
	}
	if job.MatchScore < minimum {
		return errors.NewMatchScoreTooLowError(job.MatchScore, minimum)
	}
	return nil
}
