// internal/ats/classifier.go
package ats

import (
	"applyflow/internal/common/errors"
	"applyflow/internal/models"
)

// Classify maps a failure to its queue-level recovery action. It operates on
// the error code tag, never on error identity, and is consulted by the
// orchestrator only; adapters stay free of retry policy.
//
// Unclassified failures are conservatively ABORT: the system never guesses a
// riskier action for errors it cannot classify.
func Classify(err error) models.ErrorAction {
	switch errors.CodeOf(err) {
	case errors.ErrCodeCaptchaDetected, errors.ErrCodeMFARequired:
		// Cannot be resolved by this system; a human must act.
		return models.ActionManualNeeded

	case errors.ErrCodeFieldNotFound:
		// Often a slow-loading DOM; bounded by the adapter's own retries
		// before this is even reached.
		return models.ActionRetry

	case errors.ErrCodeDailyLimitExceeded,
		errors.ErrCodeConcurrentLimitExceeded,
		errors.ErrCodeMatchScoreTooLow:
		// Gating rejections: the queue skips without counting a failure.
		return models.ActionSkip

	default:
		return models.ActionAbort
	}
}
