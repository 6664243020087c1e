// internal/ats/classifier_test.go
package ats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"applyflow/internal/common/errors"
	"applyflow/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorAction
	}{
		{
			name: "captcha needs a human",
			err:  errors.NewCaptchaDetectedError("https://boards.greenhouse.io/acme/jobs/1"),
			want: models.ActionManualNeeded,
		},
		{
			name: "mfa needs a human",
			err:  errors.NewMFARequiredError("https://jobs.lever.co/acme/1"),
			want: models.ActionManualNeeded,
		},
		{
			name: "field not found is retryable",
			err:  errors.NewFieldNotFoundError("email", "#email"),
			want: models.ActionRetry,
		},
		{
			name: "daily limit skips",
			err:  errors.NewDailyLimitExceededError(10, 10),
			want: models.ActionSkip,
		},
		{
			name: "concurrent limit skips",
			err:  errors.NewConcurrentLimitExceededError(2, 2),
			want: models.ActionSkip,
		},
		{
			name: "low match score skips",
			err:  errors.NewMatchScoreTooLowError(35, 50),
			want: models.ActionSkip,
		},
		{
			name: "upload failure aborts",
			err:  errors.NewUploadFailedError("input[name='resume']", fmt.Errorf("boom")),
			want: models.ActionAbort,
		},
		{
			name: "submit failure aborts",
			err:  errors.NewSubmitFailedError(fmt.Errorf("no confirmation")),
			want: models.ActionAbort,
		},
		{
			name: "plain error aborts",
			err:  fmt.Errorf("something unexpected"),
			want: models.ActionAbort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassify_WrappedErrorKeepsCode(t *testing.T) {
	wrapped := fmt.Errorf("attempt 2: %w", errors.NewCaptchaDetectedError("https://example.com"))

	assert.Equal(t, models.ActionManualNeeded, Classify(wrapped))
}
