// internal/ats/workable.go
package ats

import (
	"context"
	"fmt"
	"strings"

	"applyflow/internal/common/errors"
	"applyflow/internal/models"
)

// WorkableAdapter drives the hosted Workable form (apply.workable.com),
// which keys its inputs by data-ui attributes rather than names.
type WorkableAdapter struct{}

func NewWorkableAdapter() *WorkableAdapter {
	return &WorkableAdapter{}
}

func (a *WorkableAdapter) Name() string {
	return "workable"
}

func (a *WorkableAdapter) Detect(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "apply.workable.com") ||
		strings.Contains(lower, ".workable.com/jobs/")
}

func (a *WorkableAdapter) FillForm(ctx context.Context, base *BaseAdapter, data *models.ApplicationData) error {
	base.Click(ctx, "[data-ui='cookie-consent-accept']", "accept cookies")

	if err := base.FillField(ctx, "input[data-ui='firstname']", data.FirstName, "first name"); err != nil {
		return err
	}
	if err := base.FillField(ctx, "input[data-ui='lastname']", data.LastName, "last name"); err != nil {
		return err
	}
	if err := base.FillField(ctx, "input[data-ui='email']", data.Email, "email"); err != nil {
		return err
	}
	if data.Phone != "" {
		if err := base.FillField(ctx, "input[data-ui='phone']", data.Phone, "phone"); err != nil {
			return err
		}
	}

	if err := base.UploadFile(ctx, "input[data-ui='resume'] input[type='file'], input[type='file']", data.ResumeFilePath); err != nil {
		return err
	}

	if data.CoverLetter != "" {
		if err := base.FillField(ctx, "textarea[data-ui='cover_letter']", data.CoverLetter, "cover letter"); err != nil {
			return err
		}
	}

	for questionID, answer := range data.ScreeningAnswers {
		locator := fmt.Sprintf("[data-ui='%s']", questionID)
		if err := base.FillField(ctx, locator, answer, "screening question "+questionID); err != nil {
			return err
		}
	}

	return nil
}

func (a *WorkableAdapter) Submit(ctx context.Context, base *BaseAdapter) (*models.SubmissionResult, error) {
	if ok := base.Click(ctx, "button[data-ui='apply-button']", "submit application"); !ok {
		return nil, errors.NewSubmitFailedError(fmt.Errorf("submit button not clickable"))
	}

	confirmation, err := base.Page().Text(ctx, "[data-ui='application-confirmation']")
	if err != nil || strings.TrimSpace(confirmation) == "" {
		body, bodyErr := base.Page().Text(ctx, "body")
		if bodyErr != nil || !strings.Contains(strings.ToLower(body), "thank you") {
			return nil, errors.NewSubmitFailedError(fmt.Errorf("no post-submit confirmation"))
		}
		base.Record(StepRecord{Action: "click_submit", Value: "confirmation_missing=true", Success: true})
		base.CaptureScreenshot(ctx, "submitted")
		return &models.SubmissionResult{Success: true}, nil
	}

	base.Record(StepRecord{Action: "click_submit", Value: confirmation, Success: true})
	base.CaptureScreenshot(ctx, "submitted")

	return &models.SubmissionResult{
		Success:        true,
		ConfirmationID: strings.TrimSpace(confirmation),
	}, nil
}
