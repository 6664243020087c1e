// internal/ats/lever.go
package ats

import (
	"context"
	"fmt"
	"strings"

	"applyflow/internal/common/errors"
	"applyflow/internal/models"
)

// LeverAdapter drives the hosted Lever application form (jobs.lever.co).
// Lever uses a single combined name field and url-keyed profile inputs.
type LeverAdapter struct{}

func NewLeverAdapter() *LeverAdapter {
	return &LeverAdapter{}
}

func (a *LeverAdapter) Name() string {
	return "lever"
}

func (a *LeverAdapter) Detect(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "jobs.lever.co") ||
		strings.Contains(lower, "jobs.eu.lever.co")
}

func (a *LeverAdapter) FillForm(ctx context.Context, base *BaseAdapter, data *models.ApplicationData) error {
	if err := base.FillField(ctx, "input[name='name']", FullName(data.FirstName, data.LastName), "full name"); err != nil {
		return err
	}
	if err := base.FillField(ctx, "input[name='email']", data.Email, "email"); err != nil {
		return err
	}
	if data.Phone != "" {
		if err := base.FillField(ctx, "input[name='phone']", data.Phone, "phone"); err != nil {
			return err
		}
	}

	if err := base.UploadFile(ctx, "input[name='resume']", data.ResumeFilePath); err != nil {
		return err
	}

	if data.LinkedInURL != "" {
		if err := base.FillField(ctx, "input[name='urls[LinkedIn]']", data.LinkedInURL, "linkedin url"); err != nil {
			return err
		}
	}
	if data.PortfolioURL != "" {
		// The portfolio slot is optional and not present on every posting.
		base.Click(ctx, "input[name='urls[Portfolio]']", "focus portfolio field")
		if err := base.FillField(ctx, "input[name='urls[Portfolio]']", data.PortfolioURL, "portfolio url"); err != nil {
			return err
		}
	}

	if data.CoverLetter != "" {
		if err := base.FillField(ctx, "textarea[name='comments']", data.CoverLetter, "cover letter"); err != nil {
			return err
		}
	}

	for questionID, answer := range data.ScreeningAnswers {
		locator := fmt.Sprintf("[name='cards[%s][field0]']", questionID)
		if err := base.FillField(ctx, locator, answer, "screening question "+questionID); err != nil {
			return err
		}
	}

	return nil
}

func (a *LeverAdapter) Submit(ctx context.Context, base *BaseAdapter) (*models.SubmissionResult, error) {
	if ok := base.Click(ctx, "#btn-submit, .template-btn-submit", "submit application"); !ok {
		return nil, errors.NewSubmitFailedError(fmt.Errorf("submit button not clickable"))
	}

	// Lever redirects to a thanks page; the posting slug in the URL is the
	// closest thing to a confirmation token it exposes.
	url, _ := base.Page().Location(ctx)
	confirmed := strings.Contains(url, "/thanks")

	base.Record(StepRecord{
		Action:  "click_submit",
		Value:   url,
		Success: confirmed,
	})
	base.CaptureScreenshot(ctx, "submitted")

	if !confirmed {
		body, err := base.Page().Text(ctx, "body")
		if err != nil || !strings.Contains(strings.ToLower(body), "application submitted") {
			return nil, errors.NewSubmitFailedError(fmt.Errorf("no post-submit confirmation page at %s", url))
		}
	}

	return &models.SubmissionResult{Success: true}, nil
}
