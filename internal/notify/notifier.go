// internal/notify/notifier.go

// Package notify raises human attention when an application needs manual
// handling (blocker hit, unsupported site). Delivery is best effort and
// never changes the attempt outcome.
package notify

import (
	"context"
	"fmt"

	"applyflow/internal/common/aws"
	"applyflow/internal/common/config"
	"applyflow/internal/common/logger"
	"applyflow/internal/models"
)

// ManualNeededNotifier sends an operator email over SES and publishes an
// event to SNS for downstream automation (ticketing, dashboards).
type ManualNeededNotifier struct {
	ses    *aws.SESClient
	sns    *aws.SNSClient
	cfg    config.NotificationConfig
	logger logger.Logger
}

func NewManualNeededNotifier(sesClient *aws.SESClient, snsClient *aws.SNSClient, cfg config.NotificationConfig, log logger.Logger) *ManualNeededNotifier {
	return &ManualNeededNotifier{
		ses:    sesClient,
		sns:    snsClient,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// NotifyManualNeeded fans the event out to email and SNS. Each channel fails
// independently; one failure does not stop the other.
func (n *ManualNeededNotifier) NotifyManualNeeded(ctx context.Context, applicationID string, job *models.Job, result *models.SubmissionResult) {
	if !n.cfg.Enabled {
		return
	}

	if err := n.sendEmail(ctx, applicationID, job, result); err != nil {
		n.logger.Warn("manual-needed email failed", map[string]interface{}{
			"applicationId": applicationID,
			"error":         err.Error(),
		})
	}
	if err := n.publishEvent(ctx, applicationID, job, result); err != nil {
		n.logger.Warn("manual-needed SNS publish failed", map[string]interface{}{
			"applicationId": applicationID,
			"error":         err.Error(),
		})
	}
}

func (n *ManualNeededNotifier) sendEmail(ctx context.Context, applicationID string, job *models.Job, result *models.SubmissionResult) error {
	if n.ses == nil || n.cfg.SupportEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Manual submission needed: %s at %s", job.Title, job.Company)
	body := fmt.Sprintf(
		"Application %s needs manual handling.\n\nJob: %s at %s\nURL: %s\nReason: %s\nEvidence keys: %v\n",
		applicationID, job.Title, job.Company, job.URL, result.Error, result.EvidenceKeys,
	)

	return n.ses.SendText(ctx, n.cfg.SenderEmail, n.cfg.SupportEmail, subject, body)
}

func (n *ManualNeededNotifier) publishEvent(ctx context.Context, applicationID string, job *models.Job, result *models.SubmissionResult) error {
	if n.sns == nil || n.cfg.SNSTopicARN == "" {
		return nil
	}

	payload := map[string]interface{}{
		"event":         "manual_needed",
		"applicationId": applicationID,
		"jobId":         job.ID,
		"jobUrl":        job.URL,
		"reason":        result.Error,
		"evidenceKeys":  result.EvidenceKeys,
	}
	return n.sns.PublishJSON(ctx, n.cfg.SNSTopicARN, "applyflow.manual_needed", payload)
}
