// internal/workers/submission/submit-application/handler.go
package submitapplication

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"applyflow/internal/archive"
	"applyflow/internal/ats"
	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
	"applyflow/internal/common/validation"
	"applyflow/internal/models"
	"applyflow/internal/notify"
	"applyflow/internal/orchestrator"
	"applyflow/internal/store"
)

const (
	TaskType = "submit-application"
)

// Handler drives one submission attempt end to end: validate the payload,
// run the orchestrator, persist and archive the result, and notify when a
// human must take over.
type Handler struct {
	cfg          *Config
	orchestrator *orchestrator.Orchestrator
	registry     *ats.Registry
	results      *store.ResultStore
	archiver     *archive.AuditArchiver
	notifier     *notify.ManualNeededNotifier
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(
	cfg *Config,
	orch *orchestrator.Orchestrator,
	registry *ats.Registry,
	results *store.ResultStore,
	archiver *archive.AuditArchiver,
	notifier *notify.ManualNeededNotifier,
	log logger.Logger,
) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		cfg:          cfg,
		orchestrator: orch,
		registry:     registry,
		results:      results,
		archiver:     archiver,
		notifier:     notifier,
		errorHandler: errors.NewErrorHandler(scoped),
		logger:       scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		parseErr := errors.NewInternalError(fmt.Errorf("parse input: %w", err))
		parseErr.Code = errors.ErrCodeParseError
		h.errorHandler.HandleJobError(context.Background(), client, job, parseErr)
		return parseErr
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validateInput(input); err != nil {
		return nil, err
	}

	req := &orchestrator.Request{
		ApplicationID: input.ApplicationID,
		Job:           input.Job,
		ResumeFacts:   input.ResumeFacts,
		Data:          input.ApplicationData,
		Subscription:  input.Subscription,
	}

	result, submitErr := h.orchestrator.SubmitApplication(ctx, req)

	site := "none"
	if adapter, found := h.registry.Select(input.Job.URL); found {
		site = adapter.Name()
	}
	h.persist(ctx, input, site, result)

	if submitErr != nil && !result.NeedsManual {
		return nil, submitErr
	}

	if result.NeedsManual {
		h.notifier.NotifyManualNeeded(context.WithoutCancel(ctx), input.ApplicationID, input.Job, result)
		return &Output{
			ApplicationStatus: StatusManualNeeded,
			NeedsManual:       true,
			EvidenceKeys:      result.EvidenceKeys,
			AuditSteps:        len(result.AuditTrail),
		}, nil
	}

	return &Output{
		ApplicationStatus: StatusSucceeded,
		ConfirmationID:    result.ConfirmationID,
		EvidenceKeys:      result.EvidenceKeys,
		AuditSteps:        len(result.AuditTrail),
	}, nil
}

// validateInput checks required structure before any side effect. Schema
// validation guards the contact and resume fields the adapters depend on.
func (h *Handler) validateInput(input *Input) error {
	if input.ApplicationID == "" || input.Job == nil || input.ResumeFacts == nil ||
		input.ApplicationData == nil || input.Subscription == nil {
		err := errors.NewInternalError(fmt.Errorf("incomplete submission payload"))
		err.Code = errors.ErrCodeParseError
		return err
	}

	doc := map[string]interface{}{
		"firstName":     input.ApplicationData.FirstName,
		"lastName":      input.ApplicationData.LastName,
		"email":         input.ApplicationData.Email,
		"phone":         input.ApplicationData.Phone,
		"resumeFileKey": input.ApplicationData.ResumeFileKey,
	}
	vr, err := validation.ValidateApplicationData(doc)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("schema validation failed to run: %w", err))
	}
	if !vr.Valid {
		parseErr := errors.NewInternalError(fmt.Errorf("invalid application data: %v", vr.Errors))
		parseErr.Code = errors.ErrCodeParseError
		return parseErr
	}
	return nil
}

// persist stores and archives the terminal result. Both are best effort
// here: the attempt already produced its outcome.
func (h *Handler) persist(ctx context.Context, input *Input, site string, result *models.SubmissionResult) {
	persistCtx := context.WithoutCancel(ctx)

	if _, err := h.results.Save(persistCtx, input.ApplicationID, input.Job.ID, site, result); err != nil {
		h.logger.Error("failed to persist submission result", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"error":         err.Error(),
		})
	}

	if len(result.AuditTrail) > 0 {
		if err := h.archiver.Archive(persistCtx, input.ApplicationID, input.Job.ID, site, result); err != nil {
			h.logger.Warn("failed to archive audit trail", map[string]interface{}{
				"applicationId": input.ApplicationID,
				"error":         err.Error(),
			})
		}
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"status": output.ApplicationStatus,
	})
}

// Execute exposes the core path for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
