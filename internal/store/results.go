// internal/store/results.go

// Package store persists terminal submission results to Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
	"applyflow/internal/models"
)

// ResultStore writes one row per terminal SubmissionResult. The audit trail
// is stored as JSONB so the full causal history stays queryable next to the
// outcome flags.
type ResultStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewResultStore(db *sql.DB, log logger.Logger) *ResultStore {
	return &ResultStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "result_store"}),
	}
}

const insertResultQuery = `
	INSERT INTO submission_results
		(application_id, job_id, site, success, confirmation_id, error_message,
		 needs_manual, audit_trail, evidence_keys, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id`

// Save persists one terminal result and returns the row id. A persistence
// failure is retryable at the queue level; the submission itself already
// happened and must not be re-driven.
func (s *ResultStore) Save(ctx context.Context, applicationID, jobID, site string, result *models.SubmissionResult) (int64, error) {
	trail, err := json.Marshal(result.AuditTrail)
	if err != nil {
		return 0, errors.NewResultPersistFailedError(fmt.Errorf("marshal audit trail: %w", err))
	}

	var id int64
	err = s.db.QueryRowContext(ctx, insertResultQuery,
		applicationID,
		jobID,
		site,
		result.Success,
		nullable(result.ConfirmationID),
		nullable(result.Error),
		result.NeedsManual,
		trail,
		pq.Array(result.EvidenceKeys),
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, errors.NewResultPersistFailedError(err)
	}

	s.logger.Info("submission result persisted", map[string]interface{}{
		"applicationId": applicationID,
		"resultId":      id,
		"success":       result.Success,
	})
	return id, nil
}

const selectResultQuery = `
	SELECT application_id, job_id, site, success, confirmation_id, error_message,
	       needs_manual, audit_trail, evidence_keys
	FROM submission_results
	WHERE application_id = $1
	ORDER BY created_at DESC
	LIMIT 1`

// StoredResult is the persisted view of an attempt outcome.
type StoredResult struct {
	ApplicationID string
	JobID         string
	Site          string
	Result        models.SubmissionResult
}

// Latest loads the most recent persisted result for an application.
func (s *ResultStore) Latest(ctx context.Context, applicationID string) (*StoredResult, error) {
	var (
		stored       StoredResult
		confirmation sql.NullString
		errMsg       sql.NullString
		trail        []byte
	)

	err := s.db.QueryRowContext(ctx, selectResultQuery, applicationID).Scan(
		&stored.ApplicationID,
		&stored.JobID,
		&stored.Site,
		&stored.Result.Success,
		&confirmation,
		&errMsg,
		&stored.Result.NeedsManual,
		&trail,
		pq.Array(&stored.Result.EvidenceKeys),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load submission result: %w", err)
	}

	stored.Result.ConfirmationID = confirmation.String
	stored.Result.Error = errMsg.String
	if len(trail) > 0 {
		if err := json.Unmarshal(trail, &stored.Result.AuditTrail); err != nil {
			return nil, fmt.Errorf("failed to decode audit trail: %w", err)
		}
	}
	return &stored, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
