// internal/store/results_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
	"applyflow/internal/models"
)

func newTestStore(t *testing.T) (*ResultStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewResultStore(db, logger.NewNoOpLogger()), mock
}

func testResult() *models.SubmissionResult {
	return &models.SubmissionResult{
		Success:        true,
		ConfirmationID: "CONF-42",
		AuditTrail: []models.AuditStep{
			{Action: "navigate", Target: "https://boards.greenhouse.io/acme/jobs/1", Success: true, Timestamp: time.Now().UTC()},
			{Action: "click_submit", Success: true, Timestamp: time.Now().UTC()},
		},
		EvidenceKeys: []string{"app-1/submitted-abc123.png"},
	}
}

func TestResultStore_Save(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("INSERT INTO submission_results").
		WithArgs(
			"app-1", "job-1", "greenhouse",
			true, "CONF-42", nil, false,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store.Save(context.Background(), "app-1", "job-1", "greenhouse", testResult())

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStore_Save_FailedAttempt(t *testing.T) {
	store, mock := newTestStore(t)

	result := &models.SubmissionResult{
		Error:       "CAPTCHA_DETECTED: automation blocker",
		NeedsManual: true,
		AuditTrail: []models.AuditStep{
			{Action: "navigate", Success: true, Timestamp: time.Now().UTC()},
		},
	}

	mock.ExpectQuery("INSERT INTO submission_results").
		WithArgs(
			"app-2", "job-2", "lever",
			false, nil, result.Error, true,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	id, err := store.Save(context.Background(), "app-2", "job-2", "lever", result)

	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStore_Save_InsertFailure(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("INSERT INTO submission_results").
		WillReturnError(assert.AnError)

	_, err := store.Save(context.Background(), "app-1", "job-1", "greenhouse", testResult())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResultPersistFailed, errors.CodeOf(err))
}

func TestResultStore_Latest(t *testing.T) {
	store, mock := newTestStore(t)

	trail := []byte(`[{"action":"navigate","success":true}]`)
	rows := sqlmock.NewRows([]string{
		"application_id", "job_id", "site", "success", "confirmation_id",
		"error_message", "needs_manual", "audit_trail", "evidence_keys",
	}).AddRow("app-1", "job-1", "greenhouse", true, "CONF-42", nil, false, trail, "{app-1/submitted-abc.png}")

	mock.ExpectQuery("SELECT (.+) FROM submission_results").
		WithArgs("app-1").
		WillReturnRows(rows)

	stored, err := store.Latest(context.Background(), "app-1")

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "greenhouse", stored.Site)
	assert.True(t, stored.Result.Success)
	assert.Equal(t, "CONF-42", stored.Result.ConfirmationID)
	require.Len(t, stored.Result.AuditTrail, 1)
	assert.Equal(t, "navigate", stored.Result.AuditTrail[0].Action)
}

func TestResultStore_Latest_NoRows(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT (.+) FROM submission_results").
		WithArgs("app-unknown").
		WillReturnRows(sqlmock.NewRows([]string{
			"application_id", "job_id", "site", "success", "confirmation_id",
			"error_message", "needs_manual", "audit_trail", "evidence_keys",
		}))

	stored, err := store.Latest(context.Background(), "app-unknown")

	assert.NoError(t, err)
	assert.Nil(t, stored)
}
