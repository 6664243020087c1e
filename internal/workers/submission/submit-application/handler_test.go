// internal/workers/submission/submit-application/handler_test.go
package submitapplication

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applyflow/internal/archive"
	"applyflow/internal/ats"
	"applyflow/internal/browser"
	"applyflow/internal/common/config"
	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
	"applyflow/internal/common/observability"
	"applyflow/internal/gates"
	"applyflow/internal/models"
	"applyflow/internal/notify"
	"applyflow/internal/orchestrator"
	"applyflow/internal/store"
)

// ==========================
// Test Fakes & Wiring
// ==========================

type fakePage struct{}

func (p *fakePage) Navigate(ctx context.Context, url string) error       { return nil }
func (p *fakePage) Fill(ctx context.Context, sel, val string) error      { return nil }
func (p *fakePage) Click(ctx context.Context, sel string) error          { return nil }
func (p *fakePage) Upload(ctx context.Context, sel, path string) error   { return nil }
func (p *fakePage) Text(ctx context.Context, sel string) (string, error) { return "", nil }
func (p *fakePage) HTML(ctx context.Context) (string, error)             { return "<form></form>", nil }
func (p *fakePage) Location(ctx context.Context) (string, error)         { return "", nil }
func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error)       { return []byte("png"), nil }
func (p *fakePage) Close()                                               {}

type fakeBrowserFactory struct{}

func (f *fakeBrowserFactory) NewPage(ctx context.Context) (browser.Page, error) {
	return &fakePage{}, nil
}

type fakeEvidenceStore struct{}

func (s *fakeEvidenceStore) Upload(ctx context.Context, key string, body []byte, ct string) (string, error) {
	return "https://evidence.local/" + key, nil
}
func (s *fakeEvidenceStore) Download(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}
func (s *fakeEvidenceStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// The archiver is only exercised when an audit trail exists; pointing at
	// an unreachable address keeps construction cheap.
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://127.0.0.1:9209"},
	})
	require.NoError(t, err)

	log := logger.NewNoOpLogger()
	cfg := &config.Config{
		Automation: config.AutomationConfig{FieldRetries: 1, MaxFillAttempts: 2, ValuePreviewLen: 20},
		Gates:      config.GatesConfig{MinMatchScore: 50},
	}

	// Empty registry: every URL routes to manual submission.
	registry := ats.NewRegistry()
	planGate := gates.NewRedisPlanGate(redisClient, log)
	orch := orchestrator.New(&fakeBrowserFactory{}, &fakeEvidenceStore{}, registry, planGate,
		observability.New("submit-application-test"), cfg, log)
	results := store.NewResultStore(db, log)
	archiver := archive.NewAuditArchiver(esClient, "test-audit", log)
	notifier := notify.NewManualNeededNotifier(nil, nil, config.NotificationConfig{Enabled: false}, log)

	handler := NewHandler(
		&Config{Timeout: 30 * time.Second},
		orch, registry, results, archiver, notifier, log,
	)
	return handler, mock
}

func createTestInput() *Input {
	return &Input{
		ApplicationID: "app-1",
		Job: &models.Job{
			ID:         "job-1",
			Title:      "Backend Engineer",
			Company:    "Acme",
			URL:        "https://careers.acme.com/backend",
			MatchScore: 80,
		},
		ResumeFacts: &models.ResumeFacts{
			CandidateName: "Jordan Reyes",
			Skills:        []string{"Python"},
			TotalYears:    3.5,
		},
		ApplicationData: &models.ApplicationData{
			ResumeFileKey: "resumes/app-1.pdf",
			FirstName:     "Jordan",
			LastName:      "Reyes",
			Email:         "jordan@example.com",
			Phone:         "+1-555-0100",
		},
		Subscription: &models.Subscription{UserID: "user-1", DailyLimit: 10, MaxConcurrent: 2},
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_UnsupportedSiteGoesManual(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("INSERT INTO submission_results").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, StatusManualNeeded, output.ApplicationStatus)
	assert.True(t, output.NeedsManual)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ContentRejection(t *testing.T) {
	handler, mock := newTestHandler(t)

	input := createTestInput()
	input.ApplicationData.CoverLetter = "I have 20 years of experience."

	mock.ExpectQuery("INSERT INTO submission_results").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	output, err := handler.Execute(context.Background(), input)

	require.Error(t, err)
	assert.Nil(t, output)
	assert.Equal(t, errors.ErrCodeContentRejected, errors.CodeOf(err))
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_ValidateInput(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name    string
		mutate  func(*Input)
		wantErr bool
	}{
		{"complete payload", func(in *Input) {}, false},
		{"missing application id", func(in *Input) { in.ApplicationID = "" }, true},
		{"missing job", func(in *Input) { in.Job = nil }, true},
		{"missing resume facts", func(in *Input) { in.ResumeFacts = nil }, true},
		{"missing application data", func(in *Input) { in.ApplicationData = nil }, true},
		{"missing subscription", func(in *Input) { in.Subscription = nil }, true},
		{"missing email", func(in *Input) { in.ApplicationData.Email = "" }, true},
		{"malformed email", func(in *Input) { in.ApplicationData.Email = "not-an-email" }, true},
		{"missing resume key", func(in *Input) { in.ApplicationData.ResumeFileKey = "" }, true},
		{"missing first name", func(in *Input) { in.ApplicationData.FirstName = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput()
			tt.mutate(input)

			err := handler.validateInput(input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
