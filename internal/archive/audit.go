// internal/archive/audit.go

// Package archive indexes completed audit trails into Elasticsearch for
// later search and human review. Archiving is best effort: a failed index
// never changes the attempt outcome.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"applyflow/internal/common/logger"
	"applyflow/internal/models"
)

// AuditArchiver writes one document per terminal attempt.
type AuditArchiver struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewAuditArchiver(client *elasticsearch.Client, index string, log logger.Logger) *AuditArchiver {
	return &AuditArchiver{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit_archiver"}),
	}
}

type auditDocument struct {
	ApplicationID  string             `json:"applicationId"`
	JobID          string             `json:"jobId"`
	Site           string             `json:"site"`
	Success        bool               `json:"success"`
	NeedsManual    bool               `json:"needsManual"`
	ConfirmationID string             `json:"confirmationId,omitempty"`
	Error          string             `json:"error,omitempty"`
	Steps          []models.AuditStep `json:"steps"`
	EvidenceKeys   []string           `json:"evidenceKeys,omitempty"`
	ArchivedAt     time.Time          `json:"archivedAt"`
}

// Archive indexes the attempt's full audit trail. The document id pins one
// document per application+timestamp so retried archive calls do not fan out.
func (a *AuditArchiver) Archive(ctx context.Context, applicationID, jobID, site string, result *models.SubmissionResult) error {
	doc := auditDocument{
		ApplicationID:  applicationID,
		JobID:          jobID,
		Site:           site,
		Success:        result.Success,
		NeedsManual:    result.NeedsManual,
		ConfirmationID: result.ConfirmationID,
		Error:          result.Error,
		Steps:          result.AuditTrail,
		EvidenceKeys:   result.EvidenceKeys,
		ArchivedAt:     time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal audit document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      a.index,
		DocumentID: fmt.Sprintf("%s-%d", applicationID, doc.ArchivedAt.UnixMilli()),
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, a.client)
	if err != nil {
		return fmt.Errorf("failed to index audit trail: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("audit index request failed: %s", res.Status())
	}

	a.logger.Debug("audit trail archived", map[string]interface{}{
		"applicationId": applicationID,
		"steps":         len(result.AuditTrail),
	})
	return nil
}
