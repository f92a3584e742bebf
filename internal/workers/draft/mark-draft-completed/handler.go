// internal/workers/draft/mark-draft-completed/handler.go
package markdraftcompleted

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "mark-draft-completed"
)

var (
	ErrValidationFailed = errors.New("VALIDATION_FAILED")
	ErrDraftNotFound    = errors.New("DRAFT_NOT_FOUND")
	ErrDraftTerminal    = errors.New("DRAFT_TERMINAL")
	ErrVersionConflict  = errors.New("CONFLICT_ERROR")
	ErrDatabaseFailed   = errors.New("PERSISTENCE_ERROR")
)

type Handler struct {
	config   *Config
	db       *sql.DB
	esClient *elasticsearch.Client
	logger   logger.Logger
}

// NewHandler builds the worker. esClient may be nil; the search index copy is
// best-effort and completion never depends on it.
func NewHandler(config *Config, db *sql.DB, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		db:       db,
		esClient: esClient,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		switch {
		case errors.Is(err, ErrValidationFailed):
			errorCode = "VALIDATION_FAILED"
		case errors.Is(err, ErrDraftNotFound):
			errorCode = "DRAFT_NOT_FOUND"
		case errors.Is(err, ErrDraftTerminal):
			errorCode = "DRAFT_TERMINAL"
		case errors.Is(err, ErrVersionConflict):
			errorCode = "CONFLICT_ERROR"
		case errors.Is(err, ErrDatabaseFailed):
			errorCode = "PERSISTENCE_ERROR"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, fmt.Errorf("%w: applicationId is required", ErrValidationFailed)
	}

	var (
		merchantName  string
		merchantEmail string
		rawData       []byte
		status        sql.NullString
		completed     bool
		progress      int
		version       int
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT merchant_name, merchant_email, application_data, status, completed, progress, version
		FROM merchant_applications
		WHERE id = $1`, input.ApplicationID).
		Scan(&merchantName, &merchantEmail, &rawData, &status, &completed, &progress, &version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrDraftNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load failed: %v", ErrDatabaseFailed, err)
	}

	if status.String == models.StatusDeclined || status.String == models.StatusRemoved {
		return nil, fmt.Errorf("%w: application %s is %s", ErrDraftTerminal, input.ApplicationID, status.String)
	}

	now := time.Now().UTC()

	// Completing twice is not an error: return the current state untouched.
	if completed {
		h.logger.Info("draft already completed", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		return &Output{
			ApplicationID: input.ApplicationID,
			Completed:     true,
			Progress:      progress,
			CurrentTab:    string(models.StepDocuments),
			Version:       version,
			AlreadyDone:   true,
			CompletedAt:   now.Format(time.RFC3339),
		}, nil
	}

	if input.ExpectedVersion != 0 && input.ExpectedVersion != version {
		return nil, fmt.Errorf("%w: expected version %d, stored version %d",
			ErrVersionConflict, input.ExpectedVersion, version)
	}

	res, err := h.db.ExecContext(ctx, `
		UPDATE merchant_applications
		SET completed = TRUE, progress = 100, current_tab = $1,
		    version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		string(models.StepDocuments),
		now,
		input.ApplicationID,
		version,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: update failed: %v", ErrDatabaseFailed, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: rows affected: %v", ErrDatabaseFailed, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: application %s was modified concurrently",
			ErrVersionConflict, input.ApplicationID)
	}

	h.indexApplication(ctx, input.ApplicationID, merchantName, merchantEmail, rawData, now)

	h.logger.Info("draft marked completed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"version":       version + 1,
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		Completed:     true,
		Progress:      100,
		CurrentTab:    string(models.StepDocuments),
		Version:       version + 1,
		CompletedAt:   now.Format(time.RFC3339),
	}, nil
}

// indexApplication copies the completed application into the search index.
// Failures here are logged and swallowed: the database row is the source of
// truth and the index can be rebuilt.
func (h *Handler) indexApplication(ctx context.Context, appID, merchantName, merchantEmail string, rawData []byte, completedAt time.Time) {
	if h.esClient == nil {
		return
	}

	var appData map[string]interface{}
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &appData); err != nil {
			h.logger.Warn("search index skipped, corrupt application data", map[string]interface{}{
				"applicationId": appID,
				"error":         err,
			})
			return
		}
	}

	doc, err := json.Marshal(map[string]interface{}{
		"applicationId":   appID,
		"merchantName":    merchantName,
		"merchantEmail":   merchantEmail,
		"applicationData": appData,
		"completed":       true,
		"completedAt":     completedAt.Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Warn("search index skipped, marshal failed", map[string]interface{}{
			"applicationId": appID,
			"error":         err,
		})
		return
	}

	req := esapi.IndexRequest{
		Index:      h.config.ESIndex,
		DocumentID: appID,
		Body:       strings.NewReader(string(doc)),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		h.logger.Warn("search index write failed", map[string]interface{}{
			"applicationId": appID,
			"error":         err,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		h.logger.Warn("search index write rejected", map[string]interface{}{
			"applicationId": appID,
			"status":        res.Status(),
		})
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
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
