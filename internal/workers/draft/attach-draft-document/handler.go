// internal/workers/draft/attach-draft-document/handler.go
package attachdraftdocument

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "attach-draft-document"
)

var (
	ErrValidationFailed = errors.New("VALIDATION_FAILED")
	ErrDraftNotFound    = errors.New("DRAFT_NOT_FOUND")
	ErrDraftTerminal    = errors.New("DRAFT_TERMINAL")
	ErrDatabaseFailed   = errors.New("PERSISTENCE_ERROR")
)

// Accepted upload content types. Bytes live in the external file store; this
// worker only records the reference.
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if input.FileName == "" {
		return nil, fmt.Errorf("%w: fileName is required", ErrValidationFailed)
	}
	if input.StorageKey == "" {
		return nil, fmt.Errorf("%w: storageKey is required", ErrValidationFailed)
	}
	if !allowedContentTypes[input.ContentType] {
		return nil, fmt.Errorf("%w: content type %q not accepted", ErrValidationFailed, input.ContentType)
	}
	if input.SizeBytes <= 0 || input.SizeBytes > h.config.MaxSizeBytes {
		return nil, fmt.Errorf("%w: size %d out of range (max %d)",
			ErrValidationFailed, input.SizeBytes, h.config.MaxSizeBytes)
	}

	var status sql.NullString
	err := h.db.QueryRowContext(ctx, `
		SELECT status FROM merchant_applications WHERE id = $1`,
		input.ApplicationID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrDraftNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load failed: %v", ErrDatabaseFailed, err)
	}
	if status.String == models.StatusDeclined || status.String == models.StatusRemoved {
		return nil, fmt.Errorf("%w: application %s is %s", ErrDraftTerminal, input.ApplicationID, status.String)
	}

	docID := uuid.New().String()
	now := time.Now().UTC()

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO application_documents (
			id, application_id, file_name, content_type, size_bytes,
			storage_key, uploaded_by, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		docID,
		input.ApplicationID,
		input.FileName,
		input.ContentType,
		input.SizeBytes,
		input.StorageKey,
		input.UploadedBy,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseFailed, err)
	}

	h.logger.Info("document attached", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"documentId":    docID,
		"fileName":      input.FileName,
		"sizeBytes":     input.SizeBytes,
	})

	return &Output{
		DocumentID:    docID,
		ApplicationID: input.ApplicationID,
		FileName:      input.FileName,
		UploadedAt:    now.Format(time.RFC3339),
	}, nil
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
