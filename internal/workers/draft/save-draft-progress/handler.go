// internal/workers/draft/save-draft-progress/handler.go
package savedraftprogress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/common/metrics"
	"merchant-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "save-draft-progress"
)

var (
	ErrValidationFailed = errors.New("VALIDATION_FAILED")
	ErrDraftNotFound    = errors.New("DRAFT_NOT_FOUND")
	ErrDraftTerminal    = errors.New("DRAFT_TERMINAL")
	ErrVersionConflict  = errors.New("CONFLICT_ERROR")
	ErrDatabaseFailed   = errors.New("PERSISTENCE_ERROR")
)

type Handler struct {
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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

	metrics.DraftSaves.WithLabelValues(input.Direction).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, fmt.Errorf("%w: applicationId is required", ErrValidationFailed)
	}

	savedTab := models.StepID(input.CurrentTab)
	if !models.IsValidStep(savedTab) {
		return nil, fmt.Errorf("%w: unknown tab %q", ErrValidationFailed, input.CurrentTab)
	}

	switch input.Direction {
	case models.DirectionNext, models.DirectionPrevious, models.DirectionStay:
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrValidationFailed, input.Direction)
	}

	if err := validatePayload(savedTab, input.Payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	var (
		rawData  []byte
		progress int
		status   sql.NullString
		version  int
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT application_data, progress, status, version
		FROM merchant_applications
		WHERE id = $1`, input.ApplicationID).
		Scan(&rawData, &progress, &status, &version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrDraftNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load failed: %v", ErrDatabaseFailed, err)
	}

	if status.String == models.StatusDeclined || status.String == models.StatusRemoved {
		return nil, fmt.Errorf("%w: application %s is %s", ErrDraftTerminal, input.ApplicationID, status.String)
	}

	if input.ExpectedVersion != 0 && input.ExpectedVersion != version {
		return nil, fmt.Errorf("%w: expected version %d, stored version %d",
			ErrVersionConflict, input.ExpectedVersion, version)
	}

	appData := map[models.StepID]map[string]interface{}{}
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &appData); err != nil {
			return nil, fmt.Errorf("%w: corrupt application data: %v", ErrDatabaseFailed, err)
		}
	}

	// Merge at field level: untouched keys from earlier saves survive.
	if input.Payload != nil {
		stepData := appData[savedTab]
		if stepData == nil {
			stepData = map[string]interface{}{}
		}
		for k, v := range input.Payload {
			stepData[k] = v
		}
		appData[savedTab] = stepData
	}

	nextTab := navigate(savedTab, input.Direction)

	// Progress is a high-water mark keyed to the tab the merchant lands on:
	// advancing claims the arrival tab's share, navigating backwards never
	// lowers it.
	newProgress := progress
	if p := models.ProgressForStep(nextTab); p > newProgress {
		newProgress = p
	}

	mergedData, err := json.Marshal(appData)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal application data: %v", ErrDatabaseFailed, err)
	}

	now := time.Now().UTC()
	res, err := h.db.ExecContext(ctx, `
		UPDATE merchant_applications
		SET application_data = $1, current_tab = $2, progress = $3,
		    version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6`,
		mergedData,
		string(nextTab),
		newProgress,
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
		// Another writer bumped the version between our read and write.
		return nil, fmt.Errorf("%w: application %s was modified concurrently",
			ErrVersionConflict, input.ApplicationID)
	}

	h.logger.Info("draft progress saved", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"savedTab":      string(savedTab),
		"currentTab":    string(nextTab),
		"direction":     input.Direction,
		"progress":      newProgress,
		"version":       version + 1,
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		SavedTab:      string(savedTab),
		CurrentTab:    string(nextTab),
		Progress:      newProgress,
		Version:       version + 1,
		UpdatedAt:     now.Format(time.RFC3339),
	}, nil
}

// navigate resolves the tab shown after a save. Movement clamps at both ends
// of the fixed step order.
func navigate(from models.StepID, direction string) models.StepID {
	idx := models.StepIndex(from)
	switch direction {
	case models.DirectionNext:
		if idx < len(models.StepOrder)-1 {
			return models.StepOrder[idx+1]
		}
	case models.DirectionPrevious:
		if idx > 0 {
			return models.StepOrder[idx-1]
		}
	}
	return from
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
