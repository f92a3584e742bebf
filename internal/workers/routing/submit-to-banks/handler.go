// internal/workers/routing/submit-to-banks/handler.go
package submittobanks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	httpclient "merchant-workers/internal/common/http"
	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/common/metrics"
	"merchant-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "submit-to-banks"
)

var (
	ErrValidationFailed  = errors.New("VALIDATION_FAILED")
	ErrDraftNotFound     = errors.New("DRAFT_NOT_FOUND")
	ErrDraftTerminal     = errors.New("DRAFT_TERMINAL")
	ErrDraftNotCompleted = errors.New("DRAFT_NOT_COMPLETED")
	ErrDatabaseFailed    = errors.New("PERSISTENCE_ERROR")
	ErrBankSubmitFailed  = errors.New("BANK_SUBMIT_FAILED")
)

type Handler struct {
	config     *Config
	db         *sql.DB
	httpClient *httpclient.Client
	banks      []models.BankCandidate
	logger     logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		db:         db,
		httpClient: httpclient.NewClient(config.SubmitTimeout),
		banks:      models.PartnerBanks,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) findBank(id string) *models.BankCandidate {
	for i := range h.banks {
		if h.banks[i].ID == id {
			return &h.banks[i]
		}
	}
	return nil
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
		case errors.Is(err, ErrDraftNotCompleted):
			errorCode = "DRAFT_NOT_COMPLETED"
		case errors.Is(err, ErrDatabaseFailed):
			errorCode = "PERSISTENCE_ERROR"
			retries = 3
		case errors.Is(err, ErrBankSubmitFailed):
			errorCode = "BANK_SUBMIT_FAILED"
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
	if len(input.BankIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one bankId is required", ErrValidationFailed)
	}
	for _, id := range input.BankIDs {
		if h.findBank(id) == nil {
			return nil, fmt.Errorf("%w: unknown bank %q", ErrValidationFailed, id)
		}
	}

	var (
		merchantName  string
		merchantEmail string
		rawData       []byte
		completed     bool
		status        sql.NullString
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT merchant_name, merchant_email, application_data, completed, status
		FROM merchant_applications
		WHERE id = $1`, input.ApplicationID).
		Scan(&merchantName, &merchantEmail, &rawData, &completed, &status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrDraftNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load failed: %v", ErrDatabaseFailed, err)
	}
	if status.String == models.StatusDeclined || status.String == models.StatusRemoved {
		return nil, fmt.Errorf("%w: application %s is %s", ErrDraftTerminal, input.ApplicationID, status.String)
	}
	if !completed {
		return nil, fmt.Errorf("%w: application %s has not been completed", ErrDraftNotCompleted, input.ApplicationID)
	}

	var appData map[string]interface{}
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &appData); err != nil {
			return nil, fmt.Errorf("%w: corrupt application data: %v", ErrDatabaseFailed, err)
		}
	}

	submission := &bankSubmission{
		ApplicationID:   input.ApplicationID,
		MerchantName:    merchantName,
		MerchantEmail:   merchantEmail,
		ApplicationData: appData,
		CallbackURL:     h.config.CallbackURL,
	}

	results := make([]BankResult, 0, len(input.BankIDs))
	anySucceeded := false

	for _, id := range input.BankIDs {
		bank := h.findBank(id)
		result := h.submitToBank(ctx, bank, submission)
		if result.Status != StatusFailed {
			anySucceeded = true
		}
		metrics.BankSubmissions.WithLabelValues(id, result.Status).Inc()
		results = append(results, result)
	}

	// Partial failure is reported per bank; only a clean sweep of failures
	// fails the job so the whole batch can be retried.
	if !anySucceeded {
		return nil, fmt.Errorf("%w: all %d submissions failed for application %s",
			ErrBankSubmitFailed, len(input.BankIDs), input.ApplicationID)
	}

	h.logger.Info("bank submissions dispatched", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"banks":         len(results),
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		Results:       results,
		SubmittedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) submitToBank(ctx context.Context, bank *models.BankCandidate, submission *bankSubmission) BankResult {
	result := BankResult{
		BankID:   bank.ID,
		BankName: bank.Name,
		Score:    bank.CompatibilityScore,
	}

	// Banks without an intake API go to the manual queue; there is nothing
	// to call.
	if !bank.APIAvailable {
		result.Status = StatusManualQueue
		return result
	}

	headers := map[string]string{}
	if h.config.APIKey != "" {
		headers["X-Api-Key"] = h.config.APIKey
	}

	var resp bankResponse
	err := h.httpClient.PostJSON(ctx, bank.SubmitURL, headers, submission, &resp)
	if err != nil {
		h.logger.Warn("bank submission failed", map[string]interface{}{
			"bankId": bank.ID,
			"error":  err,
		})
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = StatusSubmitted
	result.Reference = resp.Reference
	return result
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
