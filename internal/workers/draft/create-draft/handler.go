// internal/workers/draft/create-draft/handler.go
package createdraft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merchant-workers/internal/common/access"
	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/common/validation"
	"merchant-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "create-draft"
)

var (
	ErrValidationFailed = errors.New("VALIDATION_FAILED")
	ErrDatabaseFailed   = errors.New("PERSISTENCE_ERROR")
)

type Handler struct {
	db     *sql.DB
	issuer *access.Issuer
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		db:     db,
		issuer: access.NewIssuer(config.AccessBaseURL, config.OTPTTLDays),
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
		if errors.Is(err, ErrValidationFailed) {
			errorCode = "VALIDATION_FAILED"
			retries = 0
		} else if errors.Is(err, ErrDatabaseFailed) {
			errorCode = "PERSISTENCE_ERROR"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MerchantName == "" {
		return nil, fmt.Errorf("%w: merchantName is required", ErrValidationFailed)
	}
	if !validation.ValidateEmail(input.MerchantEmail) {
		return nil, fmt.Errorf("%w: merchantEmail %q is not a valid email", ErrValidationFailed, input.MerchantEmail)
	}

	now := time.Now().UTC()
	appID := uuid.New().String()

	otp, expiresAt, err := h.issuer.Issue(now)
	if err != nil {
		return nil, fmt.Errorf("%w: otp generation failed: %v", ErrDatabaseFailed, err)
	}

	// The fields collected before creation seed the first step, so a
	// fresh draft already counts the business tab towards progress.
	initialData, _ := json.Marshal(map[string]interface{}{
		string(models.StepBusiness): map[string]interface{}{
			"businessName":  input.MerchantName,
			"businessType":  input.BusinessType,
			"email":         input.MerchantEmail,
			"monthlyVolume": input.MonthlyVolume,
		},
	})
	progress := models.ProgressForStep(models.StepBusiness)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO merchant_applications (
			id, merchant_name, merchant_email, application_data,
			progress, current_tab, completed, otp, expires_at,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		appID,
		input.MerchantName,
		input.MerchantEmail,
		initialData,
		progress,
		string(models.StepBusiness),
		false,
		otp,
		expiresAt,
		1,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseFailed, err)
	}

	h.logger.Info("draft created", map[string]interface{}{
		"applicationId": appID,
		"merchantEmail": input.MerchantEmail,
		"otpExpiresAt":  expiresAt.Format(time.RFC3339),
	})

	return &Output{
		ApplicationID: appID,
		CurrentTab:    string(models.StepBusiness),
		Progress:      progress,
		Version:       1,
		AccessLink:    h.issuer.BuildAccessLink(appID, input.MerchantEmail),
		OTPExpiresAt:  expiresAt.Format(time.RFC3339),
		CreatedAt:     now.Format(time.RFC3339),
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
