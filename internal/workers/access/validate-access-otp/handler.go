// internal/workers/access/validate-access-otp/handler.go
package validateaccessotp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merchant-workers/internal/common/access"
	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/common/metrics"
	"merchant-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "validate-access-otp"

	attemptsKeyPrefix = "otp-attempts:"
	sessionKeyPrefix  = "access-session:"
)

var (
	ErrValidationFailed = errors.New("VALIDATION_FAILED")
	ErrDraftNotFound    = errors.New("DRAFT_NOT_FOUND")
	ErrDraftTerminal    = errors.New("DRAFT_TERMINAL")
	ErrTokenExpired     = errors.New("TOKEN_EXPIRED")
	ErrTokenMismatch    = errors.New("TOKEN_MISMATCH")
	ErrTooManyAttempts  = errors.New("TOO_MANY_ATTEMPTS")
	ErrDatabaseFailed   = errors.New("PERSISTENCE_ERROR")
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redisClient,
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
		case errors.Is(err, ErrTokenExpired):
			errorCode = "TOKEN_EXPIRED"
		case errors.Is(err, ErrTokenMismatch):
			errorCode = "TOKEN_MISMATCH"
		case errors.Is(err, ErrTooManyAttempts):
			errorCode = "TOO_MANY_ATTEMPTS"
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
	if input.OTP == "" {
		return nil, fmt.Errorf("%w: otp is required", ErrValidationFailed)
	}

	attemptsKey := attemptsKeyPrefix + input.ApplicationID

	// Lockout check runs before anything touches the stored code.
	attempts, err := h.redis.Get(ctx, attemptsKey).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("%w: attempts lookup: %v", ErrDatabaseFailed, err)
	}
	if attempts >= h.config.MaxOTPAttempts {
		metrics.AccessOTPValidations.WithLabelValues("locked_out").Inc()
		return nil, fmt.Errorf("%w: application %s locked out after %d failed attempts",
			ErrTooManyAttempts, input.ApplicationID, attempts)
	}

	var (
		storedOTP     string
		expiresAt     time.Time
		merchantName  string
		merchantEmail string
		rawData       []byte
		currentTab    string
		progress      int
		completed     bool
		version       int
		status        sql.NullString
	)
	err = h.db.QueryRowContext(ctx, `
		SELECT otp, expires_at, merchant_name, merchant_email, application_data,
		       current_tab, progress, completed, version, status
		FROM merchant_applications
		WHERE id = $1`, input.ApplicationID).
		Scan(&storedOTP, &expiresAt, &merchantName, &merchantEmail, &rawData,
			&currentTab, &progress, &completed, &version, &status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrDraftNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load failed: %v", ErrDatabaseFailed, err)
	}
	if status.String == models.StatusDeclined || status.String == models.StatusRemoved {
		return nil, fmt.Errorf("%w: application %s is %s", ErrDraftTerminal, input.ApplicationID, status.String)
	}

	switch access.Validate(storedOTP, input.OTP, expiresAt, time.Now().UTC()) {
	case access.Expired:
		metrics.AccessOTPValidations.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("%w: link for application %s expired at %s",
			ErrTokenExpired, input.ApplicationID, expiresAt.Format(time.RFC3339))

	case access.Mismatch:
		if err := h.recordFailedAttempt(ctx, attemptsKey); err != nil {
			h.logger.Warn("failed attempt counter update failed", map[string]interface{}{
				"applicationId": input.ApplicationID,
				"error":         err,
			})
		}
		metrics.AccessOTPValidations.WithLabelValues("mismatch").Inc()
		return nil, fmt.Errorf("%w: incorrect code for application %s", ErrTokenMismatch, input.ApplicationID)
	}

	appData := map[models.StepID]map[string]interface{}{}
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &appData); err != nil {
			return nil, fmt.Errorf("%w: corrupt application data: %v", ErrDatabaseFailed, err)
		}
	}

	// Valid: clear the failure counter and open a resume session.
	if err := h.redis.Del(ctx, attemptsKey).Err(); err != nil {
		h.logger.Warn("attempts counter delete failed", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"error":         err,
		})
	}

	now := time.Now().UTC()
	session := models.AccessSession{
		Token:         uuid.New().String(),
		ApplicationID: input.ApplicationID,
		MerchantEmail: merchantEmail,
		IssuedAt:      now,
		ExpiresAt:     now.Add(h.config.SessionTTL),
	}

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal session: %v", ErrDatabaseFailed, err)
	}
	if err := h.redis.Set(ctx, sessionKeyPrefix+session.Token, sessionJSON, h.config.SessionTTL).Err(); err != nil {
		return nil, fmt.Errorf("%w: session store: %v", ErrDatabaseFailed, err)
	}

	metrics.AccessOTPValidations.WithLabelValues("valid").Inc()
	h.logger.Info("access otp validated", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"currentTab":    currentTab,
	})

	return &Output{
		ApplicationID:    input.ApplicationID,
		Valid:            true,
		SessionToken:     session.Token,
		SessionExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		MerchantName:     merchantName,
		MerchantEmail:    merchantEmail,
		ApplicationData:  appData,
		CurrentTab:       currentTab,
		Progress:         progress,
		Completed:        completed,
		Version:          version,
	}, nil
}

func (h *Handler) recordFailedAttempt(ctx context.Context, key string) error {
	count, err := h.redis.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		// First failure starts the lockout window.
		return h.redis.Expire(ctx, key, h.config.AttemptsWindow).Err()
	}
	return nil
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
