// internal/workers/access/issue-access-link/handler.go
package issueaccesslink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merchant-workers/internal/common/access"
	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "issue-access-link"
)

var (
	ErrValidationFailed = errors.New("VALIDATION_FAILED")
	ErrDraftNotFound    = errors.New("DRAFT_NOT_FOUND")
	ErrDraftTerminal    = errors.New("DRAFT_TERMINAL")
	ErrDatabaseFailed   = errors.New("PERSISTENCE_ERROR")
	ErrEmailSendFailed  = errors.New("EMAIL_SEND_FAILED")
)

// SESService allows mocking the SES client in tests
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	issuer    *access.Issuer
	sesClient SESService
	logger    logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Handler{
		config:    config,
		db:        db,
		issuer:    access.NewIssuer(config.AccessBaseURL, config.OTPTTLDays),
		sesClient: ses.NewFromConfig(awsCfg),
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
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
		case errors.Is(err, ErrEmailSendFailed):
			errorCode = "EMAIL_SEND_FAILED"
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
		status        sql.NullString
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT merchant_name, merchant_email, status
		FROM merchant_applications
		WHERE id = $1`, input.ApplicationID).
		Scan(&merchantName, &merchantEmail, &status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrDraftNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load failed: %v", ErrDatabaseFailed, err)
	}
	if status.String == models.StatusDeclined || status.String == models.StatusRemoved {
		return nil, fmt.Errorf("%w: application %s is %s", ErrDraftTerminal, input.ApplicationID, status.String)
	}

	// Every issue rotates the code and restarts the validity window. Old
	// links keep working because the URL carries no secret; only the newest
	// code validates.
	now := time.Now().UTC()
	otp, expiresAt, err := h.issuer.Issue(now)
	if err != nil {
		return nil, fmt.Errorf("%w: otp generation: %v", ErrDatabaseFailed, err)
	}

	_, err = h.db.ExecContext(ctx, `
		UPDATE merchant_applications
		SET otp = $1, expires_at = $2, updated_at = $3
		WHERE id = $4`,
		otp, expiresAt, now, input.ApplicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: otp update failed: %v", ErrDatabaseFailed, err)
	}

	link := h.issuer.BuildAccessLink(input.ApplicationID, merchantEmail)

	messageID, err := h.sendAccessEmail(ctx, merchantEmail, merchantName, link, otp, expiresAt, input.Resend)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	h.logger.Info("access link issued", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"merchantEmail": merchantEmail,
		"otpExpiresAt":  expiresAt.Format(time.RFC3339),
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		AccessLink:    link,
		OTPExpiresAt:  expiresAt.Format(time.RFC3339),
		EmailSent:     true,
		MessageID:     messageID,
	}, nil
}

func (h *Handler) sendAccessEmail(ctx context.Context, to, merchantName, link, otp string, expiresAt time.Time, resend bool) (string, error) {
	subject := "Continue your merchant application"
	if resend {
		subject = "Your new merchant application access code"
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nPick up your merchant application where you left off:\n\n%s\n\nYour access code is %s. It expires on %s.\n\nIf you did not request this, you can ignore this email.\n",
		merchantName, link, otp, expiresAt.Format("January 2, 2006"),
	)

	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	}
	if h.config.ReplyTo != "" {
		input.ReplyToAddresses = []string{h.config.ReplyTo}
	}

	out, err := h.sesClient.SendEmail(ctx, input)
	if err != nil {
		return "", err
	}
	if out.MessageId != nil {
		return *out.MessageId, nil
	}
	return "", nil
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
