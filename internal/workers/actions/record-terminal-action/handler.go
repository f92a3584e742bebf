// internal/workers/actions/record-terminal-action/handler.go
package recordterminalaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-terminal-action"
)

var (
	ErrValidationFailed     = errors.New("VALIDATION_FAILED")
	ErrDraftNotFound        = errors.New("DRAFT_NOT_FOUND")
	ErrDraftTerminal        = errors.New("DRAFT_TERMINAL")
	ErrTerminalActionFailed = errors.New("TERMINAL_ACTION_FAILED")
)

// SNSService allows mocking the SNS client in tests
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	snsClient SNSService
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
		snsClient: sns.NewFromConfig(awsCfg),
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
		case errors.Is(err, ErrTerminalActionFailed):
			errorCode = "TERMINAL_ACTION_FAILED"
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
	if !models.IsValidAction(input.Action) {
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidationFailed, input.Action)
	}
	if input.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidationFailed)
	}
	if input.ActionedBy == "" {
		return nil, fmt.Errorf("%w: actionedBy is required", ErrValidationFailed)
	}

	now := time.Now().UTC()

	// The status flip and the log append are one atomic unit. A draft can
	// never end up terminal without its log entry, or logged without the flip.
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrTerminalActionFailed, err)
	}
	defer tx.Rollback()

	var status sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM merchant_applications WHERE id = $1 FOR UPDATE`,
		input.ApplicationID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrDraftNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load failed: %v", ErrTerminalActionFailed, err)
	}
	if status.String == models.StatusDeclined || status.String == models.StatusRemoved {
		return nil, fmt.Errorf("%w: application %s is already %s",
			ErrDraftTerminal, input.ApplicationID, status.String)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE merchant_applications
		SET status = $1, action_reason = $2, actioned_by = $3, actioned_at = $4,
		    version = version + 1, updated_at = $4
		WHERE id = $5`,
		input.Action, input.Reason, input.ActionedBy, now, input.ApplicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: status update: %v", ErrTerminalActionFailed, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO application_action_log (application_id, action, reason, actioned_by, actioned_at)
		VALUES ($1, $2, $3, $4, $5)`,
		input.ApplicationID, input.Action, input.Reason, input.ActionedBy, now,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: action log append: %v", ErrTerminalActionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrTerminalActionFailed, err)
	}

	notified := h.notifyStaff(ctx, input, now)

	h.logger.Info("terminal action recorded", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"action":        input.Action,
		"actionedBy":    input.ActionedBy,
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		Action:        input.Action,
		Status:        input.Action,
		ActionedAt:    now.Format(time.RFC3339),
		Notified:      notified,
	}, nil
}

// notifyStaff publishes the decision to the staff topic. The decision itself
// is already committed; a failed publish is logged and swallowed.
func (h *Handler) notifyStaff(ctx context.Context, input *Input, actionedAt time.Time) bool {
	if h.snsClient == nil || h.config.SNSTopicARN == "" {
		return false
	}

	message, err := json.Marshal(map[string]interface{}{
		"applicationId": input.ApplicationID,
		"action":        input.Action,
		"reason":        input.Reason,
		"actionedBy":    input.ActionedBy,
		"actionedAt":    actionedAt.Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Warn("staff notification marshal failed", map[string]interface{}{
			"error": err,
		})
		return false
	}

	_, err = h.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.SNSTopicARN),
		Subject:  aws.String(fmt.Sprintf("Application %s %s", input.ApplicationID, input.Action)),
		Message:  aws.String(string(message)),
	})
	if err != nil {
		h.logger.Warn("staff notification publish failed", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"error":         err,
		})
		return false
	}
	return true
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
