// internal/workers/actions/record-terminal-action/handler_test.go
package recordterminalaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"merchant-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
)

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func createTestConfig() *Config {
	return &Config{
		Timeout:     15 * time.Second,
		AWSRegion:   "us-east-1",
		SNSTopicARN: "arn:aws:sns:us-east-1:000000000000:merchant-actions",
	}
}

func createTestInput() *Input {
	return &Input{
		ApplicationID: "app-001",
		Action:        "declined",
		Reason:        "Prohibited business category",
		ActionedBy:    "reviewer@processor.example.com",
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM merchant_applications`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(nil))
	mock.ExpectExec(`UPDATE merchant_applications`).
		WithArgs("declined", "Prohibited business category", "reviewer@processor.example.com", sqlmock.AnyArg(), "app-001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO application_action_log`).
		WithArgs("app-001", "declined", "Prohibited business category", "reviewer@processor.example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var published bool
	handler := &Handler{
		config: createTestConfig(),
		db:     db,
		snsClient: &MockSNSService{
			PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
				published = true
				assert.Contains(t, *params.Message, "app-001")
				return &sns.PublishOutput{}, nil
			},
		},
		logger: logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, "declined", output.Status)
	assert.True(t, output.Notified)
	assert.True(t, published)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AlreadyTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM merchant_applications`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("removed"))
	mock.ExpectRollback()

	handler := &Handler{config: createTestConfig(), db: db, logger: logger.NewTestLogger(t)}

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftTerminal))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_LogInsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM merchant_applications`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(nil))
	mock.ExpectExec(`UPDATE merchant_applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO application_action_log`).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	handler := &Handler{config: createTestConfig(), db: db, logger: logger.NewTestLogger(t)}

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrTerminalActionFailed))
	assert.Contains(t, err.Error(), "action log append")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InvalidAction(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := &Handler{config: createTestConfig(), db: db, logger: logger.NewTestLogger(t)}

	input := createTestInput()
	input.Action = "archived"
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Nil(t, output)
}

func TestHandler_Execute_MissingReason(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := &Handler{config: createTestConfig(), db: db, logger: logger.NewTestLogger(t)}

	input := createTestInput()
	input.Reason = ""
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Nil(t, output)
}

func TestHandler_Execute_NotifyFailureDoesNotFailJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM merchant_applications`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(nil))
	mock.ExpectExec(`UPDATE merchant_applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO application_action_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	handler := &Handler{
		config: createTestConfig(),
		db:     db,
		snsClient: &MockSNSService{
			PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
				return nil, errors.New("topic unavailable")
			},
		},
		logger: logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.False(t, output.Notified)
	assert.Equal(t, "declined", output.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}
