// internal/workers/access/issue-access-link/handler_test.go
package issueaccesslink

import (
	"context"
	"errors"
	"testing"
	"time"

	"merchant-workers/internal/common/access"
	"merchant-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

func createTestConfig() *Config {
	return &Config{
		Timeout:       15 * time.Second,
		AccessBaseURL: "https://apply.example.com",
		OTPTTLDays:    7,
		AWSRegion:     "us-east-1",
		FromEmail:     "noreply@apply.example.com",
	}
}

func TestHandler_Execute_RotatesAndSends(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, status`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"merchant_name", "merchant_email", "status"}).
			AddRow("Blue Bottle Coffee", "owner@bluebottle.example.com", nil))

	mock.ExpectExec(`UPDATE merchant_applications`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "app-001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	var sentTo string
	var sentSubject string
	var sentBody string
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sentTo = params.Destination.ToAddresses[0]
			sentSubject = *params.Message.Subject.Data
			sentBody = *params.Message.Body.Text.Data
			return &ses.SendEmailOutput{MessageId: aws.String("msg-123")}, nil
		},
	}

	cfg := createTestConfig()
	handler := &Handler{
		config:    cfg,
		db:        db,
		issuer:    access.NewIssuer(cfg.AccessBaseURL, cfg.OTPTTLDays),
		sesClient: sesMock,
		logger:    logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001"})

	assert.NoError(t, err)
	assert.True(t, output.EmailSent)
	assert.Equal(t, "msg-123", output.MessageID)
	assert.Equal(t, "owner@bluebottle.example.com", sentTo)
	assert.Equal(t, "Continue your merchant application", sentSubject)
	assert.Contains(t, sentBody, "https://apply.example.com/apply/app-001")
	assert.Contains(t, output.AccessLink, "app-001")

	expiresAt, err := time.Parse(time.RFC3339, output.OTPExpiresAt)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), expiresAt, time.Minute)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ResendChangesSubject(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, status`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"merchant_name", "merchant_email", "status"}).
			AddRow("Blue Bottle Coffee", "owner@bluebottle.example.com", nil))

	mock.ExpectExec(`UPDATE merchant_applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var sentSubject string
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sentSubject = *params.Message.Subject.Data
			return &ses.SendEmailOutput{MessageId: aws.String("msg-456")}, nil
		},
	}

	cfg := createTestConfig()
	handler := &Handler{
		config:    cfg,
		db:        db,
		issuer:    access.NewIssuer(cfg.AccessBaseURL, cfg.OTPTTLDays),
		sesClient: sesMock,
		logger:    logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001", Resend: true})

	assert.NoError(t, err)
	assert.True(t, output.EmailSent)
	assert.Equal(t, "Your new merchant application access code", sentSubject)
}

func TestHandler_Execute_TerminalDraft(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, status`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"merchant_name", "merchant_email", "status"}).
			AddRow("Blue Bottle Coffee", "owner@bluebottle.example.com", "removed"))

	cfg := createTestConfig()
	handler := &Handler{
		config: cfg,
		db:     db,
		issuer: access.NewIssuer(cfg.AccessBaseURL, cfg.OTPTTLDays),
		logger: logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftTerminal))
	assert.Nil(t, output)
}

func TestHandler_Execute_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, status`).
		WithArgs("app-missing").
		WillReturnRows(sqlmock.NewRows([]string{"merchant_name", "merchant_email", "status"}))

	cfg := createTestConfig()
	handler := &Handler{
		config: cfg,
		db:     db,
		issuer: access.NewIssuer(cfg.AccessBaseURL, cfg.OTPTTLDays),
		logger: logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-missing"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftNotFound))
	assert.Nil(t, output)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, status`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"merchant_name", "merchant_email", "status"}).
			AddRow("Blue Bottle Coffee", "owner@bluebottle.example.com", nil))

	mock.ExpectExec(`UPDATE merchant_applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("ses throttled")
		},
	}

	cfg := createTestConfig()
	handler := &Handler{
		config:    cfg,
		db:        db,
		issuer:    access.NewIssuer(cfg.AccessBaseURL, cfg.OTPTTLDays),
		sesClient: sesMock,
		logger:    logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmailSendFailed))
	assert.Nil(t, output)
}
