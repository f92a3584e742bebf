// internal/workers/draft/create-draft/handler_test.go
package createdraft

import (
	"context"
	"errors"
	"testing"
	"time"

	"merchant-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		AccessBaseURL: "https://apply.example.com",
		OTPTTLDays:    7,
	}
}

func createTestInput() *Input {
	return &Input{
		MerchantName:  "Blue Bottle Coffee",
		MerchantEmail: "owner@bluebottle.example.com",
		BusinessType:  "retail",
		MonthlyVolume: "50000",
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO merchant_applications`).
		WithArgs(
			sqlmock.AnyArg(), // application ID (UUID)
			"Blue Bottle Coffee",
			"owner@bluebottle.example.com",
			[]byte(`{"business":{"businessName":"Blue Bottle Coffee","businessType":"retail","email":"owner@bluebottle.example.com","monthlyVolume":"50000"}}`),
			14,
			"business",
			false,
			sqlmock.AnyArg(), // OTP
			sqlmock.AnyArg(), // expires_at
			1,
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.NotEmpty(t, output.ApplicationID)
	assert.Equal(t, "business", output.CurrentTab)
	assert.Equal(t, 14, output.Progress)
	assert.Equal(t, 1, output.Version)
	assert.Contains(t, output.AccessLink, "https://apply.example.com/apply/"+output.ApplicationID)
	assert.Contains(t, output.AccessLink, "email=owner%40bluebottle.example.com")

	expiresAt, err := time.Parse(time.RFC3339, output.OTPExpiresAt)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), expiresAt, time.Minute)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingName(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	input := createTestInput()
	input.MerchantName = ""
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InvalidEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	input := createTestInput()
	input.MerchantEmail = "not-an-email"
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Contains(t, err.Error(), "not a valid email")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO merchant_applications`).
		WillReturnError(errors.New("connection refused"))

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseFailed))
	assert.Contains(t, err.Error(), "insert failed")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}
