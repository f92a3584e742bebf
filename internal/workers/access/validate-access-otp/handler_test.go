// internal/workers/access/validate-access-otp/handler_test.go
package validateaccessotp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func draftRow(otp string, expiresAt time.Time, status interface{}) *sqlmock.Rows {
	data := `{"business":{"legalName":"Blue Bottle Coffee LLC"},"ownership":{"ownerName":"J. Freeman"}}`
	return sqlmock.NewRows([]string{
		"otp", "expires_at", "merchant_name", "merchant_email", "application_data",
		"current_tab", "progress", "completed", "version", "status",
	}).AddRow(otp, expiresAt, "Blue Bottle Coffee", "owner@bluebottle.example.com",
		[]byte(data), "financial", 71, false, 4, status)
}

func TestHandler_Execute_ValidCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr, redisClient := newTestRedis(t)

	mock.ExpectQuery(`SELECT otp, expires_at, merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(draftRow("123456", time.Now().UTC().Add(24*time.Hour), nil))

	handler := NewHandler(LoadConfig(5, 30), db, redisClient, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001", OTP: "123456"})

	assert.NoError(t, err)
	assert.True(t, output.Valid)
	assert.NotEmpty(t, output.SessionToken)
	assert.Equal(t, "financial", output.CurrentTab)
	assert.Equal(t, 71, output.Progress)

	// The resuming merchant gets the draft back, previously saved fields included.
	assert.Equal(t, "Blue Bottle Coffee", output.MerchantName)
	assert.Equal(t, "owner@bluebottle.example.com", output.MerchantEmail)
	assert.Equal(t, "Blue Bottle Coffee LLC", output.ApplicationData[models.StepBusiness]["legalName"])
	assert.Equal(t, "J. Freeman", output.ApplicationData[models.StepOwnership]["ownerName"])
	assert.False(t, output.Completed)
	assert.Equal(t, 4, output.Version)

	// Session stored in Redis with the application bound to it
	raw, err := mr.Get("access-session:" + output.SessionToken)
	require.NoError(t, err)
	var session models.AccessSession
	require.NoError(t, json.Unmarshal([]byte(raw), &session))
	assert.Equal(t, "app-001", session.ApplicationID)
	assert.Equal(t, "owner@bluebottle.example.com", session.MerchantEmail)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MismatchCountsAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr, redisClient := newTestRedis(t)

	mock.ExpectQuery(`SELECT otp, expires_at, merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(draftRow("123456", time.Now().UTC().Add(24*time.Hour), nil))

	handler := NewHandler(LoadConfig(5, 30), db, redisClient, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001", OTP: "000000"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenMismatch))
	assert.Nil(t, output)

	count, err := mr.Get("otp-attempts:app-001")
	require.NoError(t, err)
	assert.Equal(t, "1", count)
	assert.Greater(t, mr.TTL("otp-attempts:app-001"), time.Duration(0))
}

func TestHandler_Execute_LockoutAfterMaxAttempts(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr, redisClient := newTestRedis(t)
	mr.Set("otp-attempts:app-001", "5")

	handler := NewHandler(LoadConfig(5, 30), db, redisClient, logger.NewTestLogger(t))

	// The stored code is never even read once locked out.
	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001", OTP: "123456"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyAttempts))
	assert.Nil(t, output)
}

func TestHandler_Execute_ExpiredBeatsCorrectCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr, redisClient := newTestRedis(t)

	mock.ExpectQuery(`SELECT otp, expires_at, merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(draftRow("123456", time.Now().UTC().Add(-time.Hour), nil))

	handler := NewHandler(LoadConfig(5, 30), db, redisClient, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001", OTP: "123456"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.Nil(t, output)

	// Expiry is not a failed guess
	assert.False(t, mr.Exists("otp-attempts:app-001"))
}

func TestHandler_Execute_ValidClearsAttempts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr, redisClient := newTestRedis(t)
	mr.Set("otp-attempts:app-001", "3")

	mock.ExpectQuery(`SELECT otp, expires_at, merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(draftRow("123456", time.Now().UTC().Add(24*time.Hour), nil))

	handler := NewHandler(LoadConfig(5, 30), db, redisClient, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001", OTP: "123456"})

	assert.NoError(t, err)
	assert.True(t, output.Valid)
	assert.False(t, mr.Exists("otp-attempts:app-001"))
}

func TestHandler_Execute_TerminalDraft(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, redisClient := newTestRedis(t)

	mock.ExpectQuery(`SELECT otp, expires_at, merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(draftRow("123456", time.Now().UTC().Add(24*time.Hour), "declined"))

	handler := NewHandler(LoadConfig(5, 30), db, redisClient, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001", OTP: "123456"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftTerminal))
	assert.Nil(t, output)
}
