// internal/workers/draft/attach-draft-document/handler_test.go
package attachdraftdocument

import (
	"context"
	"errors"
	"testing"
	"time"

	"merchant-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func createTestInput() *Input {
	return &Input{
		ApplicationID: "app-001",
		FileName:      "voided-check.pdf",
		ContentType:   "application/pdf",
		SizeBytes:     240123,
		StorageKey:    "uploads/app-001/voided-check.pdf",
		UploadedBy:    "owner@bluebottle.example.com",
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT status FROM merchant_applications`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(nil))

	mock.ExpectExec(`INSERT INTO application_documents`).
		WithArgs(
			sqlmock.AnyArg(), // document ID (UUID)
			"app-001",
			"voided-check.pdf",
			"application/pdf",
			int64(240123),
			"uploads/app-001/voided-check.pdf",
			"owner@bluebottle.example.com",
			sqlmock.AnyArg(), // uploaded_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.NotEmpty(t, output.DocumentID)
	assert.Equal(t, "voided-check.pdf", output.FileName)

	_, err = time.Parse(time.RFC3339, output.UploadedAt)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RejectedContentType(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	input := createTestInput()
	input.ContentType = "application/x-msdownload"
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Contains(t, err.Error(), "not accepted")
	assert.Nil(t, output)
}

func TestHandler_Execute_OversizeFile(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	input := createTestInput()
	input.SizeBytes = 64 << 20
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Contains(t, err.Error(), "out of range")
	assert.Nil(t, output)
}

func TestHandler_Execute_TerminalDraft(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT status FROM merchant_applications`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("declined"))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftTerminal))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT status FROM merchant_applications`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftNotFound))
	assert.Nil(t, output)
}

func TestHandler_Execute_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT status FROM merchant_applications`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(nil))

	mock.ExpectExec(`INSERT INTO application_documents`).
		WillReturnError(errors.New("disk full"))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseFailed))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}
