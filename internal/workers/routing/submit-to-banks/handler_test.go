// internal/workers/routing/submit-to-banks/handler_test.go
package submittobanks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpclient "merchant-workers/internal/common/http"
	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedDraftRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"merchant_name", "merchant_email", "application_data", "completed", "status"}).
		AddRow("Blue Bottle Coffee", "owner@bluebottle.example.com",
			[]byte(`{"business":{"legalName":"Blue Bottle Coffee LLC"}}`), true, nil)
}

func TestHandler_Execute_MixedAPIAndManual(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var gotAuth string
	var gotBody bankSubmission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Api-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(bankResponse{Reference: "REF-42", Accepted: true})
	}))
	defer srv.Close()

	banks := []models.BankCandidate{
		{ID: "api-bank", Name: "API Bank", CompatibilityScore: 90, APIAvailable: true, SubmitURL: srv.URL},
		{ID: "manual-bank", Name: "Manual Bank", CompatibilityScore: 60, APIAvailable: false},
	}

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(completedDraftRow())

	handler := &Handler{
		config: &Config{
			Timeout:       30 * time.Second,
			SubmitTimeout: 2 * time.Second,
			CallbackURL:   "https://workers.example.com/bank-callback",
			APIKey:        "test-key",
		},
		db:         db,
		httpClient: httpclient.NewClient(2 * time.Second),
		banks:      banks,
		logger:     logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-001",
		BankIDs:       []string{"api-bank", "manual-bank"},
	})

	assert.NoError(t, err)
	require.Len(t, output.Results, 2)

	assert.Equal(t, StatusSubmitted, output.Results[0].Status)
	assert.Equal(t, "REF-42", output.Results[0].Reference)
	assert.Equal(t, 90, output.Results[0].Score)

	assert.Equal(t, StatusManualQueue, output.Results[1].Status)

	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, "app-001", gotBody.ApplicationID)
	assert.Equal(t, "Blue Bottle Coffee", gotBody.MerchantName)
	assert.Equal(t, "https://workers.example.com/bank-callback", gotBody.CallbackURL)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_PartialFailureStillCompletes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	banks := []models.BankCandidate{
		{ID: "down-bank", Name: "Down Bank", CompatibilityScore: 80, APIAvailable: true, SubmitURL: srv.URL},
		{ID: "manual-bank", Name: "Manual Bank", CompatibilityScore: 60, APIAvailable: false},
	}

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(completedDraftRow())

	handler := &Handler{
		config:     &Config{Timeout: 30 * time.Second, SubmitTimeout: 2 * time.Second},
		db:         db,
		httpClient: httpclient.NewClient(2 * time.Second),
		banks:      banks,
		logger:     logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-001",
		BankIDs:       []string{"down-bank", "manual-bank"},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Results[0].Status)
	assert.NotEmpty(t, output.Results[0].Error)
	assert.Equal(t, StatusManualQueue, output.Results[1].Status)
}

func TestHandler_Execute_AllFailuresFailJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	banks := []models.BankCandidate{
		{ID: "down-bank", Name: "Down Bank", CompatibilityScore: 80, APIAvailable: true, SubmitURL: srv.URL},
	}

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(completedDraftRow())

	handler := &Handler{
		config:     &Config{Timeout: 30 * time.Second, SubmitTimeout: 2 * time.Second},
		db:         db,
		httpClient: httpclient.NewClient(2 * time.Second),
		banks:      banks,
		logger:     logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-001",
		BankIDs:       []string{"down-bank"},
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrBankSubmitFailed))
	assert.Nil(t, output)
}

func TestHandler_Execute_NotCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"merchant_name", "merchant_email", "application_data", "completed", "status"}).
			AddRow("Blue Bottle Coffee", "owner@bluebottle.example.com", []byte(`{}`), false, nil))

	handler := &Handler{
		config:     &Config{Timeout: 30 * time.Second, SubmitTimeout: 2 * time.Second},
		db:         db,
		httpClient: httpclient.NewClient(2 * time.Second),
		banks:      models.PartnerBanks,
		logger:     logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-001",
		BankIDs:       []string{"first-national"},
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftNotCompleted))
	assert.Nil(t, output)
}

func TestHandler_Execute_TerminalDraft(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT merchant_name, merchant_email, application_data`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"merchant_name", "merchant_email", "application_data", "completed", "status"}).
			AddRow("Blue Bottle Coffee", "owner@bluebottle.example.com", []byte(`{}`), true, models.StatusDeclined))

	handler := &Handler{
		config:     &Config{Timeout: 30 * time.Second, SubmitTimeout: 2 * time.Second},
		db:         db,
		httpClient: httpclient.NewClient(2 * time.Second),
		banks:      models.PartnerBanks,
		logger:     logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-001",
		BankIDs:       []string{"first-national"},
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDraftTerminal))
	assert.Nil(t, output)
}

func TestHandler_Execute_UnknownBank(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := &Handler{
		config:     &Config{Timeout: 30 * time.Second, SubmitTimeout: 2 * time.Second},
		db:         db,
		httpClient: httpclient.NewClient(2 * time.Second),
		banks:      models.PartnerBanks,
		logger:     logger.NewTestLogger(t),
	}

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-001",
		BankIDs:       []string{"nonexistent-bank"},
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Nil(t, output)
}
