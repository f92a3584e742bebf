// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "merchant-workers/internal/common/errors"
)

func newRetryClient(maxRetries int) *Client {
	return &Client{
		config: &ClientConfig{
			ConnectionTimeout: time.Second,
			RetryConfig: &RetryConfig{
				MaxRetries: maxRetries,
				BaseDelay:  time.Millisecond,
				MaxDelay:   5 * time.Millisecond,
			},
		},
	}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("connection refused"), true},
		{errors.New("rpc error: code = Unavailable desc = transport closing"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("broken pipe"), true},
		{errors.New("element not found"), false},
		{errors.New("invalid variables document"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(tt.err))
		})
	}
}

func TestExecuteWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	client := newRetryClient(3)

	attempts := 0
	result, err := client.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return "ok", nil
	}, "deploy-process")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	client := newRetryClient(3)

	attempts := 0
	_, err := client.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errors.New("invalid variables document")
	}, "complete-job")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.False(t, stdErr.Retryable)
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	client := newRetryClient(2)

	attempts := 0
	_, err := client.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, fmt.Errorf("broker unavailable")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_TimeoutMapsToTimeoutError(t *testing.T) {
	client := newRetryClient(0)

	_, err := client.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("context deadline exceeded")
	}, "activate-jobs")

	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeTimeout, stdErr.Code)
}
