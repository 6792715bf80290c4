package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{"OVER_ALLOCATION", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeConcurrencyConflict, NormalizeErrorCode("CONCURRENCY_CONFLICT"))
	assert.Equal(t, "NOT_LATEST_PAYMENT", NormalizeErrorCode("NOT_LATEST_PAYMENT"))
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode(ErrCodeValidation))
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		kind      string
		retryable bool
	}{
		{"validation", shared.NewValidationError("OVER_ALLOCATION", "too much"), http.StatusBadRequest, "OVER_ALLOCATION", KindValidation, false},
		{"not found", shared.NewNotFoundError("invoice", "x"), http.StatusNotFound, ErrCodeNotFound, KindNotFound, false},
		{"conflict", shared.NewConflictError("stale"), http.StatusConflict, ErrCodeConcurrencyConflict, KindConflict, true},
		{"precondition", shared.NewPreconditionError("NOT_LATEST_PAYMENT", "newer payment"), http.StatusUnprocessableEntity, "NOT_LATEST_PAYMENT", KindPrecondition, false},
		{"wrapped", fmt.Errorf("apply: %w", shared.NewConflictError("stale")), http.StatusConflict, ErrCodeConcurrencyConflict, KindConflict, true},
		{"plain", errors.New("pq: connection refused"), http.StatusInternalServerError, ErrCodeInternal, KindInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := FromError(tt.err, "req-1")
			assert.Equal(t, tt.status, status)
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.kind, resp.Error.Kind)
			assert.Equal(t, tt.retryable, resp.Error.Retryable)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}

	_, resp := FromError(errors.New("secret dsn"), "")
	assert.NotContains(t, resp.Error.Message, "dsn")
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1}, 41, 2, 20)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	resp = NewSuccessResponseWithMeta(nil, 5, 1, 0)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 1, resp.Meta.TotalPages)
}

func TestValidationErrorResponse_JSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-2", []ValidationDetail{{Field: "amount", Message: "Must be greater than or equal to 0"}})
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "ERR_VALIDATION",
			"message": "Request validation failed",
			"kind": "VALIDATION",
			"request_id": "req-2",
			"details": [{"field": "amount", "message": "Must be greater than or equal to 0"}]
		}
	}`, string(body))
}
