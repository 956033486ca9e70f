package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changex/eduspace/internal/app/models/dto"
	"github.com/changex/eduspace/internal/pkg/apperrors"
)

func TestHandleAPIErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"offering not found", apperrors.ErrOfferingNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"enrollment not found", apperrors.ErrEnrollmentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"already enrolled", apperrors.ErrAlreadyEnrolled, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"already waitlisted", apperrors.ErrAlreadyWaitlisted, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"enrollment not active", apperrors.ErrEnrollmentNotActive, http.StatusConflict, dto.ErrorCodeEnrollmentNotActive},
		{"permission denied", apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeUnauthorized},
		{"invalid credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"token expired", apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"validation failed", apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"store unavailable", apperrors.ErrStoreUnavailable, http.StatusServiceUnavailable, dto.ErrorCodeDatabaseError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			var response dto.ErrorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
			assert.False(t, response.Success)
			require.NotNil(t, response.Error)
			assert.Equal(t, tt.wantCode, response.Error.Code)
		})
	}
}

func TestHandleAPIErrorCustomErrorDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/test", nil)

	err := apperrors.NewCustomError(apperrors.ErrEnrollmentNotActive, "enrollment is completed").
		WithDetails(map[string]interface{}{"status": "completed"})
	HandleAPIError(c, err)

	assert.Equal(t, http.StatusConflict, recorder.Code)

	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.NotNil(t, response.Error)
	assert.Equal(t, dto.ErrorCodeEnrollmentNotActive, response.Error.Code)
	assert.Equal(t, "enrollment is completed", response.Error.Message)
	assert.Equal(t, map[string]interface{}{"status": "completed"}, response.Error.Details)
}

func TestHandleAPIErrorWrappedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	wrapped := errors.Join(errors.New("context"), apperrors.ErrOfferingNotFound)
	HandleAPIError(c, wrapped)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
