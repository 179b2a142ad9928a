package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		code       string
		back       string
	}{
		{"authentication", ErrAuthentication, http.StatusUnauthorized, "AUTHENTICATION_FAILED", ""},
		{"registration", ErrRegistration, http.StatusConflict, "REGISTRATION_FAILED", ""},
		{"wrapped persistence", fmt.Errorf("create patient: %w", ErrPersistence), http.StatusInternalServerError, "PERSISTENCE_ERROR", ""},
		{"patient not found", ErrPatientNotFound, http.StatusNotFound, "PATIENT_NOT_FOUND", "/patients"},
		{"invalid status", ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS", ""},
		{"due date", fmt.Errorf("draft 2: %w", ErrInvalidDueDate), http.StatusBadRequest, "INVALID_DUE_DATE", ""},
		{"user not found", ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "/users"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN", ""},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.statusCode, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.Code)
			assert.Equal(t, tt.back, httpErr.ToErrorResponse().Back)
		})
	}
}

func TestMapErrorToHTTP_HidesInternalDetail(t *testing.T) {
	httpErr := MapErrorToHTTP(fmt.Errorf("dial tcp 10.0.0.1:3306: %w", ErrPersistence))
	assert.Equal(t, "failed to save changes", httpErr.Message)
}
