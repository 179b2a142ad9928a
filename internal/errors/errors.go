package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrAuthentication is returned on bad credentials or when no local profile matches the identity.
	ErrAuthentication = errors.New("invalid email or password")
	// ErrRegistration is returned when the email is already registered.
	ErrRegistration = errors.New("user already exists with this email")
	// ErrPersistence wraps store read/write failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrPatientNotFound is returned when a patient lookup by id yields nothing.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrUserNotFound is returned when a directory lookup by id yields nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidDepartment is returned for a department outside the enum.
	ErrInvalidDepartment = errors.New("invalid department")
	// ErrInvalidRole is returned for a role outside the enum.
	ErrInvalidRole = errors.New("invalid role")
	// ErrForbidden is returned when the acting user may not perform the operation.
	ErrForbidden = errors.New("operation not permitted for this user")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrInvalidResetToken is returned when a password reset token is unknown or expired.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrInvalidDueDate is returned when a due date is not a YYYY-MM-DD date.
	ErrInvalidDueDate = errors.New("due date must be formatted as YYYY-MM-DD")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Redirect string `json:"redirect,omitempty"`
	Back     string `json:"back,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Back       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
		Back:  e.Back,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrAuthentication):
		return NewHTTPError(http.StatusUnauthorized, ErrAuthentication.Error(), "AUTHENTICATION_FAILED")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidRefreshToken.Error(), "INVALID_REFRESH_TOKEN")
	case errors.Is(err, ErrRegistration):
		return NewHTTPError(http.StatusConflict, ErrRegistration.Error(), "REGISTRATION_FAILED")
	case errors.Is(err, ErrPatientNotFound):
		httpErr := NewHTTPError(http.StatusNotFound, ErrPatientNotFound.Error(), "PATIENT_NOT_FOUND")
		httpErr.Back = "/patients"
		return httpErr
	case errors.Is(err, ErrUserNotFound):
		httpErr := NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
		httpErr.Back = "/users"
		return httpErr
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidStatus.Error(), "INVALID_STATUS")
	case errors.Is(err, ErrInvalidDepartment):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidDepartment.Error(), "INVALID_DEPARTMENT")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidRole.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrInvalidResetToken):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidResetToken.Error(), "INVALID_RESET_TOKEN")
	case errors.Is(err, ErrInvalidDueDate):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidDueDate.Error(), "INVALID_DUE_DATE")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrPersistence):
		return NewHTTPError(http.StatusInternalServerError, "failed to save changes", "PERSISTENCE_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
