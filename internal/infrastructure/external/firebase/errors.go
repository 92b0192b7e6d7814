package firebase

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

// APIError is an error response from the Identity Toolkit REST API
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements error interface
func (e *APIError) Error() string {
	if e.Message != "" && e.Message != e.Code {
		return fmt.Sprintf("firebase: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("firebase: %s (%d)", e.Code, e.Status)
}

// Unwrap maps provider codes onto domain errors
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "MISSING_PASSWORD":
		return entities.ErrInvalidCredentials
	case "USER_DISABLED":
		return entities.ErrUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER", "QUOTA_EXCEEDED":
		return entities.ErrTooManyAttempts
	case "EMAIL_EXISTS":
		return entities.ErrEmailExists
	case "WEAK_PASSWORD":
		return entities.ErrWeakPassword
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_NOT_FOUND", "INVALID_REFRESH_TOKEN", "INVALID_GRANT_TYPE", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return entities.ErrInvalidToken
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newAPIError splits "CODE : human text" style messages
func newAPIError(status int, env errorEnvelope) *APIError {
	raw := strings.TrimSpace(env.Error.Message)
	code, msg := raw, raw
	if i := strings.Index(raw, " : "); i >= 0 {
		code = strings.TrimSpace(raw[:i])
		msg = strings.TrimSpace(raw[i+3:])
	}
	if code == "" {
		code = "UNKNOWN"
	}
	return &APIError{Status: status, Code: code, Message: msg}
}
