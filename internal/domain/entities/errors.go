package entities

import "errors"

// Domain errors
var (
	// Auth errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrEmailExists        = errors.New("email already exists")
	ErrWeakPassword       = errors.New("weak password")
	ErrIdentityNetwork    = errors.New("identity provider unreachable")
	ErrInvalidToken       = errors.New("invalid token")

	// ErrRefreshTokenRejected means the identity provider refused the stored
	// refresh token, so the user has to sign in again
	ErrRefreshTokenRejected = errors.New("refresh token rejected")

	// OAuth errors
	ErrOAuthStateMismatch = errors.New("oauth state mismatch")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// CRM errors
	ErrCRMFetchFailed   = errors.New("crm fetch failed")
	ErrCRMPersistFailed = errors.New("crm persist failed")
	ErrNoCustomerEmail  = errors.New("no customer email known")

	// Profile errors
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileUpdateFailed = errors.New("profile update failed")
	ErrStoreUnavailable    = errors.New("document store unavailable")

	// Generic errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)
