package auth

import (
	"errors"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

// UserMessage converts a sign-in failure into text for the login and signup pages
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, entities.ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, entities.ErrUserDisabled):
		return "This account has been disabled. Please contact support."
	case errors.Is(err, entities.ErrTooManyAttempts):
		return "Too many attempts. Please wait a moment and try again."
	case errors.Is(err, entities.ErrIdentityNetwork):
		return "We couldn't reach the sign-in service. Check your connection and try again."
	case errors.Is(err, entities.ErrEmailExists):
		return "An account with this email already exists. Try logging in instead."
	case errors.Is(err, entities.ErrWeakPassword):
		return "Password must be at least 6 characters."
	case errors.Is(err, entities.ErrOAuthStateMismatch):
		return "Your sign-in attempt expired. Please try again."
	case errors.Is(err, entities.ErrInvalidToken), errors.Is(err, entities.ErrSessionExpired):
		return "Your session has expired. Please log in again."
	}
	return "Something went wrong. Please try again."
}
