package jwt

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload of the web session cookie
type SessionClaims struct {
	SessionID uuid.UUID `json:"sid"`
	UID       string    `json:"uid"`
	jwt.RegisteredClaims
}

// FlashClaims carries a one-shot message to the page after a redirect
type FlashClaims struct {
	Message           string `json:"msg"`
	Email             string `json:"email,omitempty"`
	NeedsVerification bool   `json:"nv,omitempty"`
	jwt.RegisteredClaims
}
