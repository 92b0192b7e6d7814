package entities

import (
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated identity bound to a browser's web session
type Session struct {
	ID               uuid.UUID `json:"id"`
	UID              string    `json:"uid"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name,omitempty"`
	EmailVerified    bool      `json:"email_verified"`
	AccountCreatedAt time.Time `json:"account_created_at"`
	SignedInAt       time.Time `json:"signed_in_at"`
	Provider         string    `json:"provider"`

	// Identity provider credentials. Stored server side only.
	IDToken          string    `json:"id_token"`
	RefreshToken     string    `json:"refresh_token"`
	IDTokenExpiresAt time.Time `json:"id_token_expires_at"`
}

// NewSession creates a new web session for a signed-in identity
func NewSession(uid, email string) *Session {
	return &Session{
		ID:         uuid.New(),
		UID:        uid,
		Email:      email,
		SignedInAt: time.Now(),
		Provider:   "password",
	}
}

// AccountAge returns how long ago the account was created relative to now
func (s *Session) AccountAge(now time.Time) time.Duration {
	if s.AccountCreatedAt.IsZero() {
		// unknown creation time never qualifies for the grace period
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(s.AccountCreatedAt)
}

// TokenExpired reports whether the ID token needs a refresh before use
func (s *Session) TokenExpired(now time.Time) bool {
	// refresh a minute early so the token does not lapse mid-request
	return s.IDToken == "" || !now.Add(time.Minute).Before(s.IDTokenExpiresAt)
}

// SetTokens stores a fresh credential pair
func (s *Session) SetTokens(idToken, refreshToken string, expiresIn time.Duration) {
	s.IDToken = idToken
	if refreshToken != "" {
		s.RefreshToken = refreshToken
	}
	s.IDTokenExpiresAt = time.Now().Add(expiresIn)
}

// PublicSession is the session shape exposed to browsers
type PublicSession struct {
	UID              string    `json:"uid"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name,omitempty"`
	EmailVerified    bool      `json:"email_verified"`
	AccountCreatedAt time.Time `json:"account_created_at"`
	Provider         string    `json:"provider"`
}

// ToPublic strips credentials from the session
func (s *Session) ToPublic() *PublicSession {
	if s == nil {
		return nil
	}
	return &PublicSession{
		UID:              s.UID,
		Email:            s.Email,
		DisplayName:      s.DisplayName,
		EmailVerified:    s.EmailVerified,
		AccountCreatedAt: s.AccountCreatedAt,
		Provider:         s.Provider,
	}
}

// AuthState is what observers of a web session see: the current user, or
// nil once resolution has finished without one.
type AuthState struct {
	User    *PublicSession `json:"user"`
	Loading bool           `json:"loading"`
}
