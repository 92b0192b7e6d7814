package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	audienceSession = "session"
	audienceFlash   = "flash"
)

// Manager signs and verifies the cookies the web shell hands to browsers
type Manager struct {
	secret        []byte
	sessionExpiry time.Duration
	flashExpiry   time.Duration
	issuer        string
}

// NewManager creates a new JWT manager
func NewManager(secret string, sessionExpiry time.Duration) *Manager {
	return &Manager{
		secret:        []byte(secret),
		sessionExpiry: sessionExpiry,
		flashExpiry:   5 * time.Minute,
		issuer:        "sales-assistant",
	}
}

// GenerateSessionToken signs a session cookie value
func (m *Manager) GenerateSessionToken(sessionID uuid.UUID, uid string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		SessionID:        sessionID,
		UID:              uid,
		RegisteredClaims: m.registered(now, m.sessionExpiry, audienceSession, uid),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateSessionToken validates and parses a session cookie value
func (m *Manager) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := m.parse(tokenString, claims, audienceSession); err != nil {
		return nil, err
	}
	if claims.SessionID == uuid.Nil {
		return nil, fmt.Errorf("invalid token: missing session id")
	}
	return claims, nil
}

// GenerateFlashToken signs a flash cookie value
func (m *Manager) GenerateFlashToken(message, email string, needsVerification bool) (string, error) {
	now := time.Now()
	claims := &FlashClaims{
		Message:           message,
		Email:             email,
		NeedsVerification: needsVerification,
		RegisteredClaims:  m.registered(now, m.flashExpiry, audienceFlash, ""),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateFlashToken validates and parses a flash cookie value
func (m *Manager) ValidateFlashToken(tokenString string) (*FlashClaims, error) {
	claims := &FlashClaims{}
	if err := m.parse(tokenString, claims, audienceFlash); err != nil {
		return nil, err
	}
	return claims, nil
}

// GetSessionExpiry returns the session cookie lifetime
func (m *Manager) GetSessionExpiry() time.Duration {
	return m.sessionExpiry
}

func (m *Manager) registered(now time.Time, ttl time.Duration, audience, subject string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    m.issuer,
		Audience:  jwt.ClaimStrings{audience},
		Subject:   subject,
	}
}

func (m *Manager) parse(tokenString string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithAudience(audience))

	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
