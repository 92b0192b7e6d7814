package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

// SessionRepository defines the interface for web session storage
type SessionRepository interface {
	// Save creates or replaces a session with the given lifetime
	Save(ctx context.Context, session *entities.Session, ttl time.Duration) error

	// FindByID finds a session by ID, returning entities.ErrSessionNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Session, error)

	// Delete removes a session
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConversationContextRepository stores session-scoped conversation context
type ConversationContextRepository interface {
	// LastKnownEmail returns the last resolved customer email, or "" when none
	LastKnownEmail(ctx context.Context, sessionID uuid.UUID) (string, error)

	// SetLastKnownEmail records the customer email for the session
	SetLastKnownEmail(ctx context.Context, sessionID uuid.UUID, email string, ttl time.Duration) error

	// ClearLastKnownEmail forgets the customer email for the session
	ClearLastKnownEmail(ctx context.Context, sessionID uuid.UUID) error
}
