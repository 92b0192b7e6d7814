package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
	"github.com/johnquangdev/sales-assistant/internal/infrastructure/cache"
)

// SessionRepository implements the session repository interface on the key-value store
type SessionRepository struct {
	store cache.Store
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new session repository
func NewSessionRepository(store cache.Store) *SessionRepository {
	return &SessionRepository{
		store: store,
	}
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s", id)
}

// Save creates or replaces a session
func (r *SessionRepository) Save(ctx context.Context, session *entities.Session, ttl time.Duration) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.store.Set(ctx, sessionKey(session.ID), string(b), ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// FindByID finds a session by ID
func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Session, error) {
	raw, ok, err := r.store.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	if !ok {
		return nil, entities.ErrSessionNotFound
	}

	var session entities.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Delete removes a session
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.Delete(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ConversationContextRepository keeps the last-known customer email per web session
type ConversationContextRepository struct {
	store cache.Store
}

var _ repositories.ConversationContextRepository = (*ConversationContextRepository)(nil)

// NewConversationContextRepository creates a new conversation context repository
func NewConversationContextRepository(store cache.Store) *ConversationContextRepository {
	return &ConversationContextRepository{store: store}
}

func lastEmailKey(id uuid.UUID) string {
	return fmt.Sprintf("crm:last_email:%s", id)
}

// LastKnownEmail returns the stored email or ""
func (r *ConversationContextRepository) LastKnownEmail(ctx context.Context, sessionID uuid.UUID) (string, error) {
	email, ok, err := r.store.Get(ctx, lastEmailKey(sessionID))
	if err != nil {
		return "", fmt.Errorf("failed to read last known email: %w", err)
	}
	if !ok {
		return "", nil
	}
	return email, nil
}

// SetLastKnownEmail records the email
func (r *ConversationContextRepository) SetLastKnownEmail(ctx context.Context, sessionID uuid.UUID, email string, ttl time.Duration) error {
	if err := r.store.Set(ctx, lastEmailKey(sessionID), email, ttl); err != nil {
		return fmt.Errorf("failed to store last known email: %w", err)
	}
	return nil
}

// ClearLastKnownEmail forgets the email
func (r *ConversationContextRepository) ClearLastKnownEmail(ctx context.Context, sessionID uuid.UUID) error {
	if err := r.store.Delete(ctx, lastEmailKey(sessionID)); err != nil {
		return fmt.Errorf("failed to clear last known email: %w", err)
	}
	return nil
}
