package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
)

// ConversationContext holds the last customer email resolved in a web
// session. It outlives individual CRM reconcilers and is cleared on
// sign-out or explicit reset.
type ConversationContext struct {
	repo   repositories.ConversationContextRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewConversationContext creates a new conversation context
func NewConversationContext(repo repositories.ConversationContextRepository, ttl time.Duration, logger *zap.Logger) *ConversationContext {
	return &ConversationContext{repo: repo, ttl: ttl, logger: logger}
}

// LastKnownEmail returns the remembered email, or "" when none is known.
// Read failures degrade to "".
func (c *ConversationContext) LastKnownEmail(ctx context.Context, sessionID uuid.UUID) string {
	email, err := c.repo.LastKnownEmail(ctx, sessionID)
	if err != nil {
		c.logger.Warn("crm.context.read_failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		return ""
	}
	return email
}

// Remember records email as the session's last-known customer
func (c *ConversationContext) Remember(ctx context.Context, sessionID uuid.UUID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	return c.repo.SetLastKnownEmail(ctx, sessionID, email, c.ttl)
}

// Reset forgets the session's last-known customer
func (c *ConversationContext) Reset(ctx context.Context, sessionID uuid.UUID) error {
	return c.repo.ClearLastKnownEmail(ctx, sessionID)
}
