package crm

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
	"github.com/johnquangdev/sales-assistant/internal/usecase/session"
	"github.com/johnquangdev/sales-assistant/pkg/metrics"
)

// AuthSource is the subset of the session resolver the registry needs
type AuthSource interface {
	Subscribe(ctx context.Context, id uuid.UUID, obs session.Observer) *session.Subscription
}

// StoreFactory returns the CRM store acting on behalf of a web session
type StoreFactory func(sessionID uuid.UUID) repositories.CRMStore

type sessionEntry struct {
	sub           *session.Subscription
	conversations map[string]*Reconciler
}

// Registry keeps one reconciler per (web session, conversation) and closes
// a session's reconcilers when it signs out
type Registry struct {
	auth     AuthSource
	storeFor StoreFactory
	identity IdentityContext
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
}

// NewRegistry creates a reconciler registry
func NewRegistry(auth AuthSource, storeFor StoreFactory, identity IdentityContext, logger *zap.Logger) *Registry {
	return &Registry{
		auth:     auth,
		storeFor: storeFor,
		identity: identity,
		logger:   logger,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// Get returns the reconciler for the conversation, creating it if needed
func (r *Registry) Get(sessionID uuid.UUID, conversationID string) *Reconciler {
	r.mu.Lock()
	entry, ok := r.sessions[sessionID]
	if ok {
		if rec, exists := entry.conversations[conversationID]; exists {
			r.mu.Unlock()
			return rec
		}
	} else {
		entry = &sessionEntry{conversations: make(map[string]*Reconciler)}
		r.sessions[sessionID] = entry
	}
	rec := NewReconciler(sessionID, r.storeFor(sessionID), r.identity, r.logger)
	entry.conversations[conversationID] = rec
	needsSub := entry.sub == nil && !ok
	r.mu.Unlock()

	metrics.CRMReconcilersActive.Inc()

	if needsSub {
		sub := r.auth.Subscribe(context.Background(), sessionID, func(state entities.AuthState) {
			if state.User == nil && !state.Loading {
				r.CloseSession(sessionID)
			}
		})
		r.mu.Lock()
		if current, still := r.sessions[sessionID]; still && current == entry {
			entry.sub = sub
			r.mu.Unlock()
		} else {
			r.mu.Unlock()
			sub.Unsubscribe()
		}
	}
	return rec
}

// Lookup returns an existing reconciler without creating one
func (r *Registry) Lookup(sessionID uuid.UUID, conversationID string) (*Reconciler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	rec, ok := entry.conversations[conversationID]
	return rec, ok
}

// Remove closes and forgets one conversation's reconciler
func (r *Registry) Remove(sessionID uuid.UUID, conversationID string) bool {
	r.mu.Lock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	rec, ok := entry.conversations[conversationID]
	if ok {
		delete(entry.conversations, conversationID)
	}
	r.mu.Unlock()

	if ok {
		rec.Close()
		metrics.CRMReconcilersActive.Dec()
	}
	return ok
}

// CloseSession closes every reconciler of a web session
func (r *Registry) CloseSession(sessionID uuid.UUID) {
	r.mu.Lock()
	entry, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	entry.sub.Unsubscribe()
	for _, rec := range entry.conversations {
		rec.Close()
		metrics.CRMReconcilersActive.Dec()
	}
	r.logger.Info("crm.session.closed",
		zap.String("session_id", sessionID.String()),
		zap.Int("reconcilers", len(entry.conversations)),
	)
}

// Shutdown closes every reconciler
func (r *Registry) Shutdown() {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.CloseSession(id)
	}
}
