package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
)

// Observer receives auth state changes for one web session
type Observer func(state entities.AuthState)

// Subscription is a registered observer. Unsubscribe is safe to call more than once.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery to the observer
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Resolver owns the auth state of every web session and notifies observers
// when a session is established, refreshed or ended
type Resolver struct {
	repo   repositories.SessionRepository
	ttl    time.Duration
	logger *zap.Logger

	mu        sync.Mutex
	observers map[uuid.UUID]map[uint64]Observer
	nextID    uint64
}

// NewResolver creates a new session resolver
func NewResolver(repo repositories.SessionRepository, ttl time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		repo:      repo,
		ttl:       ttl,
		logger:    logger,
		observers: make(map[uuid.UUID]map[uint64]Observer),
	}
}

// TTL returns the lifetime given to stored sessions
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// Current returns the session for id, or entities.ErrSessionNotFound
func (r *Resolver) Current(ctx context.Context, id uuid.UUID) (*entities.Session, error) {
	if id == uuid.Nil {
		return nil, entities.ErrSessionNotFound
	}
	s, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// State resolves the auth state for id. Lookup failures other than a missing
// session are returned so callers do not mistake an outage for sign-out.
func (r *Resolver) State(ctx context.Context, id uuid.UUID) (entities.AuthState, error) {
	s, err := r.Current(ctx, id)
	if err != nil {
		if errors.Is(err, entities.ErrSessionNotFound) {
			return entities.AuthState{}, nil
		}
		return entities.AuthState{Loading: true}, err
	}
	return entities.AuthState{User: s.ToPublic()}, nil
}

// Establish stores a new session and publishes it
func (r *Resolver) Establish(ctx context.Context, s *entities.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if err := r.repo.Save(ctx, s, r.ttl); err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}
	r.logger.Info("session.established",
		zap.String("session_id", s.ID.String()),
		zap.String("uid", s.UID),
		zap.String("provider", s.Provider),
	)
	r.publish(s.ID, entities.AuthState{User: s.ToPublic()})
	return nil
}

// Update stores a refreshed session and publishes it
func (r *Resolver) Update(ctx context.Context, s *entities.Session) error {
	if err := r.repo.Save(ctx, s, r.ttl); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	r.publish(s.ID, entities.AuthState{User: s.ToPublic()})
	return nil
}

// End removes the session and publishes a signed-out state
func (r *Resolver) End(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	r.logger.Info("session.ended", zap.String("session_id", id.String()))
	r.publish(id, entities.AuthState{})
	return nil
}

// Subscribe registers an observer for id. The current state is delivered
// before Subscribe returns.
func (r *Resolver) Subscribe(ctx context.Context, id uuid.UUID, obs Observer) *Subscription {
	r.mu.Lock()
	r.nextID++
	key := r.nextID
	if r.observers[id] == nil {
		r.observers[id] = make(map[uint64]Observer)
	}
	r.observers[id][key] = obs
	r.mu.Unlock()

	sub := &Subscription{cancel: func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.observers[id], key)
		if len(r.observers[id]) == 0 {
			delete(r.observers, id)
		}
	}}

	state, err := r.State(ctx, id)
	if err != nil {
		r.logger.Warn("session.resolve.failed", zap.String("session_id", id.String()), zap.Error(err))
	}
	obs(state)

	return sub
}

// SweepExpired publishes a signed-out state to observers of sessions whose
// stored record has expired, and returns how many sessions were released
func (r *Resolver) SweepExpired(ctx context.Context) int {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.observers))
	for id := range r.observers {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	released := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		_, err := r.Current(ctx, id)
		if !errors.Is(err, entities.ErrSessionNotFound) {
			continue
		}
		r.logger.Info("session.expired", zap.String("session_id", id.String()))
		r.publish(id, entities.AuthState{})
		released++
	}
	return released
}

// RunExpirySweep calls SweepExpired every interval until ctx is done
func (r *Resolver) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.SweepExpired(ctx); n > 0 {
				r.logger.Debug("session.sweep.completed", zap.Int("released", n))
			}
		}
	}
}

// ObserverCount returns how many observers are registered for id
func (r *Resolver) ObserverCount(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers[id])
}

func (r *Resolver) publish(id uuid.UUID, state entities.AuthState) {
	r.mu.Lock()
	targets := make([]Observer, 0, len(r.observers[id]))
	for _, obs := range r.observers[id] {
		targets = append(targets, obs)
	}
	r.mu.Unlock()

	for _, obs := range targets {
		obs(state)
	}
}
