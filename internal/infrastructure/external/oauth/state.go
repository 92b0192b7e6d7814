package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Store is the subset of the cache used for state tokens
type Store interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// StateManager manages OAuth state tokens for CSRF protection
type StateManager struct {
	store      Store
	expiration time.Duration
}

// NewStateManager creates a new state manager
func NewStateManager(store Store) *StateManager {
	return &StateManager{
		store:      store,
		expiration: 15 * time.Minute, // State expires in 15 minutes
	}
}

// GenerateState generates a random state token and stores it
func (sm *StateManager) GenerateState(ctx context.Context) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	state := base64.URLEncoding.EncodeToString(b)

	if err := sm.store.Set(ctx, stateKey(state), "valid", sm.expiration); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return state, nil
}

// ValidateState validates a state token (one-time use)
func (sm *StateManager) ValidateState(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}
	key := stateKey(state)

	value, exists, err := sm.store.Get(ctx, key)
	if err != nil || !exists || value != "valid" {
		return false
	}

	// Delete the state immediately (one-time use)
	_ = sm.store.Delete(ctx, key)

	return true
}

func stateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}
