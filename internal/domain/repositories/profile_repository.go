package repositories

import (
	"context"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

// ProfileRepository defines the interface for the profile document store
type ProfileRepository interface {
	// FindByUserID finds a profile, returning entities.ErrProfileNotFound when absent
	FindByUserID(ctx context.Context, userID string) (*entities.Profile, error)

	// Merge applies the non-nil fields onto the stored document, creating it
	// if needed. Fields not present in the update are preserved.
	Merge(ctx context.Context, userID, email string, fields entities.ProfileFields) (*entities.Profile, error)
}
