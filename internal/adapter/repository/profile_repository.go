package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
)

// ProfileRepository implements the profile document store using GORM on a JSONB column
type ProfileRepository struct {
	db *gorm.DB
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

// FindByUserID finds a profile by user ID
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*entities.Profile, error) {
	var profile entities.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile by user ID: %w", err)
	}
	return &profile, nil
}

// Merge upserts the profile, concatenating the patch onto the stored document
// so keys absent from the patch keep their values
func (r *ProfileRepository) Merge(ctx context.Context, userID, email string, fields entities.ProfileFields) (*entities.Profile, error) {
	patch, err := fields.Patch()
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile patch: %w", err)
	}

	profile := &entities.Profile{
		UserID:   userID,
		Email:    email,
		Document: patch,
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"document":   gorm.Expr("profiles.document || EXCLUDED.document"),
			"email":      gorm.Expr("EXCLUDED.email"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to merge profile: %w", err)
	}

	return r.FindByUserID(ctx, userID)
}
