package presenter

import (
	profileDTO "github.com/johnquangdev/sales-assistant/internal/adapter/dto/profile"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/usecase/profile"
)

// ToProfileResponse converts a profile view to ProfileResponse DTO
func ToProfileResponse(v *profile.View) *profileDTO.ProfileResponse {
	if v == nil {
		return nil
	}
	return &profileDTO.ProfileResponse{
		UID:           v.UID,
		Email:         v.Email,
		EmailVerified: v.EmailVerified,
		DisplayName:   deref(v.Fields.DisplayName),
		Company:       deref(v.Fields.Company),
		JobTitle:      deref(v.Fields.JobTitle),
		Phone:         deref(v.Fields.Phone),
		AvatarURL:     deref(v.Fields.AvatarURL),
	}
}

// ToProfileFields converts an update request to profile fields
func ToProfileFields(req *profileDTO.UpdateProfileRequest) entities.ProfileFields {
	return entities.ProfileFields{
		DisplayName: req.DisplayName,
		Company:     req.Company,
		JobTitle:    req.JobTitle,
		Phone:       req.Phone,
		AvatarURL:   req.AvatarURL,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
