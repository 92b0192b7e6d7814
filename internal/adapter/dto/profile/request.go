package profile

// UpdateProfileRequest represents a partial profile update. Omitted fields
// are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=255"`
	Company     *string `json:"company,omitempty" validate:"omitempty,max=255"`
	JobTitle    *string `json:"job_title,omitempty" validate:"omitempty,max=255"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}
