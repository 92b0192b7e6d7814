package profile

// ProfileResponse represents the profile page data
type ProfileResponse struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	DisplayName   string `json:"display_name,omitempty"`
	Company       string `json:"company,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
	Phone         string `json:"phone,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// UpdateProfileResponse reports where an update was stored
type UpdateProfileResponse struct {
	Target  string          `json:"target"`
	Profile ProfileResponse `json:"profile"`
}
