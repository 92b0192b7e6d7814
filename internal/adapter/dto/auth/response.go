package auth

import "time"

// UserResponse represents the signed-in user in responses
type UserResponse struct {
	UID              string    `json:"uid"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name,omitempty"`
	EmailVerified    bool      `json:"email_verified"`
	Provider         string    `json:"provider"`
	AccountCreatedAt time.Time `json:"account_created_at"`
}

// SessionResponse is the auth state of the caller's web session
type SessionResponse struct {
	User    *UserResponse `json:"user"`
	Loading bool          `json:"loading"`
}
