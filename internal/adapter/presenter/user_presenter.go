package presenter

import (
	authDTO "github.com/johnquangdev/sales-assistant/internal/adapter/dto/auth"
	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

// ToUserResponse converts a public session to UserResponse DTO
func ToUserResponse(u *entities.PublicSession) *authDTO.UserResponse {
	if u == nil {
		return nil
	}
	return &authDTO.UserResponse{
		UID:              u.UID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		EmailVerified:    u.EmailVerified,
		Provider:         u.Provider,
		AccountCreatedAt: u.AccountCreatedAt,
	}
}

// ToSessionResponse converts an auth state to SessionResponse DTO
func ToSessionResponse(state entities.AuthState) *authDTO.SessionResponse {
	return &authDTO.SessionResponse{
		User:    ToUserResponse(state.User),
		Loading: state.Loading,
	}
}
