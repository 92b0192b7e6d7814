package auth

// SignInRequest represents the email/password sign-in form
type SignInRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// SignUpRequest represents the sign-up form
type SignUpRequest struct {
	DisplayName string `json:"display_name" form:"display_name" validate:"omitempty,max=255"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"required,min=6,max=128"`
}

// ExchangeRequest carries tokens from a client-side Firebase sign-in
type ExchangeRequest struct {
	IDToken      string `json:"id_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
}
