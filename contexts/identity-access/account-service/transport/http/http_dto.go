package http

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ProfileDTO struct {
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Status string `json:"status"`
	Data   struct {
		Profile ProfileDTO `json:"profile"`
	} `json:"data"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPairDTO struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
	TokenType        string `json:"token_type"`
}

type LoginResponse struct {
	Status string `json:"status"`
	Data   struct {
		Tokens TokenPairDTO `json:"tokens"`
	} `json:"data"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ProfileResponse struct {
	Status string `json:"status"`
	Data   struct {
		Profile ProfileDTO `json:"profile"`
	} `json:"data"`
}

type ListProfilesResponse struct {
	Status string `json:"status"`
	Data   struct {
		Profiles []ProfileDTO `json:"profiles"`
	} `json:"data"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type EmailVerificationRequest struct {
	Email string `json:"email"`
}

type EmailVerificationConfirmRequest struct {
	Token string `json:"token"`
}

type AcceptedResponse struct {
	Status string `json:"status"`
}
