package dto

import "github.com/trialworks/adherence-api/internal/models"

// LoginRequest carries staff credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginResponse returns the issued token and the authenticated account.
type LoginResponse struct {
	AccessToken string          `json:"accessToken"`
	TokenType   string          `json:"tokenType"`
	ExpiresIn   int64           `json:"expiresIn"`
	Account     *models.Account `json:"account"`
}
