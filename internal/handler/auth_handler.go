package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trialworks/adherence-api/internal/dto"
	"github.com/trialworks/adherence-api/internal/service"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
	"github.com/trialworks/adherence-api/pkg/response"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates a staff account.
// @Summary Authenticate a staff account
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "credentials"
// @Success 200 {object} response.Envelope{data=dto.LoginResponse}
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload"))
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
