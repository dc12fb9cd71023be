// Package handlers implements the HTTP API: product tracking,
// crawl triggers, price history, and analytics views.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/minsu-lab/mstrack/internal/auth"
	"github.com/minsu-lab/mstrack/internal/utils"
)

type AuthHandler struct {
	auth *auth.Authenticator
}

func NewAuthHandler(a *auth.Authenticator) *AuthHandler {
	return &AuthHandler{auth: a}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid credentials")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   1800,
	})
}
