package http

import (
	"net/http"
	"time"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/services"
	"rtckit/pkg/errors"
	"rtckit/pkg/validation"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	tokenTTL    time.Duration
}

func NewAuthHandler(authService services.AuthService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokenTTL:    tokenTTL,
	}
}

func (h *AuthHandler) SetupRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/token", h.IssueToken)
	}
}

type TokenRequest struct {
	URI         string `json:"uri" binding:"required,max=512"`
	DisplayName string `json:"display_name" binding:"max=128"`
}

// IssueToken trades a claimed identity for a signed token. Identities are not
// verified against any directory.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if err := validation.ValidateIdentityURI(req.URI); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	identity, err := domain.NewIdentity(req.URI, req.DisplayName)
	if err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	token, err := h.authService.GenerateToken(identity)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"identity":   identity,
		"expires_in": int(h.tokenTTL / time.Second),
	})
}
