package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/middleware"
	"github.com/Bigbrotherx/foodgram/backend/internal/service"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

// AuthHandler issues and revokes tokens
type AuthHandler struct {
	auth           *service.AuthService
	loginPerMinute int
}

func NewAuthHandler(auth *service.AuthService, loginPerMinute int) *AuthHandler {
	return &AuthHandler{auth: auth, loginPerMinute: loginPerMinute}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	token := router.Group("/auth/token")
	{
		token.POST("/login/", middleware.IPRateLimit(h.loginPerMinute, time.Minute), h.Login)
		token.POST("/logout/", middleware.RequireAuth(h.auth), h.Logout)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Debug().Str("email", req.Email).Msg("Login rejected")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.TokenResponse{AuthToken: token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		respondError(c, errs.Unauthorized("authentication credentials were not provided"))
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
