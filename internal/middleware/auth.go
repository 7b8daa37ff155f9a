package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// RequireAuth rejects requests without a valid token
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			AbortWithError(c, errs.Unauthorized("authentication credentials were not provided"))
			return
		}
		if !authenticate(c, validator, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A token that is present
// must still be valid.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if ok && !authenticate(c, validator, token) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, validator TokenValidator, token string) bool {
	claims, err := validator.ValidateToken(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return false
	}
	c.Set(userIDKey, claims.UserID)
	c.Set(claimsKey, claims)
	return true
}

// bearerToken accepts both "Token <key>" and "Bearer <key>"
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || token == "" {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return strings.TrimSpace(token), true
	}
	return "", false
}

// ViewerID is the authenticated user id, or 0 for anonymous requests
func ViewerID(c *gin.Context) uint {
	if id, ok := c.Get(userIDKey); ok {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// Claims returns the token claims of an authenticated request
func Claims(c *gin.Context) (*types.TokenClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*types.TokenClaims)
	return claims, ok
}
