package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/middleware"
)

func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the request body into v
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.Validation("body", "request body is too large")
		}
		return errs.Validation("body", "invalid JSON body")
	}
	return nil
}

// pathID parses a numeric path parameter; anything else cannot name a row
func pathID(c *gin.Context, name, entity string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NotFound(entity)
	}
	return uint(id), nil
}

// queryInt parses an optional non-negative integer query parameter
func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.Validation(name, "must be a non-negative integer")
	}
	return n, nil
}
