package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// AbortWithError writes err as an ErrorResponse. Errors outside the errs
// taxonomy are logged and hidden behind a generic 500.
func AbortWithError(c *gin.Context, err error) {
	e, ok := errs.As(err)
	if !ok || e.Kind == errs.KindInternal {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(e.StatusCode(), ErrorResponse{Error: e.Message, Field: e.Field})
}

// Recovery turns panics into a logged 500 JSON response
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("panic", recovered).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	})
}
