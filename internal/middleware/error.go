package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
	"github.com/jwalitptl/beauty-api/pkg/validator"
)

// ErrorHandler renders the last error pushed with c.Error as the response
// envelope. Validation errors list the offending fields.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last().Err
		if fields, ok := validator.Translate(lastErr); ok {
			httputil.RespondWithValidationErrors(c, fields)
			return
		}

		appErr, ok := apperrors.As(lastErr)
		if !ok || appErr.Kind == apperrors.KindInternal {
			log.Error().
				Err(lastErr).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Msg("Request error")
		} else {
			log.Debug().
				Err(lastErr).
				Str("request_id", c.GetString(ContextRequestID)).
				Int("status", appErr.StatusCode()).
				Msg("Request rejected")
		}

		httputil.RespondWithError(c, lastErr)
	}
}
