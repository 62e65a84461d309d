package middleware

import (
	"net/http"

	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// StatusFor maps a service error to an HTTP status and a client-safe message.
// Unknown errors are a 500 with a generic message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrBackupNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidType),
		errors.Is(err, services.ErrInvalidTheme),
		errors.Is(err, services.ErrInvalidAudience),
		errors.Is(err, services.ErrInvalidBroadcast),
		errors.Is(err, services.ErrUnknownOperation),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrUnknownProvider),
		errors.Is(err, services.ErrInvalidBackupName):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, services.ErrSelfRoleChange):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrUserExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, services.ErrOperationUnsupported):
		return http.StatusUnprocessableEntity, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

// ErrorHandler renders the last error attached with c.Error as the JSON error envelope.
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, msg := StatusFor(err)
		if status == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request.Method).
				Str("path", c.FullPath()).
				Msg("unhandled error")
		}
		c.JSON(status, gin.H{"error": msg})
	}
}
