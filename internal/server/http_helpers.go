package server

import (
	"context"
	"errors"
	"net/http"

	"hear-me-out/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// writeEngineError maps engine error kinds onto HTTP statuses.
func writeEngineError(c *gin.Context, err error) {
	status, message := engineErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": message})
}

func engineErrorStatus(err error) (int, string) {
	var guardErr *game.GuardError
	switch {
	case errors.As(err, &guardErr):
		return http.StatusConflict, guardErr.Reason
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, "room not found"
	case errors.Is(err, game.ErrPreconditionFailed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, game.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, game.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, game.ErrStoreUnavailable.Error()
	}
	return http.StatusInternalServerError, "internal error"
}
