package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"artboard/internal/apperr"
)

// writeError maps the service error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an internal error; its details stay in the log.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	var (
		verr *apperr.ValidationError
		cerr *apperr.ConflictError
		nerr *apperr.NotFoundError
		uerr *apperr.UnauthorizedError
		serr *apperr.StorageError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"field":  verr.Field,
			"reason": verr.Reason,
		})
	case errors.As(err, &cerr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "conflict",
			"field":      cerr.Field,
			"existingId": cerr.ExistingID,
		})
	case errors.As(err, &nerr):
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "not_found",
			"entity": nerr.Entity,
			"id":     nerr.ID,
		})
	case errors.As(err, &uerr):
		status := http.StatusUnauthorized
		if uerr.Forbidden {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": "unauthorized"})
	case errors.As(err, &serr):
		h.log.Error().Err(err).Str("key", serr.Key).Str("op", serr.Op).Msg("object storage failure")
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage_unavailable"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}

// parsePositive reads a positive integer query parameter, clamped to max.
func parsePositive(raw string, fallback, max int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	if v > max {
		return max
	}
	return v
}
