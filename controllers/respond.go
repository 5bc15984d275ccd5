package controllers

import (
	"errors"
	"net/http"

	"github.com/SaeedKolahi/language-learners-manager/services"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error to an HTTP response. Partial write
// failures expose the attempted and failed IDs so the client can
// reconcile.
func respondError(c *gin.Context, err error) {
	var partial *services.PartialWriteError
	if errors.As(err, &partial) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":         partial.Error(),
			"attempted_ids": partial.AttemptedIDs,
			"failed_ids":    partial.FailedIDs,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPlanLocked), errors.Is(err, services.ErrAmountMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
