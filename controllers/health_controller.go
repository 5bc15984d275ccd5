package controllers

import (
	"net/http"
	"time"

	"github.com/SaeedKolahi/language-learners-manager/utils"
	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

// Health reports liveness and the in-process counters.
func Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(startedAt).String(),
		"metrics": utils.GetMetrics().Snapshot(),
	})
}
