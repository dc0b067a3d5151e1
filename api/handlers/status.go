package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pyrooka/mail2mp3/interfaces"
	"github.com/pyrooka/mail2mp3/services/pipeline"
)

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Status returns the mailbox poller and worker pool counters
func Status(poller interfaces.PollerService, pool *pipeline.WorkerPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"poller": poller.Status(),
			"pool":   pool.Status(),
		})
	}
}
