package server

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates
var templateFiles embed.FS

func setupRoutes(r *gin.Engine, h *deskHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "CortexReview desk is running",
		})
	})

	r.GET("/", h.Index)
	r.POST("/upload", h.Upload)
	r.POST("/evaluate", h.Evaluate)
	r.POST("/reset", h.Reset)

	api := r.Group("/api")
	{
		api.GET("/state", h.State)
		api.GET("/playbook", h.Playbook)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
