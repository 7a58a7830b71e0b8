package adminapi

import "github.com/gin-gonic/gin"

func registerRoutes(r *gin.Engine, h *Handler, apiKey string) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1")
	if apiKey != "" {
		api.Use(requireAPIKey(apiKey))
	}

	api.GET("/stats", h.Stats)
	api.GET("/history", h.History)
}
