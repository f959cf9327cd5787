package app

import (
	"log"

	"Vault/internal/backup"
	"Vault/internal/config"
	"Vault/internal/handlers"
	"Vault/internal/service"

	"github.com/gin-gonic/gin"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, svc *service.RecordService, backups *backup.Writer, logger *log.Logger) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))

	api := r.Group("/api/v1")
	recordHandler := handlers.NewRecordHandler(svc, backups, logger)
	registerRecordRoutes(api, recordHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Vault API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func registerRecordRoutes(api *gin.RouterGroup, h *handlers.RecordHandler) {
	api.POST("/records", h.Create)
	api.GET("/records", h.List)
	api.GET("/records/search", h.Search)
	api.GET("/records/sort", h.Sort)
	api.PATCH("/records/:id", h.Update)
	api.DELETE("/records/:id", h.Delete)
	api.GET("/stats", h.Stats)
}
