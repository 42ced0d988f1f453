package http

import (
	"github.com/gin-gonic/gin"

	"github.com/contactmerge/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		contacts := v1.Group("/contacts")
		{
			contacts.GET("", handler.ListContacts)
			contacts.POST("", handler.ImportContacts)
		}

		v1.POST("/similarity", handler.ScorePair)
		v1.POST("/duplicates/search", handler.SearchDuplicates)

		merge := v1.Group("/merge")
		{
			merge.POST("/preview", handler.PreviewMerge)
			merge.POST("/apply", handler.ApplyMerge)
		}
	}

	return router
}
