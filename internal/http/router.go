package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/extract-api/internal/usecase"
)

// SetupRouter creates and configures the Gin router. An empty origins list
// allows all origins.
func SetupRouter(extractor *usecase.Extractor, corsOrigins []string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(corsOrigins) > 0 {
		corsConfig.AllowOrigins = corsOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(extractor)

	v1 := router.Group("/v1")
	extract := v1.Group("/extract")
	extract.GET("/instant", handler.GetInstant)
	extract.GET("/series", handler.GetSeries)

	router.GET("/health", handler.HealthCheck)

	return router
}
