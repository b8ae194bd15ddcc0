package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lcmc/crm-manager/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GetEngine returns a Gin engine with the shared middleware plus the health and metrics endpoints
// mounted under basePath. Feature routes are added by the caller.
func GetEngine(logger *slog.Logger, basePath string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowHeaders(middleware.HeaderCorrelationID)
	corsConfig.AddExposeHeaders(middleware.HeaderCorrelationID)
	r.Use(cors.New(corsConfig))

	r.Use(middleware.CorrelationID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorHandler())

	router := r.Group(basePath)
	router.GET("/health", health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func health(c *gin.Context) {
	// swagger:route GET /health health
	//
	// Health status
	//
	// Show service health status
	//
	// responses:
	//   200: Health
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}
