package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates and configures the Gin router.
// An empty allowedOrigins allows all origins. A nil gatherer disables /metrics.
func SetupRouter(reader SeriesReader, gatherer prometheus.Gatherer, allowedOrigins []string) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(reader)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/locations", handler.GetLocations)
	v1.GET("/forecasts/:location", handler.GetForecast)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	// Metrics.
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return router
}
