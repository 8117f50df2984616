package handlers

import (
	"time"

	"png-steganography/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewRouter wires the API routes, CORS for allowedOrigins, and request logging.
func NewRouter(stegoHandler *StegoHandler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	config.ExposeHeaders = []string{"X-Stego-PSNR", "X-Stego-Message", "X-Stego-Capacity", "X-Request-Id", "Content-Disposition"}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	// API Routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", stegoHandler.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/insert", stegoHandler.InsertMessage)
			stego.POST("/extract", stegoHandler.ExtractMessage)
			stego.POST("/capacity", stegoHandler.Capacity)
		}
	}

	return router
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Header("X-Request-Id", requestID)
		start := time.Now()

		c.Next()

		logging.Info().
			Str("requestId", requestID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	}
}
