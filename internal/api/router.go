// Package api assembles the gin router for the HTTP server.
package api

import (
	"net/http"

	"forecaster/internal/api/handlers"
	"forecaster/internal/api/models"

	"github.com/gin-gonic/gin"
	cors "github.com/rs/cors/wrapper/gin"
)

// NewRouter builds the gin engine with middleware and all routes mounted.
func NewRouter(h *handlers.Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(recovery())
	router.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/backtest", h.RunBacktest)
		v1.POST("/scan", h.RunScan)
		v1.GET("/scan/latest", h.LatestScan)
		v1.GET("/market", h.Market)
	}

	return router
}

// recovery turns panics into the uniform error payload.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		msg := "an unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: msg},
		})
		c.Abort()
	})
}
