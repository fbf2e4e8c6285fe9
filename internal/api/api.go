// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/sentinela-corte/internal/api/handlers"
	"github.com/andresuchdata/sentinela-corte/internal/api/middleware"
)

type Services struct {
	Reports  handlers.ReportProvider
	Dispatch handlers.DispatchProvider
	Location *time.Location
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Reports != nil {
			reportHandler := handlers.NewReportHandler(services.Reports, services.Location)
			indicatorGroup := apiGroup.Group("/indicators")
			{
				indicatorGroup.GET("/corte", reportHandler.GetIndicator)
				indicatorGroup.GET("/benchmark", reportHandler.GetBenchmark)
			}
			apiGroup.DELETE("/cache", reportHandler.InvalidateCache)
		}

		if services.Dispatch != nil {
			dispatchHandler := handlers.NewDispatchHandler(services.Dispatch, services.Location)
			dispatchGroup := apiGroup.Group("/dispatch")
			{
				dispatchGroup.GET("/preview", dispatchHandler.Preview)
				dispatchGroup.POST("", dispatchHandler.Send)
			}
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	cfg := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Dispatch-Subject"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			cfg.AllowOrigins = nil
			cfg.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			cfg.AllowOrigins = normalizedOrigins
		}
	}
	return cfg
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
