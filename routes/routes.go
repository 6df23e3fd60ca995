package routes

import (
	"net/http"

	"dar-review-api/controllers"
	"dar-review-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the handlers and collaborators the routes are wired to.
type Dependencies struct {
	Applications *controllers.DarApplicationController
	// Auth authenticates protected routes. Tests may substitute a stub.
	Auth gin.HandlerFunc
	// ReviewerRoleIDs restricts the attention listing when non-empty.
	ReviewerRoleIDs []int
	Metrics         prometheus.Gatherer
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "DAR Review API is running",
		})
	})

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	// API v1 group
	v1 := router.Group("/api/v1")

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(deps.Auth)
	{
		dar := protected.Group("/dar")
		{
			applications := dar.Group("/applications")
			applications.POST("", deps.Applications.CreateApplication)
			applications.GET("/:id", deps.Applications.GetApplication)
			applications.PUT("/:id/content", deps.Applications.UpdateContent)
			applications.POST("/:id/actions/:event", deps.Applications.PerformAction)
			applications.GET("/:id/actions", deps.Applications.ListActions)
			applications.GET("/:id/revision-requests", deps.Applications.ListRevisionRequests)

			attention := []gin.HandlerFunc{deps.Applications.ListAttention}
			if len(deps.ReviewerRoleIDs) > 0 {
				attention = append([]gin.HandlerFunc{middleware.RequireRole(deps.ReviewerRoleIDs...)}, attention...)
			}
			dar.GET("/attention", attention...)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})
}
