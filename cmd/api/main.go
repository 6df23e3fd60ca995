package main

import (
	"log"

	"dar-review-api/config"
	"dar-review-api/controllers"
	"dar-review-api/middleware"
	"dar-review-api/routes"
	"dar-review-api/services"
	"dar-review-api/stores"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	config.LoadEnv()
	settings := config.LoadSettings()

	logWriter, closeLog, err := config.OpenLog(settings)
	if err != nil {
		log.Printf("Warning: logging to stdout only: %v", err)
	}
	defer closeLog()

	if settings.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET is not set")
	}

	db, err := config.OpenDB(settings)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	services.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	applications := stores.NewGormApplicationStore(db)
	actions := stores.NewGormActionStore(db)
	lifecycle := services.NewLifecycleService(services.LifecycleOptions{
		Applications:     applications,
		Actions:          actions,
		RevisionRequests: stores.NewGormRevisionRequestStore(db),
		Tx:               stores.NewGormTransactor(db),
		Metrics:          services.NewLifecycleMetrics(services.Registry),
		TxTimeout:        settings.TxTimeout,
		ApprovalValidity: settings.ApprovalValidity,
	})
	handler := controllers.NewDarApplicationController(
		services.NewApplicationService(lifecycle),
		services.NewReminderService(applications, actions),
	)

	if settings.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logWriter
	gin.DefaultErrorWriter = logWriter

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})
	router.Use(middleware.CORSMiddleware(settings.AllowedOrigins))

	routes.SetupRoutes(router, routes.Dependencies{
		Applications:    handler,
		Auth:            middleware.AuthMiddleware(settings.JWTSecret, stores.NewGormUserStore(db)),
		ReviewerRoleIDs: settings.ReviewerRoleIDs,
		Metrics:         services.Registry,
	})

	log.Printf("🚀 Server starting on port %s", settings.ServerPort)
	if settings.IsProduction() {
		log.Printf("🏭 Running in production mode")
	} else {
		log.Printf("🔧 Running in development mode")
	}

	if err := router.Run(":" + settings.ServerPort); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
