package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himalayatravels/tour-booking-backend/internal/config"
	"github.com/himalayatravels/tour-booking-backend/internal/handlers"
	"github.com/himalayatravels/tour-booking-backend/internal/middleware"
	"github.com/himalayatravels/tour-booking-backend/internal/services"
	"github.com/himalayatravels/tour-booking-backend/internal/storage"
	"github.com/himalayatravels/tour-booking-backend/pkg/bookingapi"
	"github.com/himalayatravels/tour-booking-backend/pkg/tourapi"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Himalaya Travels Tour Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize the transient handoff store
	var store storage.Store
	switch cfg.Session.Backend {
	case "redis":
		logger.Info("Using Redis handoff storage: " + cfg.Redis.Addr)
		redisStore := storage.NewRedisStore(storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisStore.Close()
		store = redisStore
	default:
		logger.Info("Using in-memory handoff storage")
		store = storage.NewMemoryStore()
	}

	// Initialize outbound API clients
	tourClient := tourapi.NewClient(tourapi.Config{
		BaseURL: cfg.Catalog.APIURL,
		Timeout: cfg.Catalog.Timeout,
	})
	bookingClient := bookingapi.NewClient(bookingapi.Config{
		BaseURL: cfg.Booking.APIURL,
		Timeout: cfg.Booking.Timeout,
	})

	// Initialize services
	logger.Info("Initializing services...")
	catalogService := services.NewCatalogService(tourClient, services.NewTourCache(), logger)
	bookingService := services.NewBookingService(bookingClient, store, logger, cfg.Session.HandoffTTL)

	// Initialize handlers
	tourHandler := handlers.NewTourHandler(catalogService, logger)
	bookingHandler := handlers.NewBookingHandler(catalogService, bookingService, logger)
	paymentHandler := handlers.NewPaymentHandler(bookingService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Session cookie scopes the payment handoff state to one client
	router.Use(middleware.Session(cfg.Session.CookieMaxAge, cfg.Server.Environment == "production"))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(store))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		tours := v1.Group("/tours")
		{
			tours.GET("", tourHandler.ListTours)
			tours.GET("/:id", tourHandler.GetTour)
			tours.POST("/refresh", tourHandler.RefreshTours)
		}

		v1.POST("/bookings", bookingHandler.SubmitBooking)

		payment := v1.Group("/payment")
		{
			payment.GET("/success", paymentHandler.PaymentSuccess)
			payment.GET("/failure", paymentHandler.PaymentFailure)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Warm the catalog cache in the background; failures degrade to an
	// empty catalog rather than blocking startup.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout)
		defer cancel()
		catalogService.GetTourPackages(ctx)
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeStatus := "healthy"
		if err := store.Ping(c.Request.Context()); err != nil {
			storeStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"storage": storeStatus,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"storage":   storeStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
