package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusport/portalgate/internal/config"
	"github.com/campusport/portalgate/internal/database"
	"github.com/campusport/portalgate/internal/gateway"
	"github.com/campusport/portalgate/internal/middleware"
	"github.com/campusport/portalgate/internal/notify"
	"github.com/campusport/portalgate/internal/ratelimit"
	"github.com/campusport/portalgate/internal/route"
	"github.com/campusport/portalgate/internal/session"
	"github.com/campusport/portalgate/internal/token"
	"github.com/campusport/portalgate/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting Campusport Portal Gateway",
		zap.String("env", cfg.Env),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("store", cfg.Store.Driver),
	)

	// Connect to Redis when configured; it backs the redis session store
	// and login rate limiting
	var redisClient *database.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis")
	}

	// Select the session store
	store, cleanup, err := buildStore(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session store", zap.Error(err))
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Login rate limiting needs Redis; disabled without it
	var limiter *ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewLimiter(
			redisClient.Client,
			cfg.RateLimit.Window,
			cfg.RateLimit.MaxAttempts,
			cfg.RateLimit.LockoutDuration,
		)
	} else {
		logger.Warn("REDIS_URL not set; login rate limiting disabled")
	}

	// Session client and core
	recorder := notify.NewRecorder()
	client := session.NewClient(session.Config{
		BaseURL:        cfg.Backend.BaseURL,
		Timeout:        cfg.Backend.Timeout,
		Store:          store,
		Notifier:       notify.Fanout{notify.NewZapNotifier(logger), recorder},
		Logger:         logger,
		OnForcedLogout: middleware.RecordForcedLogout,
	})

	// Restore any persisted session before serving; the gate rejects
	// requests until this has settled
	client.Restore(context.Background())

	router := route.NewRouter(client.State())
	registry := view.DefaultRegistry(client)
	handler := gateway.NewHandler(client, router, registry, limiter, recorder, logger)
	if redisClient != nil {
		handler.AddHealthCheck("redis", redisClient.Health)
	}

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Global middleware
	allowedOrigins := middleware.ParseAllowedOrigins(cfg.CORS.AllowedOrigins)
	engine.Use(middleware.CORS(allowedOrigins))
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.Recovery(logger))
	engine.Use(middleware.Logger(logger))
	engine.Use(middleware.Metrics())

	// Public routes
	engine.GET("/health", handler.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionGroup := engine.Group("/session")
	{
		sessionGroup.POST("/login", handler.Login)
		sessionGroup.POST("/logout", handler.Logout)
		sessionGroup.GET("/resolve", handler.ResolveRoute)

		// Protected routes (require an active session)
		protected := sessionGroup.Group("")
		protected.Use(middleware.SessionGate(client.State()))
		{
			protected.GET("/me", handler.Me)
			protected.PUT("/profile", handler.UpdateProfile)
			protected.GET("/navigation", handler.Navigation)
		}
	}

	// Screen data; gating happens inside route resolution
	engine.GET("/screens/*path", handler.Screen)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// buildStore constructs the session store named by STORE_DRIVER
func buildStore(cfg *config.Config, redisClient *database.RedisClient, logger *zap.Logger) (token.Store, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return token.NewMemoryStore(), nil, nil

	case "file":
		store, err := token.NewFileStore(cfg.Store.Dir)
		return store, nil, err

	case "redis":
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis store requires REDIS_URL")
		}
		return token.NewRedisStore(redisClient.Client, cfg.Store.Profile), nil, nil

	case "postgres":
		db, err := database.NewPostgresDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to PostgreSQL for session storage")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := token.NewPostgresStore(ctx, db.DB, cfg.Store.Profile)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
