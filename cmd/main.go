package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"roadmap-service/internal/config"
	"roadmap-service/internal/database/mongo"
	"roadmap-service/internal/database/redis"
	"roadmap-service/internal/event"
	"roadmap-service/internal/handlers"
	"roadmap-service/internal/repository"
	"roadmap-service/internal/services"
	"roadmap-service/pkg/discovery"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/evolvia", "log", "roadmap_service")
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.ServiceConfig

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Roadmap Service is healthy")
	})

	// Initialize repositories
	visibilityRepo := repository.NewVisibilityRepository(mongo.Mongo_Database, cfg.Visibility.SettingsCollection)
	auditRepo := repository.NewAuditRepository(mongo.Mongo_Database, cfg.Visibility.AuditCollection)
	roadmapRepo := repository.NewRoadmapRepository(mongo.Mongo_Database, cfg.Visibility.RoadmapsCollection)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	if err := visibilityRepo.InitializeIndexes(initCtx); err != nil {
		log.Fatalf("Failed to initialize visibility indexes: %v", err)
	}
	if err := auditRepo.InitializeIndexes(initCtx); err != nil {
		log.Fatalf("Failed to initialize audit indexes: %v", err)
	}
	if err := roadmapRepo.InitializeIndexes(initCtx); err != nil {
		log.Fatalf("Failed to initialize roadmap indexes: %v", err)
	}
	if err := roadmapRepo.InitializeData(initCtx, cfg.Visibility.DataDirectory); err != nil {
		log.Printf("Warning: Failed to seed roadmap data: %v", err)
	}

	// Initialize event publisher
	eventPublisher, err := event.NewEventPublisher(cfg.RabbitMQ.URI)
	if err != nil {
		log.Printf("Warning: Failed to initialize event publisher: %v", err)
		eventPublisher, _ = event.NewEventPublisher("")
	}

	// Initialize projection cache
	var projectionCache services.ProjectionCache
	if cfg.Visibility.ProjectionCacheOn {
		projectionCache = services.NewRedisProjectionCache(redis.Redis_Client, cfg.Visibility.ProjectionCacheTTL)
	}

	// Initialize services
	visibilityService := services.NewVisibilityService(visibilityRepo, auditRepo, roadmapRepo, eventPublisher, projectionCache)
	publicRoadmapService := services.NewPublicRoadmapService(visibilityRepo, roadmapRepo, projectionCache)

	// Initialize and register handlers
	visibilityHandler := handlers.NewVisibilityHandler(visibilityService)
	visibilityHandler.RegisterRoutes(app)

	publicRoadmapHandler := handlers.NewPublicRoadmapHandler(publicRoadmapService)
	publicRoadmapHandler.RegisterRoutes(app)

	// Register with service discovery
	if discovery.ServiceDiscovery != nil {
		if err := discovery.ServiceDiscovery.Register(); err != nil {
			log.Printf("Warning: Failed to register with Consul: %v", err)
		}
	}

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := app.Listen(fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Close event publisher
	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}

	// Disconnect from data stores
	redis.DisconnectRedis()
	mongo.DisconnectMongo()

	// Deregister from service discovery
	if discovery.ServiceDiscovery != nil {
		if err := discovery.ServiceDiscovery.Deregister(); err != nil {
			log.Printf("Error deregistering from service discovery: %v", err)
		}
	}

	<-doneChan
	log.Println("Server shutdown complete")
}
