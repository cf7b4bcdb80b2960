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

	"github.com/bigdady147/Eddy-Hub/internal/config"
	mongodb "github.com/bigdady147/Eddy-Hub/internal/database/mongo"
	redisdb "github.com/bigdady147/Eddy-Hub/internal/database/redis"
	"github.com/bigdady147/Eddy-Hub/internal/events"
	"github.com/bigdady147/Eddy-Hub/internal/handlers"
	"github.com/bigdady147/Eddy-Hub/internal/middleware"
	"github.com/bigdady147/Eddy-Hub/internal/repository"
	"github.com/bigdady147/Eddy-Hub/internal/service"
	"github.com/bigdady147/Eddy-Hub/pkg/discovery"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/eddyhub", "log", "feature_gate_service")
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
	if logFile, err := setupLogging(); err != nil {
		log.Printf("Logging to stderr: %v", err)
	} else {
		defer logFile.Close()
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.New()

	mongoClient, db, err := mongodb.Connect(cfg)
	if err != nil {
		log.Fatalf("Fatal error connecting to MongoDB: %s", err)
	}
	defer mongodb.Disconnect(mongoClient)

	redisClient := redisdb.Connect(cfg)
	cache := repository.NewRedisRepo(redisClient)

	eventPublisher, err := events.NewEventPublisher(cfg.RabbitURI)
	if err != nil {
		log.Fatalf("Fatal error connecting to RabbitMQ: %s", err)
	}
	defer eventPublisher.Close()

	userRepo := repository.NewUserRepository(db)
	featureRepo := repository.NewFeatureRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	for name, ensure := range map[string]func(context.Context) error{
		"user":       userRepo.EnsureIndexes,
		"feature":    featureRepo.EnsureIndexes,
		"permission": permissionRepo.EnsureIndexes,
		"request":    requestRepo.EnsureIndexes,
	} {
		if err := ensure(bootCtx); err != nil {
			log.Fatalf("Fatal error creating %s indexes: %s", name, err)
		}
	}

	mailer := service.NewMailer(cfg)
	jwtService := service.NewJWTService(cfg.JWTSecret, cfg.JWTExpired)
	featureService := service.NewFeatureService(featureRepo)
	permissionService := service.NewPermissionService(permissionRepo, featureRepo, userRepo, cache, eventPublisher)
	accessService := service.NewAccessService(permissionService)
	requestService := service.NewRequestService(requestRepo, featureRepo, accessService, permissionService, eventPublisher)
	userService := service.NewUserService(userRepo, cache, mailer, permissionService, eventPublisher, cfg.FEAddress)

	if err := featureService.Seed(bootCtx); err != nil {
		log.Printf("Warning: Failed to seed default features: %v", err)
	}

	app := fiber.New(fiber.Config{})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(200).SendString("OK")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authenticate := middleware.Authenticate(jwtService, userService)
	requireAdmin := middleware.RequireAdmin()

	handlers.NewAuthHandler(userService, jwtService).RegisterRoutes(app, authenticate)
	handlers.NewFeatureHandler(featureService).RegisterRoutes(app, authenticate, requireAdmin)
	handlers.NewPermissionHandler(permissionService).RegisterRoutes(app, authenticate, requireAdmin)
	handlers.NewRequestHandler(requestService).RegisterRoutes(app, authenticate, requireAdmin)
	handlers.NewUserHandler(userService).RegisterRoutes(app, authenticate, requireAdmin)

	serviceRegistry, err := discovery.NewServiceRegistry(cfg)
	if err != nil {
		log.Fatalf("Service Discovery Init Failed: %s", err)
	}
	if err := serviceRegistry.Register(); err != nil {
		log.Printf("Warning: Consul registration failed: %v", err)
	}
	defer serviceRegistry.Deregister()

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	<-doneChan
	log.Println("Server exited, goodbye!")
}
