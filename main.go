package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tradebill/api/internal/api"
	"tradebill/api/internal/cache"
	"tradebill/api/internal/config"
	"tradebill/api/internal/db"
	"tradebill/api/internal/email"
	"tradebill/api/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	if err := db.EnsureIndexes(context.Background(), mongoDb); err != nil {
		log.Fatalf("Failed to ensure database indexes: %v", err)
	}

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	// Initialize Email Sender and Object Storage
	var primaryEmailSender email.Sender
	var objectStorage storage.IObjectStorage
	if os.Getenv("MOCK_SERVICES") == "true" {
		log.Println("MOCK_SERVICES enabled: Using Redis email sender and Redis object storage.")
		primaryEmailSender = email.NewRedisSender(redisClient, cfg)
		objectStorage = storage.NewRedisStorage(redisClient)
	} else {
		log.Println("MOCK_SERVICES disabled or not set: Using SMTP email sender and R2 object storage.")
		if os.Getenv("EMAIL_LOG_ONLY") == "true" {
			log.Println("EMAIL_LOG_ONLY enabled: emails are logged, not delivered.")
			primaryEmailSender = email.NewLoggingSender(cfg)
		} else {
			primaryEmailSender = email.NewSMTPSender(cfg)
		}
		objectStorage = storage.NewR2Storage(cfg)
	}

	// The composite sender always includes the primary sender.
	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)

	// Optionally add FileEmailSender if LOG_EMAILS is set
	logEmailsPath := os.Getenv("LOG_EMAILS")
	if logEmailsPath != "" {
		log.Printf("LOG_EMAILS set to '%s', enabling file email logger.", logEmailsPath)
		fileSender, err := email.NewFileEmailSender(logEmailsPath, cfg)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender (LOG_EMAILS='%s'): %v. Proceeding without file logging.", logEmailsPath, err)
		} else {
			compositeSender.AddSender(fileSender)
			log.Println("File email logger added to composite sender.")
		}
	}

	finalEmailSender := email.Sender(compositeSender)

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	// Start Service API
	serviceRouter := api.SetupServiceRouter(cfg, redisClient, shutdownChan)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: serviceRouter,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Printf("Service API listening on :%s\n", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service API ListenAndServe error: %v", err)
		}
		fmt.Println("Service API server stopped.")
	}()

	// Start main API server
	mainApiRouter := api.SetupRouter(cfg, mongoDb, finalEmailSender, objectStorage)
	mainApiSrv := &http.Server{
		Addr:    ":" + cfg.ApiPort,
		Handler: mainApiRouter,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Printf("Main API listening on :%s\n", cfg.ApiPort)
		if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Main API ListenAndServe error: %v", err)
		}
		fmt.Println("Main API server stopped.")
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)
	case <-shutdownChan:
		fmt.Println("\nShutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	fmt.Println("Shutting down Service API server...")
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Service API server shutdown error: %v", err)
	}

	fmt.Println("Shutting down Main API server...")
	if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Main API server shutdown error: %v", err)
	}

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}
