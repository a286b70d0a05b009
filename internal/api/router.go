package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"tradebill/api/internal/api/handlers"
	"tradebill/api/internal/api/middleware"
	"tradebill/api/internal/config"
	"tradebill/api/internal/email"
	"tradebill/api/internal/pdf"
	"tradebill/api/internal/services"
	"tradebill/api/internal/storage"
)

// SetupRouter configures and returns the main Gin engine. The email sender
// and object storage are injected so main can swap in the Redis-backed mocks.
func SetupRouter(cfg *config.Config, db *mongo.Database, emailSender email.Sender, objectStorage storage.IObjectStorage) *gin.Engine {
	// Initialize services needed by API handlers here.
	userService := services.NewUserService(db)
	profileService := services.NewProfileService(db)
	pdfGenerator := pdf.NewGenerator()
	invoiceService := services.NewInvoiceService(db, cfg, profileService, pdfGenerator, objectStorage, emailSender)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, userService)
	profileHandler := handlers.NewProfileHandler(profileService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	r.GET("/invoices/templates/compliance-notes", invoiceHandler.GetComplianceNotes)

	// Authenticated routes
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
	{
		authRequired.GET("/profile", profileHandler.GetProfile)
		authRequired.POST("/profile", profileHandler.CreateProfile)
		authRequired.PUT("/profile", profileHandler.UpdateProfile)

		authRequired.POST("/invoices", invoiceHandler.CreateInvoice)
		authRequired.GET("/invoices", invoiceHandler.ListInvoices)
		authRequired.GET("/invoices/:id", invoiceHandler.GetInvoice)
		authRequired.PUT("/invoices/:id", invoiceHandler.UpdateInvoice)
		authRequired.PATCH("/invoices/:id/status", invoiceHandler.UpdateStatus)
		authRequired.POST("/invoices/:id/send", invoiceHandler.SendInvoice)
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine.
// Requires the Redis client for the getTestEmail endpoint.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			var args []string // Expect ["email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 1 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [email]"})
				return
			}
			emailAddr := args[0]
			redisKey := fmt.Sprintf("mockemail:%s:invoice", emailAddr)

			// Poll Redis briefly for the key
			var emailJsonData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ { // Poll up to ~2 seconds
				emailJsonData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey) // Delete after fetching
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				// If redis.Nil, wait and retry
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
