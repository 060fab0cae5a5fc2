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

	"gatherly/api/internal/api/handlers"
	"gatherly/api/internal/api/middleware"
	"gatherly/api/internal/captcha"
	"gatherly/api/internal/config"
	"gatherly/api/internal/services"
	"gatherly/api/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, emailEnqueuer services.EmailEnqueuer, mediaEnqueuer handlers.IMediaEnqueuer) *gin.Engine {
	// Service graph. Credit and ledger services have no service dependencies;
	// everything above them is wired in dependency order.
	creditService := services.NewCreditService(db)
	ledgerService := services.NewEventLedgerService(db)
	templateService := services.NewEmailTemplateService(db)
	supplierService := services.NewSupplierService(db, cfg, creditService)
	notificationService := services.NewNotificationService(db, ledgerService, templateService, emailEnqueuer)
	enquiryService := services.NewEnquiryService(db, cfg, supplierService, notificationService)
	quoteService := services.NewQuoteService(db, cfg, creditService, enquiryService, supplierService, notificationService)
	paymentService := services.NewPaymentService(ledgerService, creditService, supplierService, notificationService)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	captchaVerifier := captcha.NewTurnstileVerifier(cfg)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Order matters: captcha sets the human flag the rate limiter reads.
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.CaptchaMiddleware(cfg, captchaVerifier))
	r.Use(rateLimiter.Limit())

	enquiryHandler := handlers.NewEnquiryHandler(cfg, enquiryService, quoteService)
	quoteHandler := handlers.NewQuoteHandler(quoteService, enquiryService)
	supplierHandler := handlers.NewSupplierHandler(cfg, supplierService, creditService, enquiryService, s3StorageService, mediaEnqueuer)
	webhookHandler := handlers.NewWebhookHandler(paymentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, enquiryService)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Customer routes: no account, authenticated by tokens
		v1.POST("/enquiries", enquiryHandler.CreateEnquiry)
		v1.GET("/enquiries/:token", enquiryHandler.GetEnquiryByToken)
		v1.GET("/enquiries/:token/notifications", notificationHandler.ListForCustomer)
		v1.POST("/enquiries/:token/quotes/:id/messages", quoteHandler.CustomerMessage)
		v1.POST("/quotes/action", quoteHandler.Action)

		// Supplier account routes
		v1.POST("/suppliers/signup", supplierHandler.Signup)
		v1.POST("/suppliers/login", supplierHandler.Login)

		// Payment processor callback
		v1.POST("/payments/webhook", webhookHandler.HandlePaymentEvent)

		// Authenticated supplier routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/suppliers/me", supplierHandler.Me)
			authRequired.GET("/suppliers/me/invites", supplierHandler.Invites)
			authRequired.POST("/suppliers/me/invites/:enquiry_id/view", supplierHandler.ViewInvite)
			authRequired.POST("/suppliers/me/media", supplierHandler.RequestMediaUpload)
			authRequired.GET("/suppliers/me/media", supplierHandler.Media)
			authRequired.POST("/suppliers/me/publish", supplierHandler.SetPublished)
			authRequired.GET("/suppliers/me/credits", supplierHandler.Credits)

			authRequired.GET("/quotes", quoteHandler.List)
			authRequired.POST("/quotes", quoteHandler.CreateDraft)
			authRequired.PUT("/quotes/:id", quoteHandler.UpdateDraft)
			authRequired.POST("/quotes/:id/send", quoteHandler.Send)
			authRequired.POST("/quotes/:id/close", quoteHandler.Close)
			authRequired.GET("/quotes/:id/messages", quoteHandler.Messages)
			authRequired.POST("/quotes/:id/messages", quoteHandler.SupplierMessage)

			authRequired.GET("/notifications", notificationHandler.ListForSupplier)
			authRequired.POST("/notifications/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}

// SetupServiceRouter configures the internal service-control engine: graceful
// shutdown and test-email retrieval for end-to-end suites running against the
// Redis mock sender.
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
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			var args []string // Expect ["kind", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			kind := args[0]
			emailAddr := args[1]
			redisKey := fmt.Sprintf("mockemail:%s:%s", emailAddr, kind)

			// Poll Redis briefly: the email is delivered by a background worker
			var emailJsonData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ {
				emailJsonData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
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
