package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/config"
	"github.com/yazicin/yazicin-api/controllers"
	"github.com/yazicin/yazicin-api/middleware"
	"github.com/yazicin/yazicin-api/realtime"
	"github.com/yazicin/yazicin-api/repository"
	"github.com/yazicin/yazicin-api/services"
	"gorm.io/gorm"
)

func main() {
	log.Println("Starting Yazicin API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	hub := realtime.NewHub()
	handlers, err := buildHandlers(ctx, cfg, db, hub)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	router := setupRouter(cfg, db, handlers, middleware.EnsureValidToken(cfg))
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server is running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	// ends the open event streams so Shutdown does not wait on them
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}

// buildHandlers wires repositories, collaborators and services into the controllers.
// Redis, SES and S3 are optional; without them changes stay in-process, emails are
// logged and uploads are kept in memory.
func buildHandlers(ctx context.Context, cfg *config.Config, db *gorm.DB, hub *realtime.Hub) (*controllers.Handlers, error) {
	repos := repository.New(db)

	var publisher realtime.Publisher = hub
	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		broker := realtime.NewRedisBroker(rdb, cfg.RedisChannelPrefix)
		publisher = broker
		go func() {
			if err := broker.Run(ctx, hub, nil); err != nil {
				log.Printf("Redis change feed stopped: %v", err)
			}
		}()
		log.Printf("Publishing order changes through Redis (%s:*)", cfg.RedisChannelPrefix)
	}

	var notifier services.StatusNotifier = services.LogNotifier{}
	if cfg.SESFromAddress != "" {
		sesNotifier, err := services.NewSESNotifier(ctx, cfg)
		if err != nil {
			return nil, err
		}
		notifier = sesNotifier
	}

	var blobs services.BlobStore
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return nil, err
		}
		blobs = s3Service
	} else {
		log.Println("AWS_S3_BUCKET not set, print files are kept in memory")
		blobs = services.NewMockBlobStore()
	}

	authz := services.NewRoleAuthorizer()
	users := services.NewUserService(repos.Users, services.NewAuth0Service(cfg))
	files := services.NewPrintFileService(blobs, cfg.MaxUploadBytes())
	orders := services.NewOrderService(repos, hub,
		services.WithPublisher(publisher),
		services.WithNotifier(notifier),
		services.WithDeliveryBuffer(cfg.DeliveryBuffer()),
	)
	messages := services.NewMessageService(repos, hub, services.WithMessagePublisher(publisher))

	return &controllers.Handlers{
		Users:     controllers.NewUserController(users),
		Uploads:   controllers.NewUploadController(files, users),
		Orders:    controllers.NewOrderController(orders, files, authz, users),
		Messages:  controllers.NewMessageController(messages, orders, authz, users),
		Reviews:   controllers.NewReviewController(services.NewReviewService(repos, time.Now), orders, authz, users),
		Printers:  controllers.NewPrinterController(services.NewPrinterService(repos.Printers), authz, users),
		Providers: controllers.NewProviderController(services.NewProviderApplicationService(repos, time.Now), authz, users),
		Streams:   controllers.NewStreamController(orders, messages, authz, users, controllers.DefaultHeartbeat),
	}, nil
}

// setupRouter builds the HTTP surface. Health endpoints are public; everything else
// goes through authMiddleware.
func setupRouter(cfg *config.Config, db *gorm.DB, handlers *controllers.Handlers, authMiddleware gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus(db))
	}

	controllers.RegisterRoutes(v1.Group("", authMiddleware), handlers, middleware.RequireScope(middleware.AdminScope))
	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Yazicin API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to get database instance",
				},
			})
			return
		}

		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_CONNECTION_ERROR",
					"message": "Database connection failed",
				},
			})
			return
		}

		tables, err := db.Migrator().GetTables()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_QUERY_ERROR",
					"message": "Failed to query tables",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database connected",
			"tables":  tables,
		})
	}
}
