package main

import (
	"context"
	"log"
	"os"

	_ "servicelink/api/swagger" // swagger docs
	"servicelink/internal/database"
	"servicelink/internal/handler"
	"servicelink/internal/lifecycle"
	"servicelink/internal/middleware"
	"servicelink/internal/model"
	"servicelink/internal/repository"
	"servicelink/internal/service"
	"servicelink/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// @title           Service Link API
// @version         1.0
// @description     Request and approval management for the General Services Office.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "servicelink")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	seedAdmin(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Shared lifecycle plumbing: one store, one engine, one dispatcher for
	// all four request types.
	txManager := repository.NewTransactionManager(db)
	requestStore := repository.NewRequestStore(db)
	detailStore := repository.NewRequestDetailStore(db)
	activityRepo := repository.NewActivityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	dispatcher := service.NewEventDispatcher(activityRepo, notificationRepo, wsHub)
	engine := lifecycle.NewEngine(requestStore, detailStore, dispatcher)

	// Per-type request handlers
	jobHandler := newRequestHandler[model.JobRequest](db, model.TypeJob, requestStore, engine, txManager)
	purchasingHandler := newRequestHandler[model.PurchasingRequest](db, model.TypePurchasing, requestStore, engine, txManager)
	venueHandler := newRequestHandler[model.VenueRequest](db, model.TypeVenue, requestStore, engine, txManager)
	vehicleHandler := newRequestHandler[model.VehicleRequest](db, model.TypeVehicle, requestStore, engine, txManager)

	activityHandler := handler.NewActivityHandler(service.NewActivityService(activityRepo))
	notificationHandler := handler.NewNotificationHandler(service.NewNotificationService(notificationRepo))

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	jobHandler.RegisterRoutes(router.Group(""))
	purchasingHandler.RegisterRoutes(router.Group(""))
	venueHandler.RegisterRoutes(router.Group(""))
	vehicleHandler.RegisterRoutes(router.Group(""))
	activityHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newRequestHandler wires the repository, service and handler for one
// request type.
func newRequestHandler[T any, PT repository.RecordPtr[T]](
	db *gorm.DB,
	tag model.RequestType,
	store *repository.RequestStore,
	engine *lifecycle.Engine,
	tx repository.TransactionManager,
) *handler.RequestHandler[T] {
	cfg, ok := model.ConfigFor(tag)
	if !ok {
		log.Fatalf("unknown request type %q", tag)
	}
	repo := repository.NewRequestRepository[T, PT](db, cfg)
	svc := service.NewRequestService[T, PT](cfg, repo, store, engine, tx)
	return handler.NewRequestHandler[T](cfg, svc)
}

// seedAdmin creates a default admin account on an empty users table when
// ADMIN_PASSWORD is set, so a fresh deployment has a way in.
func seedAdmin(db *gorm.DB) {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return
	}

	users := repository.NewUserRepository(db)
	ctx := context.Background()

	total, err := users.Count(ctx)
	if err != nil || total > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("WARNING: Failed to hash admin password:", err)
		return
	}

	admin := &model.User{
		Username: "admin",
		Email:    "admin@servicelink.local",
		Role:     model.RoleAdmin,
		Password: string(hash),
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Println("WARNING: Failed to seed admin user:", err)
		return
	}
	log.Println("Seeded default admin user")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
