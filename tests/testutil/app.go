package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/config"
	"github.com/yazicin/yazicin-api/controllers"
	"github.com/yazicin/yazicin-api/middleware"
	"github.com/yazicin/yazicin-api/realtime"
	"github.com/yazicin/yazicin-api/repository"
	"github.com/yazicin/yazicin-api/services"
	"gorm.io/gorm"
)

// App is the whole API over a throwaway SQLite file, with in-memory uploads and
// recorded status emails.
type App struct {
	DB       *gorm.DB
	Hub      *realtime.Hub
	Blobs    *services.MockBlobStore
	Notifier *services.MockNotifier
	Router   *gin.Engine
}

// NewApp builds the API. auth0Domain is handed to the userinfo client and may be a
// test server URL.
func NewApp(t *testing.T, auth0Domain string) *App {
	t.Helper()
	RequireTestEnvironment(t)

	cfg := &config.Config{
		DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "acceptance.db"),
		GoEnv:       "test",
		Auth0Domain: auth0Domain,
		MaxUploadMB: 1,
		LogLevel:    "silent",
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := config.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	app := &App{
		DB:       db,
		Hub:      realtime.NewHub(),
		Blobs:    services.NewMockBlobStore(),
		Notifier: services.NewMockNotifier(),
	}
	t.Cleanup(app.Hub.Close)

	repos := repository.New(db)
	authz := services.NewRoleAuthorizer()
	users := services.NewUserService(repos.Users, services.NewAuth0Service(cfg))
	files := services.NewPrintFileService(app.Blobs, cfg.MaxUploadBytes())
	orders := services.NewOrderService(repos, app.Hub, services.WithNotifier(app.Notifier))
	messages := services.NewMessageService(repos, app.Hub)

	handlers := &controllers.Handlers{
		Users:     controllers.NewUserController(users),
		Uploads:   controllers.NewUploadController(files, users),
		Orders:    controllers.NewOrderController(orders, files, authz, users),
		Messages:  controllers.NewMessageController(messages, orders, authz, users),
		Reviews:   controllers.NewReviewController(services.NewReviewService(repos, time.Now), orders, authz, users),
		Printers:  controllers.NewPrinterController(services.NewPrinterService(repos.Printers), authz, users),
		Providers: controllers.NewProviderController(services.NewProviderApplicationService(repos, time.Now), authz, users),
		Streams:   controllers.NewStreamController(orders, messages, authz, users, time.Minute),
	}

	gin.SetMode(gin.TestMode)
	app.Router = gin.New()
	controllers.RegisterRoutes(app.Router.Group("/api/v1", BearerAuth()), handlers, middleware.RequireScope(middleware.AdminScope))
	return app
}
