package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yazicin/yazicin-api/config"
	"github.com/yazicin/yazicin-api/middleware"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/realtime"
	"github.com/yazicin/yazicin-api/repository"
	"github.com/yazicin/yazicin-api/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
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
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockAuthMiddleware simulates the Auth0 JWT middleware for testing
// It sets up the context exactly as the real EnsureValidToken middleware does
func mockAuthMiddleware(auth0ID, scope, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)
		c.Set("validated_claims", &validator.ValidatedClaims{
			CustomClaims: &middleware.CustomClaims{Scope: scope},
		})
		c.Next()
	}
}

// stubUserInfo answers userinfo lookups from a map keyed by access token
type stubUserInfo map[string]*services.Auth0UserInfo

func (s stubUserInfo) GetUserInfo(ctx context.Context, accessToken string) (*services.Auth0UserInfo, error) {
	info, ok := s[accessToken]
	if !ok {
		return nil, errors.New("unknown access token")
	}
	return info, nil
}

// testApp is the full controller stack over an in-memory database, seeded with a
// customer, an approved provider with one printer, and an admin.
type testApp struct {
	db       *gorm.DB
	hub      *realtime.Hub
	blobs    *services.MockBlobStore
	notifier *services.MockNotifier
	orders   *services.OrderService
	messages *services.MessageService
	handlers *Handlers

	customer *models.User
	provider *models.User
	admin    *models.User
	printer  *models.Printer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := setupTestDB(t)
	repos := repository.New(db)
	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	app := &testApp{
		db:       db,
		hub:      hub,
		blobs:    services.NewMockBlobStore(),
		notifier: services.NewMockNotifier(),
	}
	app.seed(t)

	authz := services.NewRoleAuthorizer()
	users := services.NewUserService(repos.Users, stubUserInfo{})
	files := services.NewPrintFileService(app.blobs, 1024*1024)
	app.orders = services.NewOrderService(repos, hub, services.WithNotifier(app.notifier))
	app.messages = services.NewMessageService(repos, hub)
	reviews := services.NewReviewService(repos, time.Now)
	printers := services.NewPrinterService(repos.Printers)
	applications := services.NewProviderApplicationService(repos, time.Now)

	app.handlers = &Handlers{
		Users:     NewUserController(users),
		Uploads:   NewUploadController(files, users),
		Orders:    NewOrderController(app.orders, files, authz, users),
		Messages:  NewMessageController(app.messages, app.orders, authz, users),
		Reviews:   NewReviewController(reviews, app.orders, authz, users),
		Printers:  NewPrinterController(printers, authz, users),
		Providers: NewProviderController(applications, authz, users),
		Streams:   NewStreamController(app.orders, app.messages, authz, users, time.Minute),
	}
	return app
}

func (a *testApp) seed(t *testing.T) {
	a.customer = &models.User{Auth0ID: "auth0|customer", Name: "Ayse Yilmaz", Email: "ayse@example.com", Role: models.RoleCustomer}
	a.provider = &models.User{Auth0ID: "auth0|provider", Name: "Mert Kaya", Email: "mert@example.com", Role: models.RoleProvider, IsVerified: true}
	a.admin = &models.User{Auth0ID: "auth0|admin", Name: "Ops", Email: "ops@example.com", Role: models.RoleAdmin}
	for _, user := range []*models.User{a.customer, a.provider, a.admin} {
		require.NoError(t, a.db.Create(user).Error)
	}
	require.NoError(t, a.db.Create(&models.Provider{
		UserID:       a.provider.ID,
		BusinessName: "Ankara Print Lab",
		City:         "Ankara",
		IsActive:     true,
	}).Error)

	a.printer = &models.Printer{
		ProviderID:  a.provider.ID,
		Brand:       "Prusa",
		Model:       "MK4",
		Type:        "FDM",
		BuildVolume: models.BuildVolume{X: 250, Y: 210, Z: 220},
		Materials:   []string{"PLA", "PETG"},
		Colors:      []string{"black"},
		Status:      models.PrinterActive,
	}
	require.NoError(t, a.db.Create(a.printer).Error)
}

// routerAs serves the API as user. Admins also carry the admin scope.
func (a *testApp) routerAs(user *models.User) *gin.Engine {
	scope := "read:orders"
	if user.Role == models.RoleAdmin {
		scope += " " + middleware.AdminScope
	}
	return a.routerWith(mockAuthMiddleware(user.Auth0ID, scope, "mock-token"))
}

func (a *testApp) routerWith(auth gin.HandlerFunc) *gin.Engine {
	router := setupTestRouter()
	RegisterRoutes(router.Group("/api/v1", auth), a.handlers, middleware.RequireScope(middleware.AdminScope))
	return router
}

func (a *testApp) orderBody(price string) map[string]interface{} {
	return map[string]interface{}{
		"provider_id": a.provider.ID,
		"printer_id":  a.printer.ID,
		"file": map[string]interface{}{
			"file_name": "bracket.stl",
			"file_url":  "https://test-bucket.s3.eu-central-1.amazonaws.com/print-files/bracket.stl",
			"file_size": 4096,
		},
		"print_settings": map[string]interface{}{
			"material":       "PLA",
			"color":          "black",
			"infill_percent": 20,
			"quality":        "normal",
			"quantity":       2,
		},
		"shipping_address": map[string]interface{}{
			"full_name": "Ayse Yilmaz",
			"phone":     "+905551112233",
			"address":   "Ataturk Cd. 12",
			"city":      "Ankara",
		},
		"price": price,
	}
}

// createOrder places an order as the seeded customer and returns its ID
func (a *testApp) createOrder(t *testing.T, price string) string {
	t.Helper()
	w := performRequest(a.routerAs(a.customer), http.MethodPost, "/api/v1/orders", a.orderBody(price))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return responseData(t, w)["id"].(string)
}

func performRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func responseData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := decodeResponse(t, w)["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeResponse(t, w)
	errObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	return errObj["code"].(string)
}
