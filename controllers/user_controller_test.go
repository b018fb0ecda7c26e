package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yazicin/yazicin-api/config"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/repository"
	"github.com/yazicin/yazicin-api/services"
	"gorm.io/gorm"
)

// setupMockAuth0Server creates a mock HTTP server that simulates Auth0's /userinfo endpoint
func setupMockAuth0Server(userInfoMap map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if len(authHeader) < 7 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		userInfo, exists := userInfoMap[authHeader[7:]]
		if !exists {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	}))
}

// userRouter serves the user endpoints backed by a mock Auth0 server
func userRouter(t *testing.T, db *gorm.DB, auth gin.HandlerFunc, userInfoMap map[string]*services.Auth0UserInfo) *gin.Engine {
	t.Helper()
	mockServer := setupMockAuth0Server(userInfoMap)
	t.Cleanup(mockServer.Close)

	// the mock server URL carries its own scheme, which Auth0Service honours
	auth0 := services.NewAuth0Service(&config.Config{Auth0Domain: mockServer.URL})
	controller := NewUserController(services.NewUserService(repository.NewUserRepository(db), auth0))

	router := setupTestRouter()
	router.POST("/users", auth, controller.CreateUser)
	router.GET("/users/me", auth, controller.GetMyProfile)
	return router
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		auth0ID        string
		email          string
		userName       string
		nickname       string
		accessToken    string
		expectedStatus int
		expectedCode   string
		expectedName   string
	}{
		{
			name:           "Create customer user successfully",
			auth0ID:        "auth0|123456",
			email:          "john@example.com",
			userName:       "John Doe",
			accessToken:    "token-123456",
			expectedStatus: http.StatusCreated,
			expectedName:   "John Doe",
		},
		{
			name:           "Nickname is used when name is missing",
			auth0ID:        "auth0|nick",
			email:          "nick@example.com",
			nickname:       "nicky",
			accessToken:    "token-nick",
			expectedStatus: http.StatusCreated,
			expectedName:   "nicky",
		},
		{
			name:           "Fail with missing email",
			auth0ID:        "auth0|noemail",
			userName:       "No Email User",
			accessToken:    "token-noemail",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_EMAIL",
		},
		{
			name:           "Fail with missing name",
			auth0ID:        "auth0|noname",
			email:          "noname@example.com",
			accessToken:    "token-noname",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			router := userRouter(t, db, mockAuthMiddleware(tt.auth0ID, "", tt.accessToken), map[string]*services.Auth0UserInfo{
				tt.accessToken: {
					Sub:      tt.auth0ID,
					Email:    tt.email,
					Name:     tt.userName,
					Nickname: tt.nickname,
				},
			})

			w := performRequest(router, http.MethodPost, "/users", nil)

			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
				return
			}

			data := responseData(t, w)
			assert.Equal(t, tt.email, data["email"])
			assert.Equal(t, tt.expectedName, data["name"])
			assert.Equal(t, tt.auth0ID, data["auth0_id"])
			assert.Equal(t, "customer", data["role"], "new users always start as customers")
			assert.Equal(t, false, data["is_verified"])
		})
	}
}

func TestCreateUser_DuplicateAuth0ID(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.User{
		Auth0ID: "auth0|duplicate",
		Name:    "First User",
		Email:   "first@example.com",
		Role:    models.RoleCustomer,
	}).Error)

	router := userRouter(t, db, mockAuthMiddleware("auth0|duplicate", "", "token-duplicate"), map[string]*services.Auth0UserInfo{
		"token-duplicate": {Sub: "auth0|duplicate", Email: "second@example.com", Name: "Second User"},
	})

	w := performRequest(router, http.MethodPost, "/users", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USER_EXISTS", errorCode(t, w))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.User{
		Auth0ID: "auth0|first",
		Name:    "First User",
		Email:   "shared@example.com",
		Role:    models.RoleCustomer,
	}).Error)

	router := userRouter(t, db, mockAuthMiddleware("auth0|second", "", "token-second"), map[string]*services.Auth0UserInfo{
		"token-second": {Sub: "auth0|second", Email: "shared@example.com", Name: "Second User"},
	})

	w := performRequest(router, http.MethodPost, "/users", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USER_EXISTS", errorCode(t, w))
}

func TestCreateUser_Auth0Unavailable(t *testing.T) {
	db := setupTestDB(t)
	router := userRouter(t, db, mockAuthMiddleware("auth0|ghost", "", "unknown-token"), map[string]*services.Auth0UserInfo{})

	w := performRequest(router, http.MethodPost, "/users", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "AUTH0_ERROR", errorCode(t, w))
}

func TestCreateUser_WithoutAuth(t *testing.T) {
	db := setupTestDB(t)
	noAuth := func(c *gin.Context) { c.Next() }
	router := userRouter(t, db, noAuth, map[string]*services.Auth0UserInfo{})

	w := performRequest(router, http.MethodPost, "/users", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestGetMyProfile(t *testing.T) {
	app := newTestApp(t)

	w := performRequest(app.routerAs(app.provider), http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, app.provider.ID, data["id"])
	assert.Equal(t, "provider", data["role"])
	assert.Nil(t, data["deleted_at"])

	w = performRequest(app.routerWith(mockAuthMiddleware("auth0|unknown", "", "t")), http.MethodGet, "/api/v1/users/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, w))
}
