package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yazicin/yazicin-api/models"
)

func applicationBody() map[string]interface{} {
	return map[string]interface{}{
		"business_name": "Izmir Makers",
		"phone":         "+905321234567",
		"city":          "Izmir",
		"district":      "Bornova",
		"description":   "Resin and FDM printing",
	}
}

func TestProviderApplication_ApproveFlow(t *testing.T) {
	app := newTestApp(t)
	customer := app.routerAs(app.customer)
	admin := app.routerAs(app.admin)

	w := performRequest(customer, http.MethodPost, "/api/v1/provider-applications", applicationBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	applicationID := responseData(t, w)["id"].(string)
	assert.Equal(t, "pending", responseData(t, w)["status"])

	w = performRequest(customer, http.MethodPost, "/api/v1/provider-applications", applicationBody())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "APPLICATION_EXISTS", errorCode(t, w))

	w = performRequest(customer, http.MethodGet, "/api/v1/provider-applications/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, applicationID, responseData(t, w)["id"])

	w = performRequest(customer, http.MethodGet, "/api/v1/admin/provider-applications", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_SCOPE", errorCode(t, w))

	w = performRequest(admin, http.MethodGet, "/api/v1/admin/provider-applications?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeResponse(t, w)["data"].([]interface{}), 1)

	w = performRequest(admin, http.MethodPost, "/api/v1/admin/provider-applications/"+applicationID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	provider := responseData(t, w)
	assert.Equal(t, app.customer.ID, provider["user_id"])
	assert.Equal(t, "Izmir Makers", provider["business_name"])

	w = performRequest(customer, http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "provider", responseData(t, w)["role"])
	assert.Equal(t, true, responseData(t, w)["is_verified"])

	w = performRequest(admin, http.MethodPost, "/api/v1/admin/provider-applications/"+applicationID+"/approve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "APPLICATION_NOT_PENDING", errorCode(t, w))

	w = performRequest(customer, http.MethodGet, "/api/v1/providers?city=Izmir", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResponse(t, w)["data"].([]interface{}), 1)
}

func TestProviderApplication_Reject(t *testing.T) {
	app := newTestApp(t)
	customer := app.routerAs(app.customer)
	admin := app.routerAs(app.admin)

	w := performRequest(customer, http.MethodPost, "/api/v1/provider-applications", applicationBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	applicationID := responseData(t, w)["id"].(string)

	w = performRequest(admin, http.MethodPost, "/api/v1/admin/provider-applications/"+applicationID+"/reject", map[string]interface{}{"note": "Missing portfolio"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := responseData(t, w)
	assert.Equal(t, "rejected", data["status"])
	assert.Equal(t, "Missing portfolio", data["admin_note"])

	w = performRequest(customer, http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.RoleCustomer), responseData(t, w)["role"])

	w = performRequest(customer, http.MethodPost, "/api/v1/provider-applications", applicationBody())
	assert.Equal(t, http.StatusCreated, w.Code, "a rejected applicant may apply again")
}

func TestProviderApplication_AdminRoleRequired(t *testing.T) {
	app := newTestApp(t)
	// a token with the admin scope whose user is not an admin
	router := app.routerWith(mockAuthMiddleware(app.customer.Auth0ID, "admin:applications", "mock-token"))

	w := performRequest(router, http.MethodGet, "/api/v1/admin/provider-applications", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestProviderApplication_InvalidPhone(t *testing.T) {
	app := newTestApp(t)
	body := applicationBody()
	body["phone"] = "0532 123"

	w := performRequest(app.routerAs(app.customer), http.MethodPost, "/api/v1/provider-applications", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}
