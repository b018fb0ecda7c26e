package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/services"
	"github.com/yazicin/yazicin-api/tests/testutil"
)

const (
	customerToken = "auth0|ayse"
	providerToken = "auth0|mert"
	adminToken    = "admin|ops"
)

// MarketplaceAcceptanceTestSuite walks one print job from sign-up to review over real HTTP
type MarketplaceAcceptanceTestSuite struct {
	suite.Suite
	auth0  *httptest.Server
	app    *testutil.App
	server *httptest.Server
}

func (s *MarketplaceAcceptanceTestSuite) SetupSuite() {
	testutil.MustSetTestEnvironment(s.T())

	identities := map[string]*services.Auth0UserInfo{
		customerToken: {Sub: customerToken, Email: "ayse@example.com", Name: "Ayse Yilmaz", EmailVerified: true},
		providerToken: {Sub: providerToken, Email: "mert@example.com", Name: "Mert Kaya", EmailVerified: true},
	}
	s.auth0 = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := identities[r.Header.Get("Authorization")[len("Bearer "):]]
		if r.URL.Path != "/userinfo" || !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	}))
}

func (s *MarketplaceAcceptanceTestSuite) TearDownSuite() {
	s.auth0.Close()
}

func (s *MarketplaceAcceptanceTestSuite) SetupTest() {
	s.app = testutil.NewApp(s.T(), s.auth0.URL)
	s.server = httptest.NewServer(s.app.Router)

	admin := &models.User{Auth0ID: adminToken, Name: "Ops", Email: "ops@example.com", Role: models.RoleAdmin}
	s.Require().NoError(s.app.DB.Create(admin).Error)
}

func (s *MarketplaceAcceptanceTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *MarketplaceAcceptanceTestSuite) do(token, method, path string, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+"/api/v1"+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(token, req)
}

func (s *MarketplaceAcceptanceTestSuite) send(token string, req *http.Request) (int, map[string]interface{}) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusTemporaryRedirect {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func data(response map[string]interface{}) map[string]interface{} {
	d, _ := response["data"].(map[string]interface{})
	return d
}

func errorCode(response map[string]interface{}) string {
	e, _ := response["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func (s *MarketplaceAcceptanceTestSuite) register(token string) map[string]interface{} {
	status, response := s.do(token, http.MethodPost, "/users", nil)
	s.Require().Equal(http.StatusCreated, status, response)
	return data(response)
}

// onboardProvider takes the provider from sign-up to an active printer and returns the
// provider's user ID and the printer ID
func (s *MarketplaceAcceptanceTestSuite) onboardProvider() (string, string) {
	provider := s.register(providerToken)

	status, response := s.do(providerToken, http.MethodPost, "/provider-applications", map[string]interface{}{
		"business_name": "Mert 3D",
		"phone":         "+905321234567",
		"city":          "Istanbul",
		"district":      "Kadikoy",
		"description":   "FDM prototypes",
	})
	s.Require().Equal(http.StatusCreated, status, response)
	applicationID := data(response)["id"].(string)

	status, response = s.do(providerToken, http.MethodPost, "/printers", printerBody())
	s.Require().Equal(http.StatusForbidden, status, "applicants cannot list printers before approval")

	status, response = s.do(adminToken, http.MethodPost, "/admin/provider-applications/"+applicationID+"/approve", nil)
	s.Require().Equal(http.StatusOK, status, response)

	status, response = s.do(providerToken, http.MethodPost, "/printers", printerBody())
	s.Require().Equal(http.StatusCreated, status, response)
	return provider["id"].(string), data(response)["id"].(string)
}

func printerBody() map[string]interface{} {
	return map[string]interface{}{
		"brand":        "Bambu Lab",
		"model":        "P1S",
		"type":         "fdm",
		"build_volume": map[string]interface{}{"x": 256, "y": 256, "z": 256},
		"materials":    []string{"pla", "petg"},
		"colors":       []string{"black", "white"},
		"pricing":      map[string]interface{}{"per_gram": "0.60", "per_hour": "15", "min_order": "40"},
	}
}

func (s *MarketplaceAcceptanceTestSuite) upload(token, filename string, content []byte) map[string]interface{} {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/v1/uploads", body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	status, response := s.send(token, req)
	s.Require().Equal(http.StatusCreated, status, response)
	return data(response)
}

func (s *MarketplaceAcceptanceTestSuite) placeOrder(providerID, printerID string, file map[string]interface{}, price string) map[string]interface{} {
	status, response := s.do(customerToken, http.MethodPost, "/orders", map[string]interface{}{
		"provider_id": providerID,
		"printer_id":  printerID,
		"file":        file,
		"print_settings": map[string]interface{}{
			"material":       "PETG",
			"color":          "black",
			"infill_percent": 30,
			"quality":        "fine",
			"quantity":       4,
		},
		"shipping_address": map[string]interface{}{
			"full_name": "Ayse Yilmaz",
			"phone":     "+905551112233",
			"address":   "Bagdat Cd. 101",
			"city":      "Istanbul",
		},
		"price": price,
	})
	s.Require().Equal(http.StatusCreated, status, response)
	return data(response)
}

func (s *MarketplaceAcceptanceTestSuite) TestPrintJobFromSignUpToReview() {
	s.register(customerToken)
	providerID, printerID := s.onboardProvider()

	file := s.upload(customerToken, "drone-arm.stl", []byte("solid arm\nendsolid arm\n"))
	s.Equal("drone-arm.stl", file["file_name"])

	order := s.placeOrder(providerID, printerID, file, "200")
	orderID := order["id"].(string)
	s.Equal("pending", order["status"])
	s.Equal("Mert 3D", order["provider_name"])

	status, _ := s.do(providerToken, http.MethodGet, "/orders/"+orderID+"/file", nil)
	s.Equal(http.StatusTemporaryRedirect, status)

	// provider asks for more, customer agrees
	status, response := s.do(providerToken, http.MethodPost, "/orders/"+orderID+"/price-change", map[string]interface{}{"price": "240"})
	s.Require().Equal(http.StatusOK, status, response)
	status, response = s.do(customerToken, http.MethodPost, "/orders/"+orderID+"/price-change/response", map[string]interface{}{"accept": true})
	s.Require().Equal(http.StatusOK, status, response)
	agreed := data(response)["order"].(map[string]interface{})
	s.True(decimal.NewFromInt(240).Equal(decimal.RequireFromString(agreed["price"].(string))))

	status, response = s.do(customerToken, http.MethodPost, "/orders/"+orderID+"/messages", map[string]interface{}{"content": "Can you print it in black?"})
	s.Require().Equal(http.StatusCreated, status, response)
	status, response = s.do(providerToken, http.MethodGet, "/orders/"+orderID+"/messages", nil)
	s.Require().Equal(http.StatusOK, status, response)
	s.Equal(float64(1), data(response)["unread_count"])
	status, response = s.do(providerToken, http.MethodPost, "/orders/"+orderID+"/messages/read", nil)
	s.Require().Equal(http.StatusOK, status, response)
	s.Equal(float64(1), data(response)["marked"])

	steps := []map[string]interface{}{
		{"status": "accepted"},
		{"status": "in_production", "production_hours": 6},
		{"status": "shipped", "tracking_number": "YK123456", "tracking_company": "Yurtici Kargo"},
		{"status": "delivered"},
	}
	for _, step := range steps {
		status, response = s.do(providerToken, http.MethodPost, "/orders/"+orderID+"/transitions", step)
		s.Require().Equal(http.StatusOK, status, response)
		s.Equal(step["status"], data(response)["status"])
	}
	s.Len(s.app.Notifier.Changes(), 4, "one email per status change")

	status, response = s.do(customerToken, http.MethodPost, "/orders/"+orderID+"/review", map[string]interface{}{"rating": 5, "comment": "Perfect fit"})
	s.Require().Equal(http.StatusCreated, status, response)

	status, response = s.do(customerToken, http.MethodGet, "/providers/"+providerID, nil)
	s.Require().Equal(http.StatusOK, status, response)
	s.Equal(float64(5), data(response)["rating"])
	s.Equal(float64(1), data(response)["review_count"])
}

func (s *MarketplaceAcceptanceTestSuite) TestCustomerCancelsPendingOrder() {
	s.register(customerToken)
	providerID, printerID := s.onboardProvider()
	file := s.upload(customerToken, "vase.3mf", []byte("PK vase"))
	orderID := s.placeOrder(providerID, printerID, file, "90")["id"].(string)

	status, response := s.do(customerToken, http.MethodPost, "/orders/"+orderID+"/transitions", map[string]interface{}{"status": "accepted"})
	s.Equal(http.StatusForbidden, status, "only the provider accepts")

	status, response = s.do(customerToken, http.MethodPost, "/orders/"+orderID+"/transitions", map[string]interface{}{"status": "cancelled", "cancel_reason": "Ordered twice"})
	s.Require().Equal(http.StatusOK, status, response)
	s.Equal("cancelled", data(response)["status"])

	status, response = s.do(providerToken, http.MethodPost, "/orders/"+orderID+"/transitions", map[string]interface{}{"status": "accepted"})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("INVALID_TRANSITION", errorCode(response))
}

func (s *MarketplaceAcceptanceTestSuite) TestUnregisteredAndAnonymousCallers() {
	status, response := s.do("", http.MethodGet, "/orders", nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("INVALID_TOKEN", errorCode(response))

	status, response = s.do(customerToken, http.MethodGet, "/orders", nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("USER_NOT_FOUND", errorCode(response))

	s.register(customerToken)
	status, response = s.do(customerToken, http.MethodPost, "/users", nil)
	s.Equal(http.StatusConflict, status)
	s.Equal("USER_EXISTS", errorCode(response))
}

func TestMarketplaceAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(MarketplaceAcceptanceTestSuite))
}
