package services

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yazicin/yazicin-api/config"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixtureTime = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by the services under test
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: fixtureTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

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

// marketplace is a customer, an approved provider and one active printer
type marketplace struct {
	repos    *repository.Repositories
	customer *models.User
	provider *models.User
	printer  *models.Printer
}

func seedMarketplace(t *testing.T) *marketplace {
	t.Helper()
	db := setupTestDB(t)
	repos := repository.New(db)

	customer := &models.User{Auth0ID: "auth0|customer", Name: "Ayse Yilmaz", Email: "ayse@example.com", Role: models.RoleCustomer}
	provider := &models.User{Auth0ID: "auth0|provider", Name: "Mert Kaya", Email: "mert@example.com", Role: models.RoleProvider, IsVerified: true}
	require.NoError(t, db.Create(customer).Error)
	require.NoError(t, db.Create(provider).Error)
	require.NoError(t, db.Create(&models.Provider{
		UserID:       provider.ID,
		BusinessName: "Ankara Print Lab",
		City:         "Ankara",
		IsActive:     true,
	}).Error)

	printer := &models.Printer{
		ProviderID:  provider.ID,
		Brand:       "Prusa",
		Model:       "MK4",
		Type:        "FDM",
		BuildVolume: models.BuildVolume{X: 250, Y: 210, Z: 220},
		Materials:   []string{"PLA", "PETG"},
		Colors:      []string{"black"},
		Status:      models.PrinterActive,
	}
	require.NoError(t, db.Create(printer).Error)

	return &marketplace{repos: repos, customer: customer, provider: provider, printer: printer}
}

func (m *marketplace) orderInput(price string) CreateOrderInput {
	return CreateOrderInput{
		ProviderID: m.provider.ID,
		PrinterID:  m.printer.ID,
		File: models.FileRef{
			FileName: "bracket.stl",
			FileURL:  "https://test-bucket.s3.eu-central-1.amazonaws.com/print-files/bracket.stl",
			FileSize: 4096,
		},
		PrintSettings: models.PrintSettings{
			Material:      "pla",
			Color:         "black",
			InfillPercent: 20,
			Quality:       models.QualityNormal,
			Quantity:      1,
		},
		ShippingAddress: models.ShippingAddress{
			FullName: "Ayse Yilmaz",
			Phone:    "+905551112233",
			Address:  "Ataturk Cd. 12",
			City:     "Ankara",
		},
		Price: decimal.RequireFromString(price),
	}
}

func hours(h float64) *float64 {
	return &h
}
