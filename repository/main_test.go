package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yazicin/yazicin-api/config"
	"github.com/yazicin/yazicin-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var baseTime = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

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
	// every pooled connection would otherwise get its own empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func sampleOrder(customerID, providerID string, createdAt time.Time) *models.Order {
	return &models.Order{
		CustomerID:    customerID,
		CustomerName:  "Ayse Yilmaz",
		CustomerEmail: "ayse@example.com",
		ProviderID:    providerID,
		ProviderName:  "Ankara Print Lab",
		PrinterID:     "printer-1",
		PrinterName:   "Prusa MK4",
		FileRef: models.FileRef{
			FileName: "bracket.stl",
			FileURL:  "https://files.example.com/bracket.stl",
			FileSize: 2048,
		},
		PrintSettings: models.PrintSettings{
			Material:      "PLA",
			Color:         "black",
			InfillPercent: 20,
			Quality:       models.QualityNormal,
			Quantity:      2,
		},
		ShippingAddress: models.ShippingAddress{
			FullName: "Ayse Yilmaz",
			Phone:    "+905551112233",
			Address:  "Ataturk Cd. 12",
			City:     "Ankara",
		},
		Price:     decimal.RequireFromString("150.50"),
		Status:    models.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}
