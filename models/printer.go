package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PrinterStatus describes whether a printer can take new orders
type PrinterStatus string

const (
	PrinterActive      PrinterStatus = "active"
	PrinterInactive    PrinterStatus = "inactive"
	PrinterMaintenance PrinterStatus = "maintenance"
	PrinterBusy        PrinterStatus = "busy"
)

// IsValid reports whether s is a known printer status
func (s PrinterStatus) IsValid() bool {
	switch s {
	case PrinterActive, PrinterInactive, PrinterMaintenance, PrinterBusy:
		return true
	}
	return false
}

// BuildVolume is the printable volume in millimetres
type BuildVolume struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PrinterPricing is the provider's price list for one printer
type PrinterPricing struct {
	PerGram  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"per_gram"`
	PerHour  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"per_hour"`
	MinOrder decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"min_order"`
}

// Printer is a catalog entry owned by a provider. Orders copy its name at creation,
// so editing or deleting a printer never touches existing orders.
type Printer struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProviderID  string         `gorm:"type:varchar(36);not null;index" json:"provider_id"`
	Brand       string         `gorm:"not null" json:"brand"`
	Model       string         `gorm:"not null" json:"model"`
	Type        string         `gorm:"not null" json:"type"` // FDM, SLA, SLS...
	BuildVolume BuildVolume    `gorm:"embedded;embeddedPrefix:build_" json:"build_volume"`
	Materials   []string       `gorm:"serializer:json;type:text;not null" json:"materials"`
	Colors      []string       `gorm:"serializer:json;type:text;not null" json:"colors"`
	Status      PrinterStatus  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Pricing     PrinterPricing `gorm:"embedded;embeddedPrefix:price_" json:"pricing"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the Printer model
func (Printer) TableName() string {
	return "printers"
}

func (p *Printer) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// DisplayName is the name frozen onto orders
func (p *Printer) DisplayName() string {
	return p.Brand + " " + p.Model
}

// SupportsMaterial reports whether the printer lists material, ignoring case
func (p *Printer) SupportsMaterial(material string) bool {
	for _, m := range p.Materials {
		if strings.EqualFold(m, material) {
			return true
		}
	}
	return false
}
