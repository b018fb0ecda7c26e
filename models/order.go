package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PrintQuality is the layer-height preset requested for a print job
type PrintQuality string

const (
	QualityDraft  PrintQuality = "draft"
	QualityNormal PrintQuality = "normal"
	QualityFine   PrintQuality = "fine"
)

// PrintSettings describes how the uploaded model should be printed. Immutable after creation.
type PrintSettings struct {
	Material      string       `gorm:"not null" json:"material" validate:"required"`
	Color         string       `gorm:"not null" json:"color" validate:"required"`
	InfillPercent int          `gorm:"not null" json:"infill_percent" validate:"min=1,max=100"`
	Quality       PrintQuality `gorm:"type:varchar(10);not null" json:"quality" validate:"oneof=draft normal fine"`
	Quantity      int          `gorm:"not null" json:"quantity" validate:"min=1"`
}

// FileRef points at the uploaded print file in blob storage. The order never holds the bytes.
type FileRef struct {
	FileName string `gorm:"not null" json:"file_name" validate:"required"`
	FileURL  string `gorm:"not null" json:"file_url" validate:"required,url"`
	FileSize int64  `gorm:"not null" json:"file_size" validate:"gte=0"`
}

// ShippingAddress is where the finished parts are sent
type ShippingAddress struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	District   string `json:"district"`
	PostalCode string `json:"postal_code"`
}

// Order is a single print job between one customer and one provider.
//
// CustomerName, CustomerEmail, ProviderName and PrinterName are copied at creation and
// never refreshed: readers avoid extra lookups and accept that the copies may go stale.
type Order struct {
	ID            string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CustomerID    string `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	CustomerName  string `gorm:"not null" json:"customer_name"`
	CustomerEmail string `gorm:"not null" json:"customer_email"`
	ProviderID    string `gorm:"type:varchar(36);not null;index" json:"provider_id"`
	ProviderName  string `gorm:"not null" json:"provider_name"`
	PrinterID     string `gorm:"type:varchar(36);not null" json:"printer_id"`
	PrinterName   string `gorm:"not null" json:"printer_name"`

	FileRef         `gorm:"embedded"`
	PrintSettings   PrintSettings   `gorm:"embedded;embeddedPrefix:print_" json:"print_settings"`
	ShippingAddress ShippingAddress `gorm:"serializer:json;type:text;not null" json:"shipping_address"`
	Notes           string          `gorm:"type:text" json:"notes"`

	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	PriceChange *PriceChange    `gorm:"serializer:json;type:text" json:"price_change,omitempty"` // nil when no renegotiation is in flight

	Status              OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AcceptedAt          *time.Time  `json:"accepted_at,omitempty"`
	ProductionStartedAt *time.Time  `json:"production_started_at,omitempty"`
	ShippedAt           *time.Time  `json:"shipped_at,omitempty"`
	DeliveredAt         *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt         *time.Time  `json:"cancelled_at,omitempty"`
	CancelReason        *string     `gorm:"type:text" json:"cancel_reason,omitempty"`
	ProductionHours     *float64    `json:"production_hours,omitempty"`
	TrackingNumber      *string     `json:"tracking_number,omitempty"`
	TrackingCompany     *string     `json:"tracking_company,omitempty"`

	Version   int64     `gorm:"not null;default:1" json:"version"` // bumped by every write
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null" json:"updated_at"`

	Production *ProductionEstimate `gorm:"-" json:"production,omitempty"` // computed on read, never stored
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Touch refreshes the audit timestamp; every mutation goes through it
func (o *Order) Touch(now time.Time) {
	o.UpdatedAt = now
}
