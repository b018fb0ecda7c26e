package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationStatus is the review state of a provider application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// ProviderApplication is a user's request to become a provider. One per user.
type ProviderApplication struct {
	ID           string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	BusinessName string            `gorm:"not null" json:"business_name"`
	Phone        string            `json:"phone"`
	City         string            `gorm:"not null" json:"city"`
	District     string            `json:"district"`
	Description  string            `gorm:"type:text" json:"description"`
	Experience   string            `gorm:"type:text" json:"experience"`
	Status       ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy   *string           `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty"`
	AdminNote    *string           `gorm:"type:text" json:"admin_note,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the ProviderApplication model
func (ProviderApplication) TableName() string {
	return "provider_applications"
}

func (a *ProviderApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Provider is the public profile provisioned when an application is approved.
// It is keyed by the owning user's ID, which is also the provider ID stored on orders.
type Provider struct {
	UserID       string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	BusinessName string    `gorm:"not null" json:"business_name"`
	City         string    `json:"city"`
	District     string    `json:"district"`
	Description  string    `gorm:"type:text" json:"description"`
	Rating       float64   `gorm:"not null;default:0" json:"rating"`
	ReviewCount  int       `gorm:"not null;default:0" json:"review_count"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Provider model
func (Provider) TableName() string {
	return "providers"
}
