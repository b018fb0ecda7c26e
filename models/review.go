package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of a delivered order. At most one exists per order.
type Review struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"order_id"`
	CustomerID   string    `gorm:"type:varchar(36);not null" json:"customer_id"`
	CustomerName string    `gorm:"not null" json:"customer_name"`
	ProviderID   string    `gorm:"type:varchar(36);not null;index" json:"provider_id"`
	Rating       int       `gorm:"not null" json:"rating"`
	Comment      string    `gorm:"type:text" json:"comment"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false;not null" json:"created_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ValidateRating checks that rating lies within MinRating..MaxRating
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return newValidationError("INVALID_RATING", "Rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}
