package models

import (
	"time"
)

// Message is one entry of an order's append-only chat thread
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    string    `gorm:"type:varchar(36);not null;index:idx_messages_order_created" json:"order_id"`
	SenderID   string    `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	SenderName string    `gorm:"not null" json:"sender_name"`
	SenderRole Role      `gorm:"type:varchar(20);not null" json:"sender_role"` // customer or provider
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false;not null;index:idx_messages_order_created" json:"created_at"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
