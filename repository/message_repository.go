package repository

import (
	"context"
	"fmt"

	"github.com/yazicin/yazicin-api/models"
	"gorm.io/gorm"
)

// MessageRepository stores order chat threads. Messages are never edited or deleted.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByOrder(ctx context.Context, orderID string) ([]models.Message, error)
	MarkRead(ctx context.Context, orderID string, senderRole models.Role) (int64, error)
	CountUnread(ctx context.Context, orderID string, senderRole models.Role) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("repository.CreateMessage: %w", err)
	}
	return nil
}

// ListByOrder returns the thread oldest first; equal timestamps keep insertion order
func (r *messageRepository) ListByOrder(ctx context.Context, orderID string) ([]models.Message, error) {
	messages := []models.Message{}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("repository.ListMessages: %w", err)
	}
	return messages, nil
}

// MarkRead flags every unread message sent by senderRole on the order as read
func (r *messageRepository) MarkRead(ctx context.Context, orderID string, senderRole models.Role) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("order_id = ? AND sender_role = ? AND is_read = ?", orderID, senderRole, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("repository.MarkMessagesRead: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, orderID string, senderRole models.Role) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("order_id = ? AND sender_role = ? AND is_read = ?", orderID, senderRole, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("repository.CountUnreadMessages: %w", err)
	}
	return count, nil
}
