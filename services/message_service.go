package services

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/realtime"
	"github.com/yazicin/yazicin-api/repository"
)

// MaxMessageLength bounds a single chat message, in characters
const MaxMessageLength = 4000

// MessageService runs the per-order chat between customer and provider
type MessageService struct {
	repos     *repository.Repositories
	hub       *realtime.Hub
	publisher realtime.Publisher
	now       func() time.Time
}

type MessageOption func(*MessageService)

func WithMessageClock(now func() time.Time) MessageOption {
	return func(s *MessageService) { s.now = now }
}

func WithMessagePublisher(publisher realtime.Publisher) MessageOption {
	return func(s *MessageService) { s.publisher = publisher }
}

func NewMessageService(repos *repository.Repositories, hub *realtime.Hub, opts ...MessageOption) *MessageService {
	s := &MessageService{repos: repos, hub: hub, publisher: hub, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendMessage appends content to the order's thread as sender
func (s *MessageService) SendMessage(ctx context.Context, orderID string, sender *models.User, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("EMPTY_MESSAGE", "Message content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, models.NewValidationError("MESSAGE_TOO_LONG", "Message content is too long")
	}

	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		OrderID:    order.ID,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		SenderRole: threadRole(order, sender),
		Content:    content,
		IsRead:     false,
		CreatedAt:  s.now(),
	}
	if err := s.repos.Messages.Create(ctx, message); err != nil {
		return nil, err
	}

	s.announce(ctx, order)
	return message, nil
}

// threadRole is the side of the conversation sender speaks for on this order
func threadRole(order *models.Order, sender *models.User) models.Role {
	if sender.ID == order.ProviderID {
		return models.RoleProvider
	}
	if sender.ID == order.CustomerID {
		return models.RoleCustomer
	}
	return sender.Role
}

// ListThread returns the order's messages oldest first
func (s *MessageService) ListThread(ctx context.Context, orderID string) ([]models.Message, error) {
	if _, err := s.repos.Orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repos.Messages.ListByOrder(ctx, orderID)
}

// SubscribeToThread calls handler with the full thread now and after every change
func (s *MessageService) SubscribeToThread(ctx context.Context, orderID string, handler func([]models.Message)) (*realtime.Subscription, error) {
	sub := s.hub.Subscribe(realtime.Filter{Kind: realtime.KindThread, OrderID: orderID}, func(e realtime.Event) {
		messages := e.Messages
		if messages == nil {
			messages = []models.Message{}
		}
		handler(messages)
	})

	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	messages, err := s.repos.Messages.ListByOrder(ctx, orderID)
	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	sub.Deliver(realtime.ThreadEvent(order, messages))
	return sub, nil
}

// MarkThreadRead marks the other party's messages read for reader and returns how many changed
func (s *MessageService) MarkThreadRead(ctx context.Context, orderID string, reader *models.User) (int64, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return 0, err
	}

	marked, err := s.repos.Messages.MarkRead(ctx, orderID, counterpart(threadRole(order, reader)))
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		s.announce(ctx, order)
	}
	return marked, nil
}

// UnreadCount is the number of the other party's messages reader has not read yet
func (s *MessageService) UnreadCount(ctx context.Context, orderID string, reader *models.User) (int64, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return s.repos.Messages.CountUnread(ctx, orderID, counterpart(threadRole(order, reader)))
}

func counterpart(role models.Role) models.Role {
	if role == models.RoleProvider {
		return models.RoleCustomer
	}
	return models.RoleProvider
}

// announce republishes the whole thread; a failure is logged since the write is committed
func (s *MessageService) announce(ctx context.Context, order *models.Order) {
	messages, err := s.repos.Messages.ListByOrder(ctx, order.ID)
	if err != nil {
		log.Printf("Failed to load thread for order %s: %v", order.ID, err)
		return
	}
	if err := s.publisher.Publish(ctx, realtime.ThreadEvent(order, messages)); err != nil {
		log.Printf("Failed to publish thread change for order %s: %v", order.ID, err)
	}
}
