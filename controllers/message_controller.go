package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/services"
)

type MessageController struct {
	messages *services.MessageService
	orders   *services.OrderService
	authz    services.Authorizer
	users    *services.UserService
}

func NewMessageController(messages *services.MessageService, orders *services.OrderService, authz services.Authorizer, users *services.UserService) *MessageController {
	return &MessageController{messages: messages, orders: orders, authz: authz, users: users}
}

// SendMessageRequest represents the request body for posting to an order thread
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// threadAccess resolves the caller and the order and checks the caller is a party to the thread
func (mc *MessageController) threadAccess(c *gin.Context) (*models.User, *models.Order, bool) {
	user, ok := currentUser(c, mc.users)
	if !ok {
		return nil, nil, false
	}
	order, ok := findOrder(c, mc.orders)
	if !ok {
		return nil, nil, false
	}
	if !mc.authz.CanMessage(services.ActorFor(user), order) {
		respondForbidden(c, "Only the customer and provider of this order can use its messages")
		return nil, nil, false
	}
	return user, order, true
}

// SendMessage handles POST /api/v1/orders/:id/messages
func (mc *MessageController) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, order, ok := mc.threadAccess(c)
	if !ok {
		return
	}

	message, err := mc.messages.SendMessage(c.Request.Context(), order.ID, user, req.Content)
	if err != nil {
		respondServiceError(c, err, "send message")
		return
	}

	respondData(c, http.StatusCreated, message)
}

// ListMessages handles GET /api/v1/orders/:id/messages
func (mc *MessageController) ListMessages(c *gin.Context) {
	user, order, ok := mc.threadAccess(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	messages, err := mc.messages.ListThread(ctx, order.ID)
	if err != nil {
		respondServiceError(c, err, "list messages")
		return
	}
	unread, err := mc.messages.UnreadCount(ctx, order.ID, user)
	if err != nil {
		respondServiceError(c, err, "count unread messages")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"messages":     messages,
		"unread_count": unread,
	})
}

// MarkRead handles POST /api/v1/orders/:id/messages/read
func (mc *MessageController) MarkRead(c *gin.Context) {
	user, order, ok := mc.threadAccess(c)
	if !ok {
		return
	}

	marked, err := mc.messages.MarkThreadRead(c.Request.Context(), order.ID, user)
	if err != nil {
		respondServiceError(c, err, "mark messages read")
		return
	}

	respondData(c, http.StatusOK, gin.H{"marked": marked})
}
