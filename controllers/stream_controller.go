package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/realtime"
	"github.com/yazicin/yazicin-api/services"
)

// DefaultHeartbeat keeps idle event streams alive through proxies
const DefaultHeartbeat = 25 * time.Second

// StreamController exposes the realtime subscriptions as server-sent events. Each
// response stays open until the client goes away.
type StreamController struct {
	orders    *services.OrderService
	messages  *services.MessageService
	authz     services.Authorizer
	users     *services.UserService
	heartbeat time.Duration
}

func NewStreamController(orders *services.OrderService, messages *services.MessageService, authz services.Authorizer, users *services.UserService, heartbeat time.Duration) *StreamController {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &StreamController{orders: orders, messages: messages, authz: authz, users: users, heartbeat: heartbeat}
}

type streamEvent struct {
	name string
	data interface{}
}

// subscribeFunc starts a subscription whose handler calls emit for every update
type subscribeFunc func(emit func(name string, data interface{})) (*realtime.Subscription, error)

// serve runs the event loop on the request goroutine. Handlers run on the subscription's
// goroutine, so they only hand events over; all writes to the response happen here.
func (sc *StreamController) serve(c *gin.Context, subscribe subscribeFunc) {
	done := c.Request.Context().Done()
	events := make(chan streamEvent, 16)
	emit := func(name string, data interface{}) {
		select {
		case events <- streamEvent{name: name, data: data}:
		case <-done:
		}
	}

	sub, err := subscribe(emit)
	if err != nil {
		respondServiceError(c, err, "subscribe")
		return
	}
	defer sub.Unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(sc.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			return
		case <-sub.Done():
			return
		case event := <-events:
			c.SSEvent(event.name, event.data)
			c.Writer.Flush()
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}

// OrderEvents handles GET /api/v1/orders/:id/events
func (sc *StreamController) OrderEvents(c *gin.Context) {
	user, ok := currentUser(c, sc.users)
	if !ok {
		return
	}

	order, ok := findOrder(c, sc.orders)
	if !ok {
		return
	}
	if !sc.authz.CanViewOrder(services.ActorFor(user), order) {
		respondForbidden(c, "You don't have permission to view this order")
		return
	}

	sc.serve(c, func(emit func(string, interface{})) (*realtime.Subscription, error) {
		return sc.orders.SubscribeToOrder(c.Request.Context(), order.ID, func(o *models.Order) {
			emit("order", o)
		})
	})
}

// MyOrderEvents handles GET /api/v1/orders/events - every order of the caller, as
// customer or as provider depending on their role
func (sc *StreamController) MyOrderEvents(c *gin.Context) {
	user, ok := currentUser(c, sc.users)
	if !ok {
		return
	}

	subscribe := sc.orders.SubscribeToCustomerOrders
	switch user.Role {
	case models.RoleProvider:
		subscribe = sc.orders.SubscribeToProviderOrders
	case models.RoleAdmin:
		respondForbidden(c, "Admins subscribe to individual orders")
		return
	}

	sc.serve(c, func(emit func(string, interface{})) (*realtime.Subscription, error) {
		return subscribe(c.Request.Context(), user.ID, func(o *models.Order) {
			emit("order", o)
		})
	})
}

// ThreadEvents handles GET /api/v1/orders/:id/messages/events
func (sc *StreamController) ThreadEvents(c *gin.Context) {
	user, ok := currentUser(c, sc.users)
	if !ok {
		return
	}

	order, ok := findOrder(c, sc.orders)
	if !ok {
		return
	}
	if !sc.authz.CanMessage(services.ActorFor(user), order) {
		respondForbidden(c, "Only the customer and provider of this order can use its messages")
		return
	}

	sc.serve(c, func(emit func(string, interface{})) (*realtime.Subscription, error) {
		return sc.messages.SubscribeToThread(c.Request.Context(), order.ID, func(messages []models.Message) {
			emit("messages", messages)
		})
	})
}
