package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/services"
)

// OrderController serves the order lifecycle: creation, status transitions, tracking
// and price renegotiation.
type OrderController struct {
	orders *services.OrderService
	files  services.PrintFileService
	authz  services.Authorizer
	users  *services.UserService
}

func NewOrderController(orders *services.OrderService, files services.PrintFileService, authz services.Authorizer, users *services.UserService) *OrderController {
	return &OrderController{orders: orders, files: files, authz: authz, users: users}
}

// TransitionRequest represents the request body for a status change
type TransitionRequest struct {
	Status          models.OrderStatus `json:"status" binding:"required"`
	ProductionHours *float64           `json:"production_hours"`
	TrackingNumber  string             `json:"tracking_number"`
	TrackingCompany string             `json:"tracking_company"`
	CancelReason    string             `json:"cancel_reason"`
}

type TrackingRequest struct {
	TrackingNumber  string `json:"tracking_number" binding:"required"`
	TrackingCompany string `json:"tracking_company" binding:"required"`
}

type PriceChangeRequest struct {
	Price decimal.Decimal `json:"price"`
}

type PriceResponseRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// findOrder fetches the order in the :id path parameter
func findOrder(c *gin.Context, orders *services.OrderService) (*models.Order, bool) {
	order, err := orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "load order")
		return nil, false
	}
	return order, true
}

// loadOrder is findOrder plus the check that the caller may see the order
func (oc *OrderController) loadOrder(c *gin.Context, actor services.Actor) (*models.Order, bool) {
	order, ok := findOrder(c, oc.orders)
	if !ok {
		return nil, false
	}
	if !oc.authz.CanViewOrder(actor, order) {
		respondForbidden(c, "You don't have permission to view this order")
		return nil, false
	}
	return order, true
}

// CreateOrder handles POST /api/v1/orders - creates a new order (customers only)
func (oc *OrderController) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c, oc.users)
	if !ok {
		return
	}

	if user.Role != models.RoleCustomer {
		respondForbidden(c, "Only customers can create orders")
		return
	}

	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := oc.orders.CreateOrder(c.Request.Context(), user.ID, req)
	if err != nil {
		respondServiceError(c, err, "create order")
		return
	}

	respondData(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders - the caller's orders, optionally filtered by status.
// Admins list the whole marketplace by status.
func (oc *OrderController) ListOrders(c *gin.Context) {
	user, ok := currentUser(c, oc.users)
	if !ok {
		return
	}

	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown order status")
		return
	}

	ctx := c.Request.Context()
	var orders []models.Order
	var err error
	switch user.Role {
	case models.RoleAdmin:
		if status == "" {
			respondError(c, http.StatusBadRequest, "STATUS_REQUIRED", "Admins must filter orders by status")
			return
		}
		orders, err = oc.orders.ListOrdersByStatus(ctx, status)
	case models.RoleProvider:
		orders, err = oc.orders.ListOrdersByProvider(ctx, user.ID)
	default:
		orders, err = oc.orders.ListOrdersByCustomer(ctx, user.ID)
	}
	if err != nil {
		respondServiceError(c, err, "list orders")
		return
	}

	if status != "" && user.Role != models.RoleAdmin {
		filtered := make([]models.Order, 0, len(orders))
		for _, order := range orders {
			if order.Status == status {
				filtered = append(filtered, order)
			}
		}
		orders = filtered
	}

	respondData(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id
func (oc *OrderController) GetOrder(c *gin.Context) {
	user, ok := currentUser(c, oc.users)
	if !ok {
		return
	}

	order, ok := oc.loadOrder(c, services.ActorFor(user))
	if !ok {
		return
	}
	respondData(c, http.StatusOK, order)
}

// ApplyTransition handles POST /api/v1/orders/:id/transitions
func (oc *OrderController) ApplyTransition(c *gin.Context) {
	user, ok := currentUser(c, oc.users)
	if !ok {
		return
	}
	actor := services.ActorFor(user)

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if !req.Status.IsValid() {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown order status "+string(req.Status))
		return
	}

	order, ok := oc.loadOrder(c, actor)
	if !ok {
		return
	}
	if !oc.authz.CanTransition(actor, order, req.Status) {
		respondForbidden(c, "You are not allowed to move this order to "+string(req.Status))
		return
	}

	updated, err := oc.orders.ApplyTransition(c.Request.Context(), order.ID, req.Status, models.TransitionExtra{
		ProductionHours: req.ProductionHours,
		TrackingNumber:  req.TrackingNumber,
		TrackingCompany: req.TrackingCompany,
		CancelReason:    req.CancelReason,
	})
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}

	respondData(c, http.StatusOK, updated)
}

// AddTracking handles POST /api/v1/orders/:id/tracking
func (oc *OrderController) AddTracking(c *gin.Context) {
	user, ok := currentUser(c, oc.users)
	if !ok {
		return
	}
	actor := services.ActorFor(user)

	var req TrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, ok := oc.loadOrder(c, actor)
	if !ok {
		return
	}
	if !oc.authz.CanEditTracking(actor, order) {
		respondForbidden(c, "Only the provider can add tracking information")
		return
	}

	updated, err := oc.orders.AddTrackingInfo(c.Request.Context(), order.ID, req.TrackingNumber, req.TrackingCompany)
	if err != nil {
		respondServiceError(c, err, "add tracking information")
		return
	}

	respondData(c, http.StatusOK, updated)
}

// ProposePriceChange handles POST /api/v1/orders/:id/price-change (provider)
func (oc *OrderController) ProposePriceChange(c *gin.Context) {
	user, ok := currentUser(c, oc.users)
	if !ok {
		return
	}
	actor := services.ActorFor(user)

	var req PriceChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, ok := oc.loadOrder(c, actor)
	if !ok {
		return
	}
	if !oc.authz.CanProposePrice(actor, order) {
		respondForbidden(c, "Only the provider can propose a new price")
		return
	}

	updated, err := oc.orders.ProposePriceChange(c.Request.Context(), order.ID, req.Price)
	if err != nil {
		respondServiceError(c, err, "propose price change")
		return
	}

	respondData(c, http.StatusOK, updated)
}

// RespondToPriceChange handles POST /api/v1/orders/:id/price-change/response (customer)
func (oc *OrderController) RespondToPriceChange(c *gin.Context) {
	user, ok := currentUser(c, oc.users)
	if !ok {
		return
	}
	actor := services.ActorFor(user)

	var req PriceResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, ok := oc.loadOrder(c, actor)
	if !ok {
		return
	}
	if !oc.authz.CanRespondToPrice(actor, order) {
		respondForbidden(c, "Only the customer can respond to a price change")
		return
	}

	updated, resolution, err := oc.orders.RespondToPriceChange(c.Request.Context(), order.ID, *req.Accept)
	if err != nil {
		respondServiceError(c, err, "respond to price change")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"order":      updated,
		"resolution": resolution,
	})
}

// DownloadFile handles GET /api/v1/orders/:id/file - redirects to a short-lived link to the print file
func (oc *OrderController) DownloadFile(c *gin.Context) {
	user, ok := currentUser(c, oc.users)
	if !ok {
		return
	}

	order, ok := oc.loadOrder(c, services.ActorFor(user))
	if !ok {
		return
	}

	url, err := oc.files.DownloadURL(c.Request.Context(), order.FileRef)
	if errors.Is(err, models.ErrNotFound) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "This order has no print file")
		return
	}
	if err != nil {
		log.Printf("Failed to sign print file URL for order %s: %v", order.ID, err)
		respondError(c, http.StatusBadGateway, "STORAGE_ERROR", "Failed to generate download link")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}
