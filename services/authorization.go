package services

import (
	"github.com/yazicin/yazicin-api/models"
)

// Actor is the authenticated user on whose behalf an operation runs
type Actor struct {
	UserID string
	Role   models.Role
}

// ActorFor builds the actor for a stored user
func ActorFor(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Authorizer decides who may perform which operation on an order. It is consulted by the
// HTTP layer before any state change; the order state machine itself never checks identity.
type Authorizer interface {
	CanViewOrder(actor Actor, order *models.Order) bool
	CanTransition(actor Actor, order *models.Order, target models.OrderStatus) bool
	CanEditTracking(actor Actor, order *models.Order) bool
	CanProposePrice(actor Actor, order *models.Order) bool
	CanRespondToPrice(actor Actor, order *models.Order) bool
	CanMessage(actor Actor, order *models.Order) bool
	CanReview(actor Actor, order *models.Order) bool
	CanManagePrinter(actor Actor, printer *models.Printer) bool
	CanReviewApplications(actor Actor) bool
}

// RoleAuthorizer grants admins everything, the order's provider every forward step and
// the order's customer cancellation, price responses and reviews.
type RoleAuthorizer struct{}

func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{}
}

func isCustomerOf(actor Actor, order *models.Order) bool {
	return actor.UserID != "" && actor.UserID == order.CustomerID
}

func isProviderOf(actor Actor, order *models.Order) bool {
	return actor.Role == models.RoleProvider && actor.UserID != "" && actor.UserID == order.ProviderID
}

func (RoleAuthorizer) CanViewOrder(actor Actor, order *models.Order) bool {
	return actor.IsAdmin() || isCustomerOf(actor, order) || isProviderOf(actor, order)
}

func (RoleAuthorizer) CanTransition(actor Actor, order *models.Order, target models.OrderStatus) bool {
	if actor.IsAdmin() {
		return true
	}
	if target == models.StatusCancelled {
		return isCustomerOf(actor, order) || isProviderOf(actor, order)
	}
	return isProviderOf(actor, order)
}

func (RoleAuthorizer) CanEditTracking(actor Actor, order *models.Order) bool {
	return actor.IsAdmin() || isProviderOf(actor, order)
}

func (RoleAuthorizer) CanProposePrice(actor Actor, order *models.Order) bool {
	return actor.IsAdmin() || isProviderOf(actor, order)
}

func (RoleAuthorizer) CanRespondToPrice(actor Actor, order *models.Order) bool {
	return actor.IsAdmin() || isCustomerOf(actor, order)
}

func (RoleAuthorizer) CanMessage(actor Actor, order *models.Order) bool {
	return isCustomerOf(actor, order) || isProviderOf(actor, order)
}

func (RoleAuthorizer) CanReview(actor Actor, order *models.Order) bool {
	return isCustomerOf(actor, order)
}

func (RoleAuthorizer) CanManagePrinter(actor Actor, printer *models.Printer) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == models.RoleProvider && actor.UserID == printer.ProviderID
}

func (RoleAuthorizer) CanReviewApplications(actor Actor) bool {
	return actor.IsAdmin()
}
