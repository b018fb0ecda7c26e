package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/services"
)

type ReviewController struct {
	reviews *services.ReviewService
	orders  *services.OrderService
	authz   services.Authorizer
	users   *services.UserService
}

func NewReviewController(reviews *services.ReviewService, orders *services.OrderService, authz services.Authorizer, users *services.UserService) *ReviewController {
	return &ReviewController{reviews: reviews, orders: orders, authz: authz, users: users}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" binding:"max=2000"`
}

// CreateReview handles POST /api/v1/orders/:id/review - the customer rates a delivered order
func (rc *ReviewController) CreateReview(c *gin.Context) {
	user, ok := currentUser(c, rc.users)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, ok := findOrder(c, rc.orders)
	if !ok {
		return
	}
	if !rc.authz.CanReview(services.ActorFor(user), order) {
		respondForbidden(c, "Only the customer of this order can review it")
		return
	}

	review, err := rc.reviews.CreateReview(c.Request.Context(), order.ID, user, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(c, err, "create review")
		return
	}

	respondData(c, http.StatusCreated, review)
}

// GetReviewStatus handles GET /api/v1/orders/:id/review
func (rc *ReviewController) GetReviewStatus(c *gin.Context) {
	user, ok := currentUser(c, rc.users)
	if !ok {
		return
	}

	order, ok := findOrder(c, rc.orders)
	if !ok {
		return
	}
	if !rc.authz.CanViewOrder(services.ActorFor(user), order) {
		respondForbidden(c, "You don't have permission to view this order")
		return
	}

	reviewed, err := rc.reviews.HasReviewed(c.Request.Context(), order.ID)
	if err != nil {
		respondServiceError(c, err, "check review")
		return
	}

	respondData(c, http.StatusOK, gin.H{"reviewed": reviewed})
}

// ListProviderReviews handles GET /api/v1/providers/:id/reviews
func (rc *ReviewController) ListProviderReviews(c *gin.Context) {
	reviews, err := rc.reviews.ListProviderReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "list reviews")
		return
	}
	respondData(c, http.StatusOK, reviews)
}
