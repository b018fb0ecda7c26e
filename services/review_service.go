package services

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/repository"
)

type ReviewService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewReviewService(repos *repository.Repositories, now func() time.Time) *ReviewService {
	if now == nil {
		now = time.Now
	}
	return &ReviewService{repos: repos, now: now}
}

// CreateReview stores the customer's review of a delivered order and refreshes the
// provider's average rating
func (s *ReviewService) CreateReview(ctx context.Context, orderID string, customer *models.User, rating int, comment string) (*models.Review, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusDelivered {
		return nil, models.NewValidationError("ORDER_NOT_DELIVERED", "Only delivered orders can be reviewed")
	}
	if err := models.ValidateRating(rating); err != nil {
		return nil, err
	}

	exists, err := s.repos.Reviews.ExistsForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrAlreadyReviewed
	}

	review := &models.Review{
		OrderID:      order.ID,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		ProviderID:   order.ProviderID,
		Rating:       rating,
		Comment:      strings.TrimSpace(comment),
		CreatedAt:    s.now(),
	}
	// the unique index on order_id catches a concurrent duplicate that passed the check above
	if err := s.repos.Reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.refreshProviderRating(ctx, order.ProviderID)
	return review, nil
}

func (s *ReviewService) refreshProviderRating(ctx context.Context, providerID string) {
	average, count, err := s.repos.Reviews.ProviderStats(ctx, providerID)
	if err != nil {
		log.Printf("Failed to compute rating for provider %s: %v", providerID, err)
		return
	}
	rounded := math.Round(average*100) / 100
	if err := s.repos.Providers.UpdateRating(ctx, providerID, rounded, int(count)); err != nil {
		log.Printf("Failed to update rating for provider %s: %v", providerID, err)
	}
}

func (s *ReviewService) HasReviewed(ctx context.Context, orderID string) (bool, error) {
	return s.repos.Reviews.ExistsForOrder(ctx, orderID)
}

func (s *ReviewService) ListProviderReviews(ctx context.Context, providerID string) ([]models.Review, error) {
	return s.repos.Reviews.ListByProvider(ctx, providerID)
}
