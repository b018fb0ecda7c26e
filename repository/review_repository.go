package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/yazicin/yazicin-api/models"
	"gorm.io/gorm"
)

// ReviewRepository stores customer reviews, at most one per order
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ExistsForOrder(ctx context.Context, orderID string) (bool, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Review, error)
	ProviderStats(ctx context.Context, providerID string) (average float64, count int64, err error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return models.ErrAlreadyReviewed
		}
		return fmt.Errorf("repository.CreateReview: %w", err)
	}
	return nil
}

func (r *reviewRepository) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("repository.ReviewExists: %w", err)
	}
	return count > 0, nil
}

func (r *reviewRepository) ListByProvider(ctx context.Context, providerID string) ([]models.Review, error) {
	reviews := []models.Review{}
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("repository.ListReviews: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) ProviderStats(ctx context.Context, providerID string) (float64, int64, error) {
	var stats struct {
		Average float64
		Count   int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("provider_id = ?", providerID).
		Scan(&stats).Error; err != nil {
		return 0, 0, fmt.Errorf("repository.ProviderReviewStats: %w", err)
	}
	return stats.Average, stats.Count, nil
}

// isUniqueViolation recognises duplicate-key errors from both PostgreSQL and SQLite
func isUniqueViolation(err error) bool {
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint")
}
