package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yazicin/yazicin-api/models"
	"gorm.io/gorm"
)

// ProviderRepository stores provider applications and the provider profiles they produce
type ProviderRepository interface {
	// SaveApplication inserts a new application, or resets a rejected one to pending.
	SaveApplication(ctx context.Context, application *models.ProviderApplication) error
	FindApplicationByID(ctx context.Context, id string) (*models.ProviderApplication, error)
	FindApplicationByUser(ctx context.Context, userID string) (*models.ProviderApplication, error)
	ListApplications(ctx context.Context, status models.ApplicationStatus) ([]models.ProviderApplication, error)

	// Approve marks the application approved, promotes the user and provisions the
	// provider profile in one transaction.
	Approve(ctx context.Context, applicationID, adminID string, now time.Time) (*models.Provider, error)
	Reject(ctx context.Context, applicationID, adminID, note string, now time.Time) (*models.ProviderApplication, error)

	FindProvider(ctx context.Context, userID string) (*models.Provider, error)
	ListProviders(ctx context.Context, city string) ([]models.Provider, error)
	UpdateRating(ctx context.Context, userID string, rating float64, count int) error
}

type providerRepository struct {
	db *gorm.DB
}

func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) SaveApplication(ctx context.Context, application *models.ProviderApplication) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ProviderApplication
		err := tx.Where("user_id = ?", application.UserID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			application.Status = models.ApplicationPending
			if err := tx.Create(application).Error; err != nil {
				if isUniqueViolation(err) {
					return models.ErrApplicationExists
				}
				return fmt.Errorf("repository.CreateApplication: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("repository.FindApplication: %w", err)
		case existing.Status != models.ApplicationRejected:
			return models.ErrApplicationExists
		}

		application.ID = existing.ID
		application.CreatedAt = existing.CreatedAt
		application.Status = models.ApplicationPending
		application.ReviewedBy = nil
		application.ReviewedAt = nil
		application.AdminNote = nil
		if err := tx.Select("*").Omit("created_at").Updates(application).Error; err != nil {
			return fmt.Errorf("repository.ResubmitApplication: %w", err)
		}
		return nil
	})
}

func (r *providerRepository) FindApplicationByID(ctx context.Context, id string) (*models.ProviderApplication, error) {
	return r.findApplication(r.db.WithContext(ctx), "id = ?", id)
}

func (r *providerRepository) FindApplicationByUser(ctx context.Context, userID string) (*models.ProviderApplication, error) {
	return r.findApplication(r.db.WithContext(ctx), "user_id = ?", userID)
}

func (r *providerRepository) findApplication(db *gorm.DB, query string, arg interface{}) (*models.ProviderApplication, error) {
	var application models.ProviderApplication
	if err := db.Where(query, arg).First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindApplication: %w", err)
	}
	return &application, nil
}

// ListApplications returns applications oldest first; an empty status lists all of them
func (r *providerRepository) ListApplications(ctx context.Context, status models.ApplicationStatus) ([]models.ProviderApplication, error) {
	applications := []models.ProviderApplication{}
	query := r.db.WithContext(ctx).Order("created_at ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&applications).Error; err != nil {
		return nil, fmt.Errorf("repository.ListApplications: %w", err)
	}
	return applications, nil
}

func (r *providerRepository) Approve(ctx context.Context, applicationID, adminID string, now time.Time) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := r.findApplication(tx, "id = ?", applicationID)
		if err != nil {
			return err
		}
		if application.Status != models.ApplicationPending {
			return models.NewValidationError("APPLICATION_NOT_PENDING", "Only pending applications can be reviewed")
		}

		if err := tx.Model(application).Updates(map[string]interface{}{
			"status":      models.ApplicationApproved,
			"reviewed_by": adminID,
			"reviewed_at": now,
			"updated_at":  now,
		}).Error; err != nil {
			return fmt.Errorf("repository.ApproveApplication: %w", err)
		}

		result := tx.Model(&models.User{}).Where("id = ?", application.UserID).Updates(map[string]interface{}{
			"role":        models.RoleProvider,
			"is_verified": true,
			"updated_at":  now,
		})
		if result.Error != nil {
			return fmt.Errorf("repository.PromoteUser: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return models.ErrNotFound
		}

		provider = models.Provider{
			UserID:       application.UserID,
			BusinessName: application.BusinessName,
			City:         application.City,
			District:     application.District,
			Description:  application.Description,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&provider).Error; err != nil {
			return fmt.Errorf("repository.CreateProvider: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) Reject(ctx context.Context, applicationID, adminID, note string, now time.Time) (*models.ProviderApplication, error) {
	var rejected *models.ProviderApplication
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := r.findApplication(tx, "id = ?", applicationID)
		if err != nil {
			return err
		}
		if application.Status != models.ApplicationPending {
			return models.NewValidationError("APPLICATION_NOT_PENDING", "Only pending applications can be reviewed")
		}

		application.Status = models.ApplicationRejected
		application.ReviewedBy = &adminID
		application.ReviewedAt = &now
		if note != "" {
			application.AdminNote = &note
		}
		application.UpdatedAt = now
		if err := tx.Save(application).Error; err != nil {
			return fmt.Errorf("repository.RejectApplication: %w", err)
		}
		rejected = application
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (r *providerRepository) FindProvider(ctx context.Context, userID string) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.WithContext(ctx).First(&provider, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindProvider: %w", err)
	}
	return &provider, nil
}

// ListProviders returns active providers, best rated first, optionally filtered by city
func (r *providerRepository) ListProviders(ctx context.Context, city string) ([]models.Provider, error) {
	providers := []models.Provider{}
	query := r.db.WithContext(ctx).Where("is_active = ?", true).Order("rating DESC").Order("business_name ASC")
	if city != "" {
		query = query.Where("city = ?", city)
	}
	if err := query.Find(&providers).Error; err != nil {
		return nil, fmt.Errorf("repository.ListProviders: %w", err)
	}
	return providers, nil
}

func (r *providerRepository) UpdateRating(ctx context.Context, userID string, rating float64, count int) error {
	result := r.db.WithContext(ctx).Model(&models.Provider{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"rating":       rating,
		"review_count": count,
	})
	if result.Error != nil {
		return fmt.Errorf("repository.UpdateProviderRating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
