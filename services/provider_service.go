package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/repository"
)

// ProviderApplicationInput is a user's request to start selling print capacity
type ProviderApplicationInput struct {
	BusinessName string `json:"business_name" validate:"required,max=200"`
	Phone        string `json:"phone" validate:"required,e164"`
	City         string `json:"city" validate:"required"`
	District     string `json:"district"`
	Description  string `json:"description" validate:"max=2000"`
	Experience   string `json:"experience" validate:"max=2000"`
}

// ProviderApplicationService takes applications and lets admins approve or reject them
type ProviderApplicationService struct {
	providers repository.ProviderRepository
	users     repository.UserRepository
	validate  *validator.Validate
	now       func() time.Time
}

func NewProviderApplicationService(repos *repository.Repositories, now func() time.Time) *ProviderApplicationService {
	if now == nil {
		now = time.Now
	}
	return &ProviderApplicationService{
		providers: repos.Providers,
		users:     repos.Users,
		validate:  newValidator(),
		now:       now,
	}
}

// Apply submits an application for user. Users who already provide, or have an open or
// approved application, get ErrApplicationExists.
func (s *ProviderApplicationService) Apply(ctx context.Context, user *models.User, in ProviderApplicationInput) (*models.ProviderApplication, error) {
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}
	if user.Role != models.RoleCustomer {
		return nil, models.ErrApplicationExists
	}

	application := &models.ProviderApplication{
		UserID:       user.ID,
		BusinessName: strings.TrimSpace(in.BusinessName),
		Phone:        in.Phone,
		City:         strings.TrimSpace(in.City),
		District:     strings.TrimSpace(in.District),
		Description:  strings.TrimSpace(in.Description),
		Experience:   strings.TrimSpace(in.Experience),
	}
	if err := s.providers.SaveApplication(ctx, application); err != nil {
		return nil, err
	}
	return application, nil
}

func (s *ProviderApplicationService) MyApplication(ctx context.Context, userID string) (*models.ProviderApplication, error) {
	return s.providers.FindApplicationByUser(ctx, userID)
}

// ListApplications lists applications in status, or all when status is empty
func (s *ProviderApplicationService) ListApplications(ctx context.Context, status models.ApplicationStatus) ([]models.ProviderApplication, error) {
	switch status {
	case "", models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
	default:
		return nil, models.NewValidationError("INVALID_STATUS", "Unknown application status "+string(status))
	}
	return s.providers.ListApplications(ctx, status)
}

// Approve promotes the applicant to a verified provider
func (s *ProviderApplicationService) Approve(ctx context.Context, applicationID string, admin Actor) (*models.Provider, error) {
	return s.providers.Approve(ctx, applicationID, admin.UserID, s.now())
}

func (s *ProviderApplicationService) Reject(ctx context.Context, applicationID string, admin Actor, note string) (*models.ProviderApplication, error) {
	return s.providers.Reject(ctx, applicationID, admin.UserID, strings.TrimSpace(note), s.now())
}

func (s *ProviderApplicationService) GetProvider(ctx context.Context, userID string) (*models.Provider, error) {
	return s.providers.FindProvider(ctx, userID)
}

func (s *ProviderApplicationService) ListProviders(ctx context.Context, city string) ([]models.Provider, error) {
	return s.providers.ListProviders(ctx, strings.TrimSpace(city))
}
