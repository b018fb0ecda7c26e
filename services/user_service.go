package services

import (
	"context"
	"errors"

	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/repository"
)

// UserService maps Auth0 identities to marketplace users
type UserService struct {
	users    repository.UserRepository
	userInfo UserInfoFetcher
}

func NewUserService(users repository.UserRepository, userInfo UserInfoFetcher) *UserService {
	return &UserService{users: users, userInfo: userInfo}
}

// Register creates the user behind accessToken from Auth0's profile. New users are customers;
// provider status is only granted through an approved application.
func (s *UserService) Register(ctx context.Context, auth0ID, accessToken string) (*models.User, error) {
	if _, err := s.users.FindByAuth0ID(ctx, auth0ID); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	info, err := s.userInfo.GetUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, models.NewValidationError("MISSING_EMAIL", "Email not provided by Auth0")
	}
	name := info.DisplayName()
	if name == "" {
		return nil, models.NewValidationError("MISSING_NAME", "Name not provided by Auth0")
	}

	user := &models.User{
		Auth0ID: auth0ID,
		Name:    name,
		Email:   info.Email,
		Role:    models.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	return s.users.FindByAuth0ID(ctx, auth0ID)
}
