package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/repository"
)

type stubUserInfo struct {
	info *Auth0UserInfo
	err  error
}

func (s stubUserInfo) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	return s.info, s.err
}

func TestUserService_Register(t *testing.T) {
	repos := repository.New(setupTestDB(t))
	ctx := context.Background()
	service := NewUserService(repos.Users, stubUserInfo{info: &Auth0UserInfo{Sub: "auth0|new", Email: "deniz@example.com", Name: "Deniz"}})

	user, err := service.Register(ctx, "auth0|new", "token")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, "Deniz", user.Name)

	found, err := service.GetByAuth0ID(ctx, "auth0|new")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = service.Register(ctx, "auth0|new", "token")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUserService_RegisterRejectsIncompleteProfiles(t *testing.T) {
	repos := repository.New(setupTestDB(t))
	ctx := context.Background()

	noEmail := NewUserService(repos.Users, stubUserInfo{info: &Auth0UserInfo{Name: "Deniz"}})
	_, err := noEmail.Register(ctx, "auth0|a", "token")
	assert.Equal(t, "MISSING_EMAIL", models.ErrorCode(err))

	noName := NewUserService(repos.Users, stubUserInfo{info: &Auth0UserInfo{Email: "x@example.com"}})
	_, err = noName.Register(ctx, "auth0|b", "token")
	assert.Equal(t, "MISSING_NAME", models.ErrorCode(err))

	upstream := errors.New("auth0 down")
	failing := NewUserService(repos.Users, stubUserInfo{err: upstream})
	_, err = failing.Register(ctx, "auth0|c", "token")
	assert.ErrorIs(t, err, upstream)
}
