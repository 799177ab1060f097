package session

import (
	"context"
	"errors"
	"testing"

	"salon/internal/database"
	"salon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) GetAdminAccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminAccount), args.Error(1)
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAccountAuthenticator(t *testing.T) {
	ctx := context.Background()
	lookup := new(mockLookup)
	auth := NewAccountAuthenticator(lookup)

	active := &models.AdminAccount{ID: "u1", Email: "owner@salon.test", PasswordHash: hash(t, "secret"), IsActive: true}
	inactive := &models.AdminAccount{ID: "u2", Email: "old@salon.test", PasswordHash: hash(t, "secret"), IsActive: false}

	lookup.On("GetAdminAccountByEmail", ctx, "owner@salon.test").Return(active, nil)
	lookup.On("GetAdminAccountByEmail", ctx, "old@salon.test").Return(inactive, nil)
	lookup.On("GetAdminAccountByEmail", ctx, "nobody@salon.test").Return(nil, database.ErrNotFound)
	lookup.On("GetAdminAccountByEmail", ctx, "broken@salon.test").Return(nil, errors.New("disk on fire"))

	id, err := auth.Authenticate(ctx, "owner@salon.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = auth.Authenticate(ctx, "owner@salon.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "old@salon.test", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "nobody@salon.test", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "broken@salon.test", "secret")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pa55")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pa55")))
}
