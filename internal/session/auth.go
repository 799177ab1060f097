package session

import (
	"context"
	"errors"
	"fmt"

	"salon/internal/database"
	"salon/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTooManyAttempts    = errors.New("too many sign-in attempts")
)

// Authenticator verifies credentials and returns the admin user id.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

type AccountLookup interface {
	GetAdminAccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
}

// AccountAuthenticator checks a bcrypt password hash of an active admin account.
type AccountAuthenticator struct {
	accounts AccountLookup
}

func NewAccountAuthenticator(accounts AccountLookup) *AccountAuthenticator {
	return &AccountAuthenticator{accounts: accounts}
}

func (a *AccountAuthenticator) Authenticate(ctx context.Context, email, password string) (string, error) {
	account, err := a.accounts.GetAdminAccountByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}
	if !account.IsActive || account.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return account.ID, nil
}

// HashPassword returns a bcrypt hash suitable for AdminAccount.PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
