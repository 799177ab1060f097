package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"salon/internal/config"
	"salon/internal/database"
	"salon/internal/domain"
	"salon/internal/models"
	"salon/internal/permissions"
	"salon/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Actor is the signed-in admin performing an operation.
type Actor struct {
	UserID     string
	Resolution permissions.Resolution
}

// CreateAdminRequest describes a new back-office account.
type CreateAdminRequest struct {
	Email       string          `json:"email" validate:"required,email,max=254"`
	DisplayName string          `json:"display_name" validate:"max=100"`
	Role        string          `json:"role"`
	Password    string          `json:"password" validate:"required,min=8,max=72"`
	Permissions map[string]bool `json:"permissions"`
}

type AdminService struct {
	repo     domain.AdminRepository
	validate *validator.Validate
	logger   *zerolog.Logger
}

func NewAdminService(repo domain.AdminRepository, logger *zerolog.Logger) *AdminService {
	return &AdminService{repo: repo, validate: newValidator(), logger: logger}
}

// Seed creates the configured accounts that do not exist yet. Existing
// accounts are left untouched so that changes made at runtime survive restarts.
func (s *AdminService) Seed(ctx context.Context, seeds []config.AdminSeed) error {
	for _, seed := range seeds {
		_, err := s.repo.GetAdminAccountByEmail(ctx, seed.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}
		role, err := parseRole(seed.Role)
		if err != nil {
			return err
		}
		account := &models.AdminAccount{
			Email:        seed.Email,
			DisplayName:  seed.DisplayName,
			Role:         string(role),
			Permissions:  "{}",
			PasswordHash: seed.PasswordHash,
			IsActive:     true,
		}
		if err := s.repo.CreateAdminAccount(ctx, account); err != nil {
			return err
		}
		s.logger.Info().Str("email", account.Email).Str("role", account.Role).Msg("admin account seeded")
	}
	return nil
}

func (s *AdminService) GetAccount(ctx context.Context, id string) (*models.AdminAccount, error) {
	return s.repo.GetAdminAccount(ctx, id)
}

func (s *AdminService) ListAccounts(ctx context.Context) ([]*models.AdminAccount, error) {
	accounts, err := s.repo.ListAdminAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*models.AdminAccount{}
	}
	return accounts, nil
}

func (s *AdminService) CreateAccount(ctx context.Context, actor Actor, req CreateAdminRequest) (*models.AdminAccount, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := checkStruct(s.validate, &req); err != nil {
		return nil, err
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if role == permissions.RoleSuperAdmin && !actor.Resolution.SuperAdmin {
		return nil, ErrForbidden
	}
	stored, err := encodeOverrides(req.Permissions)
	if err != nil {
		return nil, err
	}

	hash, err := session.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.AdminAccount{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		Role:         string(role),
		Permissions:  stored,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateAdminAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info().Str("actor", actor.UserID).Str("account_id", account.ID).Str("role", account.Role).Msg("admin account created")
	return account, nil
}

// UpdatePermissions replaces the role and the stored overrides of an
// account. Only a super admin may grant or revoke super admin.
func (s *AdminService) UpdatePermissions(ctx context.Context, actor Actor, id, roleName string, overrides map[string]bool) (*models.AdminAccount, error) {
	target, err := s.repo.GetAdminAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := parseRole(roleName)
	if err != nil {
		return nil, err
	}
	touchesSuper := role == permissions.RoleSuperAdmin || permissions.ParseRole(target.Role) == permissions.RoleSuperAdmin
	if touchesSuper && !actor.Resolution.SuperAdmin {
		return nil, ErrForbidden
	}
	stored, err := encodeOverrides(overrides)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAdminPermissions(ctx, id, string(role), stored); err != nil {
		return nil, err
	}

	s.logger.Info().Str("actor", actor.UserID).Str("account_id", id).Str("role", string(role)).Msg("admin permissions updated")
	return s.repo.GetAdminAccount(ctx, id)
}

// SetActive enables or disables an account. Admins cannot disable
// themselves, and only a super admin may disable another super admin.
func (s *AdminService) SetActive(ctx context.Context, actor Actor, id string, active bool) (*models.AdminAccount, error) {
	if !active && id == actor.UserID {
		return nil, invalid("cannot deactivate your own account")
	}
	target, err := s.repo.GetAdminAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if permissions.ParseRole(target.Role) == permissions.RoleSuperAdmin && !actor.Resolution.SuperAdmin {
		return nil, ErrForbidden
	}

	if err := s.repo.SetAdminActive(ctx, id, active); err != nil {
		return nil, err
	}

	s.logger.Info().Str("actor", actor.UserID).Str("account_id", id).Bool("active", active).Msg("admin active flag changed")
	return s.repo.GetAdminAccount(ctx, id)
}

func parseRole(name string) (permissions.Role, error) {
	switch permissions.Role(strings.TrimSpace(name)) {
	case "", permissions.RoleStandardAdmin:
		return permissions.RoleStandardAdmin, nil
	case permissions.RoleSuperAdmin:
		return permissions.RoleSuperAdmin, nil
	default:
		return "", invalid("unknown role %q", name)
	}
}

func encodeOverrides(overrides map[string]bool) (string, error) {
	for name := range overrides {
		if _, err := permissions.ParseKey(name); err != nil {
			return "", invalid("%v", err)
		}
	}
	if overrides == nil {
		overrides = map[string]bool{}
	}
	raw, err := json.Marshal(overrides)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// AccountStore exposes admin accounts to the permission resolver.
type AccountStore struct {
	repo domain.AdminRepository
}

func NewAccountStore(repo domain.AdminRepository) *AccountStore {
	return &AccountStore{repo: repo}
}

// GetAdminAccount returns nil, nil when no account exists for userID.
func (a *AccountStore) GetAdminAccount(ctx context.Context, userID string) (*permissions.Account, error) {
	account, err := a.repo.GetAdminAccount(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &permissions.Account{
		UserID:            account.ID,
		Role:              permissions.ParseRole(account.Role),
		StoredPermissions: []byte(account.Permissions),
		IsActive:          account.IsActive,
	}, nil
}
