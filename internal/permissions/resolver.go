package permissions

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Role is the stored admin role.
type Role string

const (
	RoleStandardAdmin Role = "standard_admin"
	RoleSuperAdmin    Role = "super_admin"
)

// ParseRole maps a stored value to a Role. Anything unrecognised is a standard admin.
func ParseRole(v string) Role {
	if Role(v) == RoleSuperAdmin {
		return RoleSuperAdmin
	}
	return RoleStandardAdmin
}

// Account is the stored admin record as seen by the resolver.
type Account struct {
	UserID            string
	Role              Role
	StoredPermissions []byte
	IsActive          bool
}

// ErrAccountUnavailable marks a lookup that found no usable account.
var ErrAccountUnavailable = errors.New("admin account unavailable")

// Resolution is the effective permission state of one user.
// A nil Resolution, or one without a Set, grants nothing.
type Resolution struct {
	Permissions *Set `json:"permissions"`
	SuperAdmin  bool `json:"is_super_admin"`
	// FailedClosed is set when the default baseline was applied because the
	// account could not be resolved.
	FailedClosed bool `json:"-"`
}

// Has answers a point query against the resolution.
func (r *Resolution) Has(k Key) bool {
	if r == nil {
		return false
	}
	if r.SuperAdmin {
		return true
	}
	if r.Permissions == nil {
		return false
	}
	return r.Permissions.Get(k)
}

// Effective returns the total set the user acts with.
func (r *Resolution) Effective() Set {
	if r == nil {
		return Set{}
	}
	if r.SuperAdmin {
		return All()
	}
	if r.Permissions == nil {
		return Set{}
	}
	return *r.Permissions
}

func fallback() Resolution {
	s := Default()
	return Resolution{Permissions: &s, FailedClosed: true}
}

// Resolve derives the effective permissions for an account lookup result.
// Any lookup failure, missing or inactive account, or unreadable override
// payload yields the default baseline without super-admin rights.
func Resolve(account *Account, lookupErr error) Resolution {
	if lookupErr != nil || account == nil || !account.IsActive {
		return fallback()
	}

	if account.Role == RoleSuperAdmin {
		s := All()
		return Resolution{Permissions: &s, SuperAdmin: true}
	}

	overrides, err := DecodeOverrides(account.StoredPermissions)
	if err != nil {
		return fallback()
	}
	s := Merge(overrides)
	return Resolution{Permissions: &s}
}

// AccountStore fetches admin accounts by authenticated user id.
type AccountStore interface {
	GetAdminAccount(ctx context.Context, userID string) (*Account, error)
}

// FallbackRecorder is notified each time the resolver fails closed.
type FallbackRecorder func(reason string)

// Resolver looks up accounts and resolves their permissions.
type Resolver struct {
	store      AccountStore
	logger     zerolog.Logger
	onFallback FallbackRecorder
}

func NewResolver(store AccountStore, logger *zerolog.Logger, onFallback FallbackRecorder) *Resolver {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "permissions").Logger()
	}
	return &Resolver{store: store, logger: base, onFallback: onFallback}
}

// Resolve never fails: lookup errors are logged and degrade to the default set.
func (r *Resolver) Resolve(ctx context.Context, userID string) Resolution {
	if userID == "" {
		r.recordFallback("no_user", userID, nil)
		return fallback()
	}

	account, err := r.store.GetAdminAccount(ctx, userID)
	switch {
	case err != nil:
		r.recordFallback("lookup_error", userID, err)
	case account == nil:
		r.recordFallback("not_found", userID, nil)
	case !account.IsActive:
		r.recordFallback("inactive", userID, nil)
	}

	res := Resolve(account, err)
	if err == nil && account != nil && account.IsActive && res.FailedClosed {
		r.recordFallback("invalid_overrides", userID, nil)
	}
	return res
}

func (r *Resolver) recordFallback(reason, userID string, err error) {
	ev := r.logger.Warn()
	if err != nil {
		ev = r.logger.Error().Err(err)
	}
	ev.Str("user_id", userID).Str("reason", reason).Msg("permissions fell back to default set")

	if r.onFallback != nil {
		r.onFallback(reason)
	}
}
