package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salon/internal/models"

	"github.com/google/uuid"
)

const adminColumns = `id, email, display_name, role, permissions, password_hash, is_active, created_at, updated_at`

func scanAdmin(row rowScanner) (*models.AdminAccount, error) {
	var a models.AdminAccount
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.DisplayName,
		&a.Role,
		&a.Permissions,
		&a.PasswordHash,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (db *DB) GetAdminAccount(ctx context.Context, id string) (*models.AdminAccount, error) {
	row := db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_accounts WHERE id = ?`, id)
	return scanAdmin(row)
}

func (db *DB) GetAdminAccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	row := db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_accounts WHERE email = ?`, normalizeEmail(email))
	return scanAdmin(row)
}

// CreateAdminAccount inserts an account, generating an id when none is set.
func (db *DB) CreateAdminAccount(ctx context.Context, account *models.AdminAccount) error {
	if account == nil {
		return fmt.Errorf("account is nil")
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Permissions == "" {
		account.Permissions = "{}"
	}
	account.Email = normalizeEmail(account.Email)

	now := time.Now()
	_, err := db.ExecContext(ctx, `INSERT INTO admin_accounts (`+adminColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Email, account.DisplayName, account.Role, account.Permissions,
		account.PasswordHash, account.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create admin account %s: %w", account.Email, err)
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (db *DB) ListAdminAccounts(ctx context.Context) ([]*models.AdminAccount, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admin_accounts ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.AdminAccount
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAdminPermissions replaces the stored role and override object.
func (db *DB) UpdateAdminPermissions(ctx context.Context, id, role, permissions string) error {
	res, err := db.ExecContext(ctx, `UPDATE admin_accounts SET role = ?, permissions = ?, updated_at = ? WHERE id = ?`,
		role, permissions, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update permissions for %s: %w", id, err)
	}
	return expectOneRow(res)
}

func (db *DB) SetAdminActive(ctx context.Context, id string, active bool) error {
	res, err := db.ExecContext(ctx, `UPDATE admin_accounts SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set active flag for %s: %w", id, err)
	}
	return expectOneRow(res)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
