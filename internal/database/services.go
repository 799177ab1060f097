package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"salon/internal/models"
)

const serviceColumns = `id, name, category, description, duration_minutes, price_cents, sort_order, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (*models.Service, error) {
	var svc models.Service
	err := row.Scan(
		&svc.ID,
		&svc.Name,
		&svc.Category,
		&svc.Description,
		&svc.DurationMinutes,
		&svc.PriceCents,
		&svc.SortOrder,
		&svc.IsActive,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &svc, nil
}

// UpsertService inserts or refreshes a catalog entry with a fixed id (config seeding).
func (db *DB) UpsertService(ctx context.Context, svc *models.Service) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `INSERT INTO services (`+serviceColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            category = excluded.category,
            description = excluded.description,
            duration_minutes = excluded.duration_minutes,
            price_cents = excluded.price_cents,
            sort_order = excluded.sort_order,
            updated_at = excluded.updated_at`,
		svc.ID, svc.Name, svc.Category, svc.Description, svc.DurationMinutes, svc.PriceCents, svc.SortOrder, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert service %d: %w", svc.ID, err)
	}
	return nil
}

// CreateService inserts a new catalog entry and assigns its id.
func (db *DB) CreateService(ctx context.Context, svc *models.Service) error {
	if svc == nil {
		return fmt.Errorf("service is nil")
	}
	now := time.Now()
	res, err := db.ExecContext(ctx, `INSERT INTO services (name, category, description, duration_minutes, price_cents, sort_order, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		svc.Name, svc.Category, svc.Description, svc.DurationMinutes, svc.PriceCents, svc.SortOrder, now, now)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	svc.ID = id
	svc.IsActive = true
	svc.CreatedAt = now
	svc.UpdatedAt = now
	return nil
}

// UpdateService rewrites the editable fields of a catalog entry.
func (db *DB) UpdateService(ctx context.Context, svc *models.Service) error {
	if svc == nil {
		return fmt.Errorf("service is nil")
	}
	res, err := db.ExecContext(ctx, `UPDATE services
        SET name = ?, category = ?, description = ?, duration_minutes = ?, price_cents = ?, sort_order = ?, is_active = ?, updated_at = ?
        WHERE id = ?`,
		svc.Name, svc.Category, svc.Description, svc.DurationMinutes, svc.PriceCents, svc.SortOrder, svc.IsActive, time.Now(), svc.ID)
	if err != nil {
		return fmt.Errorf("failed to update service %d: %w", svc.ID, err)
	}
	return expectOneRow(res)
}

// DeactivateService hides a service from the public catalog.
func (db *DB) DeactivateService(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE services SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate service %d: %w", id, err)
	}
	return expectOneRow(res)
}

func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	row := db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	return scanService(row)
}

// ListActiveServices returns the public catalog ordered for display.
func (db *DB) ListActiveServices(ctx context.Context) ([]*models.Service, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE is_active = 1 ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
