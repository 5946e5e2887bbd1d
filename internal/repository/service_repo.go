package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"slotbook/internal/db"
)

type ServiceRepository struct {
	DB *sql.DB
}

func NewServiceRepository(database *sql.DB) *ServiceRepository {
	return &ServiceRepository{DB: database}
}

func (r *ServiceRepository) GetByID(id string) (*db.Service, error) {
	var s db.Service
	query := `
		SELECT id, name, COALESCE(description, ''), base_price_cents, price_per_hour_cents, active, created_at, updated_at
		FROM services WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&s.ID, &s.Name, &s.Description, &s.BasePriceCents, &s.PricePerHourCents, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("error querying service %s: %w", id, err)
	}
	return &s, nil
}

func (r *ServiceRepository) ListActive() ([]db.Service, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), base_price_cents, price_per_hour_cents, active, created_at, updated_at
		FROM services WHERE active ORDER BY name`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error listing services: %w", err)
	}
	defer rows.Close()

	var services []db.Service
	for rows.Next() {
		var s db.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.BasePriceCents, &s.PricePerHourCents, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *ServiceRepository) Create(s *db.Service) error {
	query := `
		INSERT INTO services (id, name, description, base_price_cents, price_per_hour_cents, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`
	return r.DB.QueryRow(query, s.ID, s.Name, s.Description, s.BasePriceCents, s.PricePerHourCents, s.Active).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *ServiceRepository) Update(s *db.Service) error {
	query := `
		UPDATE services SET name = $2, description = $3, base_price_cents = $4,
			price_per_hour_cents = $5, active = $6, updated_at = NOW()
		WHERE id = $1`
	result, err := r.DB.Exec(query, s.ID, s.Name, s.Description, s.BasePriceCents, s.PricePerHourCents, s.Active)
	if err != nil {
		return fmt.Errorf("error updating service %s: %w", s.ID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
