package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

func (r *Repository) GetAllVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, name, plate_number, is_active, created_at, version
		FROM vehicles ORDER BY id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := make([]*domain.Vehicle, 0)
	for rows.Next() {
		v := &domain.Vehicle{}
		if err := rows.Scan(&v.ID, &v.Name, &v.PlateNumber, &v.IsActive, &v.CreatedAt, &v.Version); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return vehicles, nil
}

func (r *Repository) GetVehicleByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	query := `
		SELECT name, plate_number, is_active, created_at, version
		FROM vehicles WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	v := &domain.Vehicle{
		ID: id,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&v.Name, &v.PlateNumber, &v.IsActive, &v.CreatedAt, &v.Version); err != nil {
		return nil, err
	}

	return v, nil
}

func (r *Repository) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (name, plate_number)
		VALUES ($1, $2)
		RETURNING id, is_active, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, v.Name, v.PlateNumber).Scan(&v.ID, &v.IsActive, &v.CreatedAt, &v.Version)
}

func (r *Repository) UpdateVehicle(ctx context.Context, v *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET
			name = $1,
			plate_number = $2,
			is_active = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{v.Name, v.PlateNumber, v.IsActive, v.ID, v.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&v.Version)
}

func (r *Repository) DeleteVehicle(ctx context.Context, id int64) error {
	query := `DELETE FROM vehicles WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}

func (r *Repository) GetVehicleByPlateNumber(ctx context.Context, plateNumber string) (*domain.Vehicle, error) {
	query := `
		SELECT id, name, is_active, created_at, version
		FROM vehicles WHERE plate_number = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	v := &domain.Vehicle{
		PlateNumber: plateNumber,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, plateNumber).Scan(&v.ID, &v.Name, &v.IsActive, &v.CreatedAt, &v.Version); err != nil {
		return nil, err
	}

	return v, nil
}
