package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// StartOperatingSession 车辆已有进行中的作业会话时违反 operating_sessions_one_active_key
func (r *Repository) StartOperatingSession(ctx context.Context, vehicleID int64, operatorID int64, checkID int64) (*domain.OperatingSession, error) {
	query := `
		INSERT INTO operating_sessions (vehicle_id, operator_id, check_id)
		VALUES ($1, $2, $3)
		RETURNING id, started_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	sess := &domain.OperatingSession{
		VehicleID:  vehicleID,
		OperatorID: operatorID,
		CheckID:    checkID,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, vehicleID, operatorID, checkID).Scan(&sess.ID, &sess.StartedAt); err != nil {
		return nil, err
	}

	return sess, nil
}

func (r *Repository) GetOperatingSession(ctx context.Context, id int64) (*domain.OperatingSession, error) {
	query := `
		SELECT vehicle_id, operator_id, check_id, started_at, ended_at
		FROM operating_sessions WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	sess := &domain.OperatingSession{
		ID: id,
	}
	dst := []any{&sess.VehicleID, &sess.OperatorID, &sess.CheckID, &sess.StartedAt, &sess.EndedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return sess, nil
}

// GetActiveOperatingSession 车辆当前没有作业时返回 sql.ErrNoRows
func (r *Repository) GetActiveOperatingSession(ctx context.Context, vehicleID int64) (*domain.OperatingSession, error) {
	query := `
		SELECT id, operator_id, check_id, started_at
		FROM operating_sessions
		WHERE vehicle_id = $1 AND ended_at IS NULL
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	sess := &domain.OperatingSession{
		VehicleID: vehicleID,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, vehicleID).Scan(&sess.ID, &sess.OperatorID, &sess.CheckID, &sess.StartedAt); err != nil {
		return nil, err
	}

	return sess, nil
}

// EndOperatingSession 会话不存在或已经结束时返回 sql.ErrNoRows
func (r *Repository) EndOperatingSession(ctx context.Context, sess *domain.OperatingSession) error {
	query := `
		UPDATE operating_sessions
		SET ended_at = NOW()
		WHERE id = $1 AND ended_at IS NULL
		RETURNING vehicle_id, operator_id, check_id, started_at, ended_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	dst := []any{&sess.VehicleID, &sess.OperatorID, &sess.CheckID, &sess.StartedAt, &sess.EndedAt}
	return r.dbpool.QueryRowContext(ctx, query, sess.ID).Scan(dst...)
}
