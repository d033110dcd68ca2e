package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// FindInProgressCheck 车辆没有进行中的检查单时返回 sql.ErrNoRows
func (r *Repository) FindInProgressCheck(ctx context.Context, vehicleID int64) (*domain.PreShiftCheck, error) {
	query := `
		SELECT id, vehicle_id, operator_id, status, created_at, last_saved_at, version
		FROM pre_shift_checks
		WHERE vehicle_id = $1 AND status = $2
	`

	return r.getCheck(ctx, query, vehicleID, domain.CheckStatusInProgress)
}

func (r *Repository) GetCheckByID(ctx context.Context, id int64) (*domain.PreShiftCheck, error) {
	query := `
		SELECT id, vehicle_id, operator_id, status, created_at, last_saved_at, version
		FROM pre_shift_checks
		WHERE id = $1
	`

	return r.getCheck(ctx, query, id)
}

func (r *Repository) getCheck(ctx context.Context, query string, args ...any) (*domain.PreShiftCheck, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	check := &domain.PreShiftCheck{}
	dst := []any{&check.ID, &check.VehicleID, &check.OperatorID, &check.Status, &check.CreatedAt, &check.LastSavedAt, &check.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return nil, err
	}

	items, err := r.getCheckItems(ctx, check.ID)
	if err != nil {
		return nil, err
	}
	check.Items = items

	return check, nil
}

func (r *Repository) getCheckItems(ctx context.Context, checkID int64) ([]domain.ChecklistItem, error) {
	query := `
		SELECT item_id, question, category, is_critical, expected_answer, rotation_group, user_answer
		FROM pre_shift_check_items
		WHERE check_id = $1
		ORDER BY position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, checkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ChecklistItem, 0)
	for rows.Next() {
		var item domain.ChecklistItem
		dst := []any{&item.ID, &item.Question, &item.Category, &item.IsCritical, &item.ExpectedAnswer, &item.RotationGroup, &item.UserAnswer}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// GetChecksByVehicle 按创建时间倒序返回车辆的检查记录，不包含题目
func (r *Repository) GetChecksByVehicle(ctx context.Context, vehicleID int64) ([]*domain.PreShiftCheck, error) {
	query := `
		SELECT id, operator_id, status, created_at, last_saved_at, version
		FROM pre_shift_checks
		WHERE vehicle_id = $1
		ORDER BY created_at DESC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checks := make([]*domain.PreShiftCheck, 0)
	for rows.Next() {
		check := &domain.PreShiftCheck{
			VehicleID: vehicleID,
			Items:     make([]domain.ChecklistItem, 0),
		}
		dst := []any{&check.ID, &check.OperatorID, &check.Status, &check.CreatedAt, &check.LastSavedAt, &check.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return checks, nil
}

func (r *Repository) CreateCheck(ctx context.Context, check *domain.PreShiftCheck) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO pre_shift_checks (vehicle_id, operator_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, last_saved_at, version
	`
	args := []any{check.VehicleID, check.OperatorID, check.Status}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&check.ID, &check.CreatedAt, &check.LastSavedAt, &check.Version); err != nil {
		return err
	}

	for i, item := range check.Items {
		query = `
			INSERT INTO pre_shift_check_items (check_id, item_id, position, question, category, is_critical, expected_answer, rotation_group, user_answer)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		args := []any{check.ID, item.ID, i, item.Question, item.Category, item.IsCritical, item.ExpectedAnswer, item.RotationGroup, item.UserAnswer}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateCheck 写入状态与全部作答。版本号不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateCheck(ctx context.Context, check *domain.PreShiftCheck) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE pre_shift_checks
		SET
			status = $1,
			last_saved_at = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`
	var version int32
	args := []any{check.Status, check.LastSavedAt, check.ID, check.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		return err
	}

	for _, item := range check.Items {
		query = `
			UPDATE pre_shift_check_items
			SET user_answer = $1
			WHERE check_id = $2 AND item_id = $3
		`
		if _, err := tx.ExecContext(ctx, query, item.UserAnswer, check.ID, item.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// 提交成功后才更新版本号，失败时调用方可以用原版本号重试
	check.Version = version
	return nil
}

