package repository

import (
	"context"
	"database/sql"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// GetRotationRules 车辆没有配置规则时返回 sql.ErrNoRows
func (r *Repository) GetRotationRules(ctx context.Context, vehicleID int64) (*domain.RotationRules, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			rr.critical_question_minimum,
			rr.max_questions_per_check,
			rr.standard_question_maximum,
			rr.version,
			rrc.category
		FROM rotation_rules rr
		LEFT JOIN rotation_rule_required_categories rrc ON rr.vehicle_id = rrc.vehicle_id
		WHERE rr.vehicle_id = $1
		ORDER BY rrc.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules *domain.RotationRules
	for rows.Next() {
		var row struct {
			CriticalQuestionMinimum int
			MaxQuestionsPerCheck    int
			StandardQuestionMaximum int
			Version                 int32
			Category                sql.NullString
		}

		dst := []any{
			&row.CriticalQuestionMinimum,
			&row.MaxQuestionsPerCheck,
			&row.StandardQuestionMaximum,
			&row.Version,
			&row.Category,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if rules == nil {
			// 第一行，初始化规则本身
			rules = &domain.RotationRules{
				VehicleID:               vehicleID,
				CriticalQuestionMinimum: row.CriticalQuestionMinimum,
				MaxQuestionsPerCheck:    row.MaxQuestionsPerCheck,
				StandardQuestionMaximum: row.StandardQuestionMaximum,
				RequiredCategories:      make([]string, 0),
				Version:                 row.Version,
			}
		}

		// 为空说明没有必选类别
		if !row.Category.Valid {
			continue
		}

		rules.RequiredCategories = append(rules.RequiredCategories, row.Category.String)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if rules == nil {
		return nil, sql.ErrNoRows
	}

	return rules, nil
}

// SaveRotationRules 创建或整体替换车辆的轮换规则
func (r *Repository) SaveRotationRules(ctx context.Context, rules *domain.RotationRules) error {
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
		INSERT INTO rotation_rules (vehicle_id, critical_question_minimum, max_questions_per_check, standard_question_maximum)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vehicle_id) DO UPDATE
		SET
			critical_question_minimum = EXCLUDED.critical_question_minimum,
			max_questions_per_check = EXCLUDED.max_questions_per_check,
			standard_question_maximum = EXCLUDED.standard_question_maximum,
			version = rotation_rules.version + 1
		RETURNING version
	`
	args := []any{rules.VehicleID, rules.CriticalQuestionMinimum, rules.MaxQuestionsPerCheck, rules.StandardQuestionMaximum}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&rules.Version); err != nil {
		return err
	}

	query = `DELETE FROM rotation_rule_required_categories WHERE vehicle_id = $1`
	if _, err := tx.ExecContext(ctx, query, rules.VehicleID); err != nil {
		return err
	}

	for i, category := range rules.RequiredCategories {
		query = `
			INSERT INTO rotation_rule_required_categories (vehicle_id, category, position)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, rules.VehicleID, category, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) DeleteRotationRules(ctx context.Context, vehicleID int64) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, `DELETE FROM rotation_rules WHERE vehicle_id = $1`, vehicleID)
	return err
}
