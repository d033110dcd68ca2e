package repository

import (
	"context"
	"database/sql"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// ListQuestionTemplates 返回车辆题库中的全部题目，按 id 排序
func (r *Repository) ListQuestionTemplates(ctx context.Context, vehicleID int64) ([]domain.ChecklistItemTemplate, error) {
	query := `
		SELECT id, question, category, is_critical, expected_answer, rotation_group, created_at, version
		FROM checklist_item_templates
		WHERE vehicle_id = $1
		ORDER BY id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]domain.ChecklistItemTemplate, 0)
	for rows.Next() {
		t := domain.ChecklistItemTemplate{
			VehicleID: vehicleID,
		}
		dst := []any{&t.ID, &t.Question, &t.Category, &t.IsCritical, &t.ExpectedAnswer, &t.RotationGroup, &t.CreatedAt, &t.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

func (r *Repository) GetQuestionTemplateByID(ctx context.Context, id int64) (*domain.ChecklistItemTemplate, error) {
	query := `
		SELECT vehicle_id, question, category, is_critical, expected_answer, rotation_group, created_at, version
		FROM checklist_item_templates WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	t := &domain.ChecklistItemTemplate{
		ID: id,
	}
	dst := []any{&t.VehicleID, &t.Question, &t.Category, &t.IsCritical, &t.ExpectedAnswer, &t.RotationGroup, &t.CreatedAt, &t.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return t, nil
}

func (r *Repository) CreateQuestionTemplate(ctx context.Context, t *domain.ChecklistItemTemplate) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return insertQuestionTemplate(ctx, r.dbpool, t)
}

// ReplaceQuestionBank 在一个事务中用 templates 替换车辆的整个题库
func (r *Repository) ReplaceQuestionBank(ctx context.Context, vehicleID int64, templates []domain.ChecklistItemTemplate) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM checklist_item_templates WHERE vehicle_id = $1`, vehicleID); err != nil {
		return err
	}

	for i := range templates {
		templates[i].VehicleID = vehicleID
		if err := insertQuestionTemplate(ctx, tx, &templates[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) DeleteQuestionTemplate(ctx context.Context, vehicleID int64, id int64) error {
	query := `
		DELETE FROM checklist_item_templates WHERE id = $1 AND vehicle_id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, id, vehicleID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertQuestionTemplate(ctx context.Context, q queryRower, t *domain.ChecklistItemTemplate) error {
	query := `
		INSERT INTO checklist_item_templates (vehicle_id, question, category, is_critical, expected_answer, rotation_group)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	args := []any{t.VehicleID, t.Question, t.Category, t.IsCritical, t.ExpectedAnswer, t.RotationGroup}
	return q.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.CreatedAt, &t.Version)
}
