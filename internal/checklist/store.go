package checklist

import (
	"context"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// 查询不到数据时各接口统一返回 sql.ErrNoRows

type QuestionBank interface {
	ListQuestionTemplates(ctx context.Context, vehicleID int64) ([]domain.ChecklistItemTemplate, error)
}

type RulesProvider interface {
	GetRotationRules(ctx context.Context, vehicleID int64) (*domain.RotationRules, error)
}

type CheckStore interface {
	FindInProgressCheck(ctx context.Context, vehicleID int64) (*domain.PreShiftCheck, error)
	GetCheckByID(ctx context.Context, id int64) (*domain.PreShiftCheck, error)
	// CreateCheck 会回填 ID、CreatedAt 和 Version
	CreateCheck(ctx context.Context, check *domain.PreShiftCheck) error
	// UpdateCheck 按 Version 做乐观锁，成功后回填新的 Version
	UpdateCheck(ctx context.Context, check *domain.PreShiftCheck) error
}

type SessionStore interface {
	StartOperatingSession(ctx context.Context, vehicleID int64, operatorID int64, checkID int64) (*domain.OperatingSession, error)
}
