package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

// 这些错误的信息可以直接展示给用户
var checklistErrors = []error{
	domain.ErrCheckNotFound,
	domain.ErrItemNotFound,
	domain.ErrReadOnlyViolation,
	domain.ErrAlreadyFinalized,
	domain.ErrIncompleteChecklist,
	domain.ErrInvalidAnswer,
	domain.ErrNoChecklistAvailable,
	domain.ErrSessionNotAllowed,
}

var constraintMessages = map[string]string{
	"operating_sessions_one_active_key":    "车辆正在作业中，请先结束当前作业",
	"operating_sessions_check_id_key":      "该检查单已经开始过作业",
	"pre_shift_checks_one_in_progress_key": "车辆已有进行中的检查单，请重试",
}

func (h *Handler) checklistError(w http.ResponseWriter, r *http.Request, err error) {
	for _, target := range checklistErrors {
		if errors.Is(err, target) {
			h.errorResponse(w, r, target.Error())
			return
		}
	}

	if msg, ok := constraintMessage(err); ok {
		h.errorResponse(w, r, msg)
		return
	}

	if errors.Is(err, sql.ErrNoRows) {
		// 乐观锁冲突
		h.errorResponse(w, r, "检查单已被修改，请刷新后重试")
		return
	}

	h.internalServerError(w, r, err)
}

func constraintMessage(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	msg, ok := constraintMessages[pgErr.ConstraintName]
	return msg, ok
}
