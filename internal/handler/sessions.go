package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

func (h *Handler) GetActiveSession(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	sess, err := h.repository.GetActiveOperatingSession(r.Context(), v.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "车辆当前没有作业", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取作业会话成功", sess)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	sess := r.Context().Value(OperatingSessionCtx).(*domain.OperatingSession)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	// 只有本人或管理员可以结束作业
	if sess.OperatorID != myInfo.ID && myInfo.Role != domain.RoleAdmin {
		h.errorResponse(w, r, "权限不足")
		return
	}

	if err := h.repository.EndOperatingSession(r.Context(), sess); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "作业已经结束")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "作业已结束", sess)
}
