package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/checklist"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

type checkWithValidation struct {
	Check      *domain.PreShiftCheck   `json:"check"`
	Validation domain.ValidationResult `json:"validation"`
}

func newCheckWithValidation(check *domain.PreShiftCheck) checkWithValidation {
	return checkWithValidation{
		Check:      check,
		Validation: checklist.Validate(check.Items),
	}
}

// StartOrResumeCheck 车辆已有进行中的检查单时原样返回，不会重新抽题
func (h *Handler) StartOrResumeCheck(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	check, err := h.session.StartOrResume(r.Context(), v.ID, myInfo.ID)
	if err != nil {
		h.checklistError(w, r, err)
		return
	}

	if check.OperatorID != myInfo.ID && myInfo.Role != domain.RoleAdmin {
		h.warningResponse(w, r, "检查单已就绪", "车辆已有其他操作员进行中的检查单，只有该操作员或管理员可以作答", newCheckWithValidation(check))
		return
	}

	h.successResponse(w, r, "检查单已就绪", newCheckWithValidation(check))
}

func (h *Handler) GetVehicleChecks(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	checks, err := h.repository.GetChecksByVehicle(r.Context(), v.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取检查记录成功", checks)
}

func (h *Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	check := r.Context().Value(CheckCtx).(*domain.PreShiftCheck)
	h.successResponse(w, r, "获取检查单成功", check)
}

func (h *Handler) GetCheckValidation(w http.ResponseWriter, r *http.Request) {
	check := r.Context().Value(CheckCtx).(*domain.PreShiftCheck)
	h.successResponse(w, r, "获取检查结果成功", checklist.Validate(check.Items))
}

func (h *Handler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	check := r.Context().Value(CheckCtx).(*domain.PreShiftCheck)

	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "题目ID无效")
		return
	}

	var req struct {
		Answer string `json:"answer" validate:"required,oneof=PASS FAIL"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	updated, done, err := h.session.RecordAnswer(r.Context(), check.ID, itemID, domain.Answer(req.Answer))
	if err != nil {
		h.checklistError(w, r, err)
		return
	}

	h.answerResponse(w, r, updated, done)
}

func (h *Handler) ClearAnswer(w http.ResponseWriter, r *http.Request) {
	check := r.Context().Value(CheckCtx).(*domain.PreShiftCheck)

	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "题目ID无效")
		return
	}

	updated, done, err := h.session.ClearAnswer(r.Context(), check.ID, itemID)
	if err != nil {
		h.checklistError(w, r, err)
		return
	}

	h.answerResponse(w, r, updated, done)
}

// answerResponse 短暂等待落盘结果。超时或落盘失败都不算错误，作答已经记录在服务端
func (h *Handler) answerResponse(w http.ResponseWriter, r *http.Request, check *domain.PreShiftCheck, done <-chan error) {
	data := newCheckWithValidation(check)

	timer := time.NewTimer(time.Duration(h.config.Checklist.SyncGracePeriod) * time.Millisecond)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			h.warningResponse(w, r, "作答已记录", domain.ErrSyncPending.Error(), data)
			return
		}
		h.successResponse(w, r, "作答已保存", data)
	case <-timer.C:
		h.warningResponse(w, r, "作答已记录", domain.ErrSyncPending.Error(), data)
	}
}

func (h *Handler) SubmitCheck(w http.ResponseWriter, r *http.Request) {
	check := r.Context().Value(CheckCtx).(*domain.PreShiftCheck)

	outcome, err := h.gate.Submit(r.Context(), check.ID)
	if err != nil {
		h.checklistError(w, r, err)
		return
	}

	if outcome.Result.IsBlocked {
		h.notifyVehicleBlocked(r, outcome.Check, outcome.Result)
		h.successResponse(w, r, "检查未通过，车辆禁止作业", outcome)
		return
	}

	if outcome.SessionErr != nil {
		reason := sessionStartFailureReason(outcome.SessionErr)
		h.notifySessionStartFailed(r, outcome.Check, reason)
		h.warningResponse(w, r, "检查已通过", "无法开始作业："+reason, outcome)
		return
	}

	h.successResponse(w, r, "检查通过，作业已开始", outcome)
}

// RetrySessionStart 检查通过但作业会话启动失败时，由操作员手动重试
func (h *Handler) RetrySessionStart(w http.ResponseWriter, r *http.Request) {
	check := r.Context().Value(CheckCtx).(*domain.PreShiftCheck)

	sess, err := h.gate.RetrySessionStart(r.Context(), check.ID)
	if err != nil {
		h.checklistError(w, r, err)
		return
	}

	h.successResponse(w, r, "作业已开始", sess)
}

func sessionStartFailureReason(err error) string {
	if msg, ok := constraintMessage(err); ok {
		return msg
	}
	return "服务器内部错误，请稍后重试"
}
