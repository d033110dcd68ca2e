package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"slices"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/utils"
)

func (h *Handler) defaultRotationRules(vehicleID int64) *domain.RotationRules {
	return &domain.RotationRules{
		VehicleID:               vehicleID,
		CriticalQuestionMinimum: h.config.Checklist.CriticalMin,
		RequiredCategories:      slices.Clone(h.config.Checklist.RequiredCategories),
		MaxQuestionsPerCheck:    h.config.Checklist.MaxQuestions,
		StandardQuestionMaximum: h.config.Checklist.StandardMax,
	}
}

func (h *Handler) GetRotationRules(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	rules, err := h.repository.GetRotationRules(r.Context(), v.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "该车辆未配置轮换规则，使用默认规则", h.defaultRotationRules(v.ID))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取轮换规则成功", rules)
}

func (h *Handler) SaveRotationRules(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	var req struct {
		CriticalQuestionMinimum int      `json:"criticalQuestionMinimum" validate:"gte=0"`
		RequiredCategories      []string `json:"requiredCategories" validate:"dive,required"`
		MaxQuestionsPerCheck    int      `json:"maxQuestionsPerCheck" validate:"gt=0"`
		StandardQuestionMaximum int      `json:"standardQuestionMaximum" validate:"gte=0"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	rules := &domain.RotationRules{
		VehicleID:               v.ID,
		CriticalQuestionMinimum: req.CriticalQuestionMinimum,
		RequiredCategories:      req.RequiredCategories,
		MaxQuestionsPerCheck:    req.MaxQuestionsPerCheck,
		StandardQuestionMaximum: req.StandardQuestionMaximum,
	}
	if rules.RequiredCategories == nil {
		rules.RequiredCategories = make([]string, 0)
	}

	// 配额超出上限时仍然保存，抽题会超过上限，由管理员自行决定是否调整
	warning := ""
	if err := utils.ValidateRotationRules(rules); err != nil {
		if !errors.Is(err, utils.ErrRulesExceedMax) {
			h.badRequest(w, r, err)
			return
		}
		warning = err.Error()
	}

	if err := h.repository.SaveRotationRules(r.Context(), rules); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.cache.Invalidate(r.Context(), v.ID)

	if warning != "" {
		h.warningResponse(w, r, "轮换规则已保存", warning, rules)
		return
	}
	h.successResponse(w, r, "轮换规则已保存", rules)
}

func (h *Handler) DeleteRotationRules(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	if err := h.repository.DeleteRotationRules(r.Context(), v.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.cache.Invalidate(r.Context(), v.ID)

	h.successResponse(w, r, "已恢复为默认轮换规则", h.defaultRotationRules(v.ID))
}
