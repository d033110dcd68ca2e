package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/utils"
)

type questionRequest struct {
	Question       string `json:"question" validate:"required"`
	Category       string `json:"category" validate:"required"`
	IsCritical     bool   `json:"isCritical"`
	ExpectedAnswer string `json:"expectedAnswer" validate:"required,oneof=PASS FAIL"`
	RotationGroup  int32  `json:"rotationGroup" validate:"gte=0"`
}

func (q questionRequest) template(vehicleID int64) domain.ChecklistItemTemplate {
	return domain.ChecklistItemTemplate{
		VehicleID:      vehicleID,
		Question:       q.Question,
		Category:       q.Category,
		IsCritical:     q.IsCritical,
		ExpectedAnswer: domain.Answer(q.ExpectedAnswer),
		RotationGroup:  q.RotationGroup,
	}
}

// 题库变化不会影响进行中的检查单，题目在创建检查单时已经复制
func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	bank, err := h.repository.ListQuestionTemplates(r.Context(), v.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取题库成功", bank)
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	var req questionRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	t := req.template(v.ID)
	if err := utils.ValidateQuestionTemplate(&t); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateQuestionTemplate(r.Context(), &t); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "checklist_item_templates_vehicle_question_key":
			h.badRequest(w, r, errors.New("题库中已有相同的题目"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.cache.Invalidate(r.Context(), v.ID)

	h.successResponse(w, r, "题目创建成功", t)
}

// ReplaceQuestions 用请求中的题目整体替换车辆题库
func (h *Handler) ReplaceQuestions(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	var req struct {
		Questions []questionRequest `json:"questions" validate:"required,dive"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	bank := make([]domain.ChecklistItemTemplate, 0, len(req.Questions))
	for _, q := range req.Questions {
		bank = append(bank, q.template(v.ID))
	}
	if err := utils.ValidateQuestionBank(bank); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.ReplaceQuestionBank(r.Context(), v.ID, bank); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.cache.Invalidate(r.Context(), v.ID)

	h.successResponse(w, r, "题库更新成功", bank)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	questionID, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "题目ID无效")
		return
	}

	if err := h.repository.DeleteQuestionTemplate(r.Context(), v.ID, questionID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "题目不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.cache.Invalidate(r.Context(), v.ID)

	h.successResponse(w, r, "删除题目成功", nil)
}
