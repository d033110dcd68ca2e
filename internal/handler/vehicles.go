package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

func (h *Handler) GetAllVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.repository.GetAllVehicles(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取车辆列表成功", vehicles)
}

func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required,max=64"`
		PlateNumber string `json:"plateNumber" validate:"required,max=16"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	v := &domain.Vehicle{
		Name:        req.Name,
		PlateNumber: req.PlateNumber,
	}
	if err := h.repository.CreateVehicle(r.Context(), v); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "vehicles_plate_number_key":
			h.badRequest(w, r, errors.New("车牌号已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "车辆创建成功", v)
}

func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)
	h.successResponse(w, r, "获取车辆信息成功", v)
}

func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name" validate:"omitempty,max=64"`
		PlateNumber *string `json:"plateNumber" validate:"omitempty,max=16"`
		IsActive    *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	if req.Name != nil {
		v.Name = *req.Name
	}
	if req.PlateNumber != nil {
		v.PlateNumber = *req.PlateNumber
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateVehicle(r.Context(), v); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "vehicles_plate_number_key":
			h.badRequest(w, r, errors.New("车牌号已存在"))
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新车辆信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新车辆信息成功", v)
}

func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VehicleCtx).(*domain.Vehicle)

	if err := h.repository.DeleteVehicle(r.Context(), v.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			h.errorResponse(w, r, "该车辆已有作业记录，请改为停用")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.cache.Invalidate(r.Context(), v.ID)

	h.successResponse(w, r, "删除车辆成功", nil)
}
