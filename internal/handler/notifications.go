package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/notify"
)

// 通知失败只记录日志，不影响检查结论

func (h *Handler) notifyVehicleBlocked(r *http.Request, check *domain.PreShiftCheck, result domain.ValidationResult) {
	ctx := r.Context()

	v, err := h.repository.GetVehicleByID(ctx, check.VehicleID)
	if err != nil {
		h.logger.Error("无法发送禁止作业通知", "checkID", check.ID, "error", err)
		return
	}
	operator, err := h.repository.GetUserByID(ctx, check.OperatorID)
	if err != nil {
		h.logger.Error("无法发送禁止作业通知", "checkID", check.ID, "error", err)
		return
	}
	admins, err := h.repository.GetActiveAdmins(ctx)
	if err != nil {
		h.logger.Error("无法发送禁止作业通知", "checkID", check.ID, "error", err)
		return
	}

	for _, msg := range notify.VehicleBlockedMessages(admins, v, operator, check, result) {
		if err := h.mail.Publish(ctx, msg); err != nil {
			h.logger.Error("禁止作业通知发送失败", "checkID", check.ID, "to", msg.To, "error", err)
		}
	}
}

func (h *Handler) notifySessionStartFailed(r *http.Request, check *domain.PreShiftCheck, reason string) {
	ctx := r.Context()

	v, err := h.repository.GetVehicleByID(ctx, check.VehicleID)
	if err != nil {
		h.logger.Error("无法发送作业启动失败通知", "checkID", check.ID, "error", err)
		return
	}
	operator, err := h.repository.GetUserByID(ctx, check.OperatorID)
	if err != nil {
		h.logger.Error("无法发送作业启动失败通知", "checkID", check.ID, "error", err)
		return
	}

	if err := h.mail.Publish(ctx, notify.SessionStartFailedMessage(operator, v, check.ID, reason)); err != nil {
		h.logger.Error("作业启动失败通知发送失败", "checkID", check.ID, "error", err)
	}
}
