package notify

import (
	"slices"

	"github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"
)

func NewUserMessage(user *domain.User, password string) *domain.MailMessage {
	return &domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: user.FullName,
			Username: user.Username,
			Password: password,
		},
	}
}

// VehicleBlockedMessages 为每位管理员生成一封车辆禁止作业的通知
func VehicleBlockedMessages(admins []*domain.User, vehicle *domain.Vehicle, operator *domain.User, check *domain.PreShiftCheck, result domain.ValidationResult) []*domain.MailMessage {
	failed := make([]string, 0, len(result.FailedItemIDs))
	for _, it := range check.Items {
		if slices.Contains(result.FailedItemIDs, it.ID) {
			failed = append(failed, it.Question)
		}
	}

	messages := make([]*domain.MailMessage, 0, len(admins))
	for _, admin := range admins {
		messages = append(messages, &domain.MailMessage{
			Type: domain.MailTypeVehicleBlocked,
			To:   admin.Email,
			Data: domain.VehicleBlockedMailData{
				FullName:         admin.FullName,
				VehicleName:      vehicle.Name,
				PlateNumber:      vehicle.PlateNumber,
				OperatorName:     operator.FullName,
				CheckID:          check.ID,
				FailedQuestions:  failed,
				CriticalFailures: len(result.CriticalFailureIDs),
			},
		})
	}

	return messages
}

func SessionStartFailedMessage(operator *domain.User, vehicle *domain.Vehicle, checkID int64, reason string) *domain.MailMessage {
	return &domain.MailMessage{
		Type: domain.MailTypeSessionStartFailed,
		To:   operator.Email,
		Data: domain.SessionStartFailedMailData{
			FullName:    operator.FullName,
			VehicleName: vehicle.Name,
			CheckID:     checkID,
			Reason:      reason,
		},
	}
}
