package checklist

import "github.com/sysu-ecnc-dev/preshift-checklist/backend/internal/domain"

// Validate 根据当前作答情况计算检查单状态，没有副作用，可以对未答完的检查单调用
func Validate(items []domain.ChecklistItem) domain.ValidationResult {
	result := domain.ValidationResult{
		IsComplete:         true,
		FailedItemIDs:      make([]int64, 0),
		CriticalFailureIDs: make([]int64, 0),
	}

	for _, item := range items {
		if item.UserAnswer == domain.AnswerUnset {
			result.IsComplete = false
			continue
		}
		if item.UserAnswer != item.ExpectedAnswer {
			result.FailedItemIDs = append(result.FailedItemIDs, item.ID)
			if item.IsCritical {
				result.CriticalFailureIDs = append(result.CriticalFailureIDs, item.ID)
			}
		}
	}

	if !result.IsComplete {
		return result
	}

	// 只有关键题不合格才会阻止作业，普通题不合格只计入安全提醒
	result.IsBlocked = len(result.CriticalFailureIDs) > 0
	if result.IsBlocked {
		result.Status = domain.CheckStatusCompletedFail
	} else {
		result.Status = domain.CheckStatusCompletedPass
		result.CanStartSession = true
	}

	return result
}
