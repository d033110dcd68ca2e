package domain

import (
	"slices"
	"time"
)

type Answer string

const (
	AnswerUnset Answer = ""
	AnswerPass  Answer = "PASS"
	AnswerFail  Answer = "FAIL"
)

func (a Answer) IsValid() bool {
	return a == AnswerPass || a == AnswerFail
}

type CheckStatus string

const (
	CheckStatusNotStarted    CheckStatus = "NOT_STARTED"
	CheckStatusInProgress    CheckStatus = "IN_PROGRESS"
	CheckStatusCompletedPass CheckStatus = "COMPLETED_PASS"
	CheckStatusCompletedFail CheckStatus = "COMPLETED_FAIL"
)

// IsFinalized 表示检查单已经提交，此后只读
func (s CheckStatus) IsFinalized() bool {
	return s == CheckStatusCompletedPass || s == CheckStatusCompletedFail
}

// ChecklistItemTemplate 题库中的一道检查题，创建后不会被检查单修改
type ChecklistItemTemplate struct {
	ID             int64     `json:"id"`
	VehicleID      int64     `json:"vehicleID"`
	Question       string    `json:"question"`
	Category       string    `json:"category"`
	IsCritical     bool      `json:"isCritical"`
	ExpectedAnswer Answer    `json:"expectedAnswer"`
	RotationGroup  int32     `json:"rotationGroup"`
	CreatedAt      time.Time `json:"createdAt"`
	Version        int32     `json:"-"`
}

// ChecklistItem 是模板在某次检查中的副本，ID 沿用模板 ID
type ChecklistItem struct {
	ID             int64  `json:"id"`
	Question       string `json:"question"`
	Category       string `json:"category"`
	IsCritical     bool   `json:"isCritical"`
	ExpectedAnswer Answer `json:"expectedAnswer"`
	RotationGroup  int32  `json:"rotationGroup"`
	UserAnswer     Answer `json:"userAnswer"` // 为空表示尚未作答
}

func NewChecklistItem(t ChecklistItemTemplate) ChecklistItem {
	return ChecklistItem{
		ID:             t.ID,
		Question:       t.Question,
		Category:       t.Category,
		IsCritical:     t.IsCritical,
		ExpectedAnswer: t.ExpectedAnswer,
		RotationGroup:  t.RotationGroup,
		UserAnswer:     AnswerUnset,
	}
}

type RotationRules struct {
	VehicleID               int64    `json:"vehicleID"`
	CriticalQuestionMinimum int      `json:"criticalQuestionMinimum"`
	RequiredCategories      []string `json:"requiredCategories"`
	MaxQuestionsPerCheck    int      `json:"maxQuestionsPerCheck"`
	StandardQuestionMaximum int      `json:"standardQuestionMaximum"`
	Version                 int32    `json:"-"`
}

type PreShiftCheck struct {
	ID          int64           `json:"id"`
	VehicleID   int64           `json:"vehicleID"`
	OperatorID  int64           `json:"operatorID"`
	Items       []ChecklistItem `json:"items"`
	Status      CheckStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastSavedAt time.Time       `json:"lastSavedAt"`
	Version     int32           `json:"-"`
}

// Clone 返回深拷贝，调用方对副本的修改不会影响原检查单
func (c *PreShiftCheck) Clone() *PreShiftCheck {
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp
}

// ItemIndex 返回题目在检查单中的下标，不存在时返回 -1
func (c *PreShiftCheck) ItemIndex(itemID int64) int {
	return slices.IndexFunc(c.Items, func(item ChecklistItem) bool {
		return item.ID == itemID
	})
}

// ValidationResult 由检查单当前的作答情况推导而来，不落库
type ValidationResult struct {
	IsComplete      bool        `json:"isComplete"`
	IsBlocked       bool        `json:"isBlocked"`
	Status          CheckStatus `json:"status,omitempty"` // 仅在 IsComplete 为 true 时有意义
	CanStartSession bool        `json:"canStartSession"`

	FailedItemIDs      []int64 `json:"failedItemIDs"`
	CriticalFailureIDs []int64 `json:"criticalFailureIDs"`
}
