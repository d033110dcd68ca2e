package domain

import "errors"

var (
	ErrCheckNotFound        = errors.New("检查单不存在")
	ErrItemNotFound         = errors.New("检查单中不存在该题目")
	ErrReadOnlyViolation    = errors.New("检查单已提交，不允许修改")
	ErrAlreadyFinalized     = errors.New("检查单已提交，请勿重复提交")
	ErrIncompleteChecklist  = errors.New("还有题目未作答")
	ErrInvalidAnswer        = errors.New("无效的答案")
	ErrNoChecklistAvailable = errors.New("该车辆没有可用的检查题目")
	ErrSessionNotAllowed    = errors.New("检查单未通过，不能开始作业")
	ErrSyncPending          = errors.New("已在本地保存，等待同步")
)
