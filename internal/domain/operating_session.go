package domain

import "time"

// OperatingSession 表示操作员正在使用某辆车，与放行它的检查单相互独立
type OperatingSession struct {
	ID         int64      `json:"id"`
	VehicleID  int64      `json:"vehicleID"`
	OperatorID int64      `json:"operatorID"`
	CheckID    int64      `json:"checkID"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt"` // 为 nil 表示会话仍在进行
}
