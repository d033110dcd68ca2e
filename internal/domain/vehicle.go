package domain

import "time"

type Vehicle struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PlateNumber string    `json:"plateNumber"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}
