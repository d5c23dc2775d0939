package models

import "time"

type Plan struct {
	ID           uint    `gorm:"primaryKey"`
	Name         string  `gorm:"size:100;not null;unique"`
	Price        float64 `gorm:"not null"`
	DurationDays int     `gorm:"not null"` // Üyelik süresi (gün)
	Features     string  `gorm:"size:1000"`
	IsActive     bool    `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
