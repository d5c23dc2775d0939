package models

import "time"

type Class struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  uint `gorm:"index;not null"`
	TrainerID uint `gorm:"not null"`
	Trainer   *Trainer

	Name            string    `gorm:"size:100;not null"`
	Capacity        int       `gorm:"not null"`
	StartsAt        time.Time `gorm:"not null;index"`
	DurationMinutes int       `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
