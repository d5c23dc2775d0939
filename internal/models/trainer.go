package models

import "time"

type Trainer struct {
	ID        uint   `gorm:"primaryKey"`
	BranchID  uint   `gorm:"index;not null"`
	Name      string `gorm:"size:100;not null"`
	Specialty string `gorm:"size:100"`
	Phone     string `gorm:"size:50"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
