package models

import "time"

type Feedback struct {
	ID       uint `gorm:"primaryKey"`
	MemberID uint `gorm:"index;not null"`
	Member   *Member
	BranchID uint `gorm:"index;not null"`

	Rating   int    `gorm:"not null"` // 1-5
	Message  string `gorm:"size:1000"`
	Resolved bool   `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
