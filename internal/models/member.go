package models

import "time"

type Member struct {
	ID        uint  `gorm:"primaryKey"`
	BranchID  uint  `gorm:"index;not null"` // Üyenin kayıtlı olduğu (ev) şubesi
	Branch    *Branch
	FirstName string `gorm:"size:100;not null"`
	LastName  string `gorm:"size:100;not null"`
	Email     string `gorm:"size:100;uniqueIndex;not null"`
	Username  string `gorm:"size:50;uniqueIndex;not null"`
	Phone     string `gorm:"size:50"`
	Gender    string `gorm:"size:20"` // Opsiyonel
	PhotoURL  string `gorm:"size:500"`
	Notes     string `gorm:"size:1000"`

	// Üye girişi için (admin User tablosundan ayrı)
	PasswordHash string `gorm:"size:255;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Memberships    []Membership
	CheckInRecords []CheckInRecord
}
