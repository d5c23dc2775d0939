package models

import "time"

type CheckInStatus string

const (
	CheckInActive    CheckInStatus = "active"
	CheckInCompleted CheckInStatus = "completed"
)

// CheckInCredential - Üyenin telefonunda gösterdiği QR kodun arkasındaki kayıt.
// Token opak bir uuid; expires_at geçince geçersiz, cooldown_until ise
// aynı üyenin arka arkaya tekrar giriş yapmasını engelliyor.
type CheckInCredential struct {
	ID            uint      `gorm:"primaryKey"`
	MemberID      uint      `gorm:"index;not null"`
	Token         string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt     time.Time `gorm:"not null"`
	CooldownUntil time.Time `gorm:"not null"`
	CreatedAt     time.Time
}

type CheckInRecord struct {
	ID       uint `gorm:"primaryKey"`
	MemberID uint `gorm:"index;not null"`
	Member   *Member

	// Aynı QR kod ile en fazla bir giriş: unique index çift kayıt yarışını
	// veritabanı seviyesinde kesiyor.
	CredentialID uint `gorm:"uniqueIndex;not null"`

	BranchID     uint          `gorm:"index;not null"`
	CheckInTime  time.Time     `gorm:"not null;index"`
	CheckOutTime *time.Time
	Status       CheckInStatus `gorm:"size:20;not null;default:active"`

	// Opsiyonel meta - girişi etkilemez
	LockerNumber string `gorm:"size:20"`
	SelfieURL    string `gorm:"size:500"`

	AdmittedBy uint `gorm:"not null"` // Onaylayan admin/resepsiyonist
}
