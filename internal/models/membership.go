package models

import "time"

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipPending   MembershipStatus = "pending"
	MembershipCancelled MembershipStatus = "cancelled"
)

type Membership struct {
	ID       uint `gorm:"primaryKey"`
	MemberID uint `gorm:"index;not null"`
	PlanID   uint `gorm:"not null"`
	Plan     *Plan

	// Kayıttaki ham durum. Görüntülenen durum bundan + end_date'ten türetilir,
	// membership.ComputeStatus'a bak.
	Status MembershipStatus `gorm:"size:20;not null;default:pending"`

	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
