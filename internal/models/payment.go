package models

import "time"

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Payment - Üyelik ödeme kaydı. Sadece kayıt tutuyoruz, tahsilat entegrasyonu yok.
type Payment struct {
	ID           uint          `gorm:"primaryKey"`
	MemberID     uint          `gorm:"index;not null"`
	MembershipID uint          `gorm:"index;not null"`
	BranchID     uint          `gorm:"index;not null"`
	Amount       float64       `gorm:"not null"`
	Method       PaymentMethod `gorm:"size:20;not null"`
	PaidAt       time.Time     `gorm:"not null;index"`
	Note         string        `gorm:"size:255"`
	CreatedAt    time.Time
}
