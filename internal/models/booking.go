package models

import "time"

type BookingKind string

const (
	BookingClass    BookingKind = "class"    // Grup dersi
	BookingPersonal BookingKind = "personal" // Kişisel antrenör seansı
)

type BookingStatus string

const (
	BookingBooked    BookingStatus = "booked"
	BookingCancelled BookingStatus = "cancelled"
	BookingAttended  BookingStatus = "attended"
)

type Booking struct {
	ID       uint        `gorm:"primaryKey"`
	MemberID uint        `gorm:"index;not null"`
	Kind     BookingKind `gorm:"size:20;not null"`

	// kind: class -> class_id dolu, personal -> trainer_id dolu
	ClassID   *uint
	Class     *Class
	TrainerID *uint
	Trainer   *Trainer

	ScheduledAt time.Time     `gorm:"not null;index"`
	Status      BookingStatus `gorm:"size:20;not null;default:booked"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
