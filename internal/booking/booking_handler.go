package booking

import (
	"fmt"
	"time"

	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookClassRequest struct {
	ClassID uint `json:"class_id"`
}

type BookPersonalRequest struct {
	TrainerID   uint   `json:"trainer_id"`
	ScheduledAt string `json:"scheduled_at"` // RFC3339
}

type BookingResponse struct {
	ID          uint   `json:"id"`
	MemberID    uint   `json:"member_id"`
	Kind        string `json:"kind"`
	ClassID     *uint  `json:"class_id,omitempty"`
	ClassName   string `json:"class_name,omitempty"`
	TrainerID   *uint  `json:"trainer_id,omitempty"`
	TrainerName string `json:"trainer_name,omitempty"`
	ScheduledAt string `json:"scheduled_at"`
	Status      string `json:"status"`
}

func bookingToResponse(b models.Booking) BookingResponse {
	r := BookingResponse{
		ID:          b.ID,
		MemberID:    b.MemberID,
		Kind:        string(b.Kind),
		ClassID:     b.ClassID,
		TrainerID:   b.TrainerID,
		ScheduledAt: b.ScheduledAt.Format(time.RFC3339),
		Status:      string(b.Status),
	}
	if b.Class != nil {
		r.ClassName = b.Class.Name
	}
	if b.Trainer != nil {
		r.TrainerName = b.Trainer.Name
	}
	return r
}

// -------------------------------------------------
// POST /api/bookings/class (üye oturumu)
// Kapasite kontrolü transaction içinde: dolu derse yarışla girilmesin.
// -------------------------------------------------
func BookClassHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID, err := auth.MemberID(c)
		if err != nil {
			return err
		}

		var body BookClassRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if body.ClassID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "class_id zorunlu")
		}

		var booking models.Booking

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			var cl models.Class
			// Kapasite sayımı sırasında ders satırını kilitle
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cl, "id = ?", body.ClassID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Ders bulunamadı")
			}

			if cl.StartsAt.Before(time.Now()) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçmiş derse rezervasyon yapılamaz")
			}

			var existing int64
			tx.Model(&models.Booking{}).
				Where("class_id = ? AND member_id = ? AND status = ?", cl.ID, memberID, models.BookingBooked).
				Count(&existing)
			if existing > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Bu derse zaten rezervasyonunuz var")
			}

			var booked int64
			tx.Model(&models.Booking{}).
				Where("class_id = ? AND status = ?", cl.ID, models.BookingBooked).
				Count(&booked)
			if booked >= int64(cl.Capacity) {
				return fiber.NewError(fiber.StatusBadRequest, "Ders dolu")
			}

			classID := cl.ID
			booking = models.Booking{
				MemberID:    memberID,
				Kind:        models.BookingClass,
				ClassID:     &classID,
				ScheduledAt: cl.StartsAt,
				Status:      models.BookingBooked,
			}
			return tx.Create(&booking).Error
		})
		if txErr != nil {
			if fe, ok := txErr.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Rezervasyon oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(bookingToResponse(booking))
	}
}

// -------------------------------------------------
// POST /api/bookings/personal (üye oturumu)
// -------------------------------------------------
func BookPersonalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID, err := auth.MemberID(c)
		if err != nil {
			return err
		}

		var body BookPersonalRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if body.TrainerID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "trainer_id zorunlu")
		}

		scheduledAt, err := time.Parse(time.RFC3339, body.ScheduledAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "scheduled_at formatı geçersiz, RFC3339 olmalı")
		}
		if scheduledAt.Before(time.Now()) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçmiş bir saate rezervasyon yapılamaz")
		}

		var trainer models.Trainer
		if err := database.DB.First(&trainer, "id = ?", body.TrainerID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Antrenör bulunamadı")
		}
		if !trainer.IsActive {
			return fiber.NewError(fiber.StatusBadRequest, "Antrenör pasif durumda")
		}

		// Antrenörün o saatte başka seansı var mı? (1 saatlik slot)
		slotEnd := scheduledAt.Add(time.Hour)
		var clash int64
		database.DB.Model(&models.Booking{}).
			Where("trainer_id = ? AND status = ? AND scheduled_at >= ? AND scheduled_at < ?",
				trainer.ID, models.BookingBooked, scheduledAt.Add(-time.Hour+time.Minute), slotEnd).
			Count(&clash)
		if clash > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Antrenörün bu saatte başka seansı var")
		}

		trainerID := trainer.ID
		booking := models.Booking{
			MemberID:    memberID,
			Kind:        models.BookingPersonal,
			TrainerID:   &trainerID,
			ScheduledAt: scheduledAt,
			Status:      models.BookingBooked,
		}
		if err := database.DB.Create(&booking).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rezervasyon oluşturulamadı")
		}

		booking.Trainer = &trainer
		return c.Status(fiber.StatusCreated).JSON(bookingToResponse(booking))
	}
}

// -------------------------------------------------
// GET /api/bookings/my (üye oturumu)
// -------------------------------------------------
func MyBookingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID, err := auth.MemberID(c)
		if err != nil {
			return err
		}

		var bookings []models.Booking
		if err := database.DB.Preload("Class").Preload("Trainer").
			Where("member_id = ?", memberID).
			Order("scheduled_at desc").
			Find(&bookings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rezervasyonlar listelenemedi")
		}

		res := make([]BookingResponse, 0, len(bookings))
		for _, b := range bookings {
			res = append(res, bookingToResponse(b))
		}
		return c.JSON(res)
	}
}

// -------------------------------------------------
// POST /api/bookings/:id/cancel
// Üye kendi rezervasyonunu, admin herkesinkini iptal edebilir.
// -------------------------------------------------
func CancelBookingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var b models.Booking
		if err := database.DB.First(&b, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Rezervasyon bulunamadı")
		}

		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}
		if role == models.RoleMember {
			memberID, err := auth.MemberID(c)
			if err != nil {
				return err
			}
			if b.MemberID != memberID {
				return fiber.NewError(fiber.StatusForbidden, "Sadece kendi rezervasyonunuzu iptal edebilirsiniz")
			}
		}

		if b.Status != models.BookingBooked {
			return fiber.NewError(fiber.StatusBadRequest, "Rezervasyon iptal edilebilir durumda değil")
		}

		b.Status = models.BookingCancelled
		if err := database.DB.Save(&b).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rezervasyon iptal edilemedi")
		}

		return c.JSON(bookingToResponse(b))
	}
}

// -------------------------------------------------
// GET /api/bookings?member_id=&from=&to= (admin)
// -------------------------------------------------
func ListBookingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Booking{}).Preload("Class").Preload("Trainer")

		if midStr := c.Query("member_id"); midStr != "" {
			var mid uint
			if _, err := fmt.Sscan(midStr, &mid); err != nil || mid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "member_id geçersiz")
			}
			dbq = dbq.Where("member_id = ?", mid)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
			}
			dbq = dbq.Where("scheduled_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			dbq = dbq.Where("scheduled_at < ?", to.AddDate(0, 0, 1))
		}

		var bookings []models.Booking
		if err := dbq.Order("scheduled_at desc").Find(&bookings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rezervasyonlar listelenemedi")
		}

		res := make([]BookingResponse, 0, len(bookings))
		for _, b := range bookings {
			res = append(res, bookingToResponse(b))
		}
		return c.JSON(res)
	}
}
