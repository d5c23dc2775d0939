package booking

import (
	"fmt"
	"strings"
	"time"

	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ClassResponse struct {
	ID              uint   `json:"id"`
	BranchID        uint   `json:"branch_id"`
	TrainerID       uint   `json:"trainer_id"`
	TrainerName     string `json:"trainer_name"`
	Name            string `json:"name"`
	Capacity        int    `json:"capacity"`
	BookedCount     int64  `json:"booked_count"`
	StartsAt        string `json:"starts_at"`
	DurationMinutes int    `json:"duration_minutes"`
}

type CreateClassRequest struct {
	BranchID        *uint  `json:"branch_id"` // super_admin için zorunlu
	TrainerID       uint   `json:"trainer_id"`
	Name            string `json:"name"`
	Capacity        int    `json:"capacity"`
	StartsAt        string `json:"starts_at"` // RFC3339
	DurationMinutes int    `json:"duration_minutes"`
}

type UpdateClassRequest struct {
	TrainerID       *uint   `json:"trainer_id"`
	Name            *string `json:"name"`
	Capacity        *int    `json:"capacity"`
	StartsAt        *string `json:"starts_at"`
	DurationMinutes *int    `json:"duration_minutes"`
}

func classToResponse(cl models.Class, bookedCount int64) ClassResponse {
	trainerName := ""
	if cl.Trainer != nil {
		trainerName = cl.Trainer.Name
	}
	return ClassResponse{
		ID:              cl.ID,
		BranchID:        cl.BranchID,
		TrainerID:       cl.TrainerID,
		TrainerName:     trainerName,
		Name:            cl.Name,
		Capacity:        cl.Capacity,
		BookedCount:     bookedCount,
		StartsAt:        cl.StartsAt.Format(time.RFC3339),
		DurationMinutes: cl.DurationMinutes,
	}
}

func bookedCountOf(classID uint) int64 {
	var count int64
	database.DB.Model(&models.Booking{}).
		Where("class_id = ? AND status = ?", classID, models.BookingBooked).
		Count(&count)
	return count
}

func CreateClassHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateClassRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Ders adı boş olamaz")
		}
		if body.Capacity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Kapasite pozitif olmalı")
		}
		if body.DurationMinutes <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Süre pozitif dakika olmalı")
		}

		startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "starts_at formatı geçersiz, RFC3339 olmalı")
		}

		branchID, err := resolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		var trainer models.Trainer
		if err := database.DB.First(&trainer, "id = ?", body.TrainerID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Antrenör bulunamadı")
		}
		if !trainer.IsActive {
			return fiber.NewError(fiber.StatusBadRequest, "Antrenör pasif durumda")
		}

		cl := models.Class{
			BranchID:        branchID,
			TrainerID:       trainer.ID,
			Name:            body.Name,
			Capacity:        body.Capacity,
			StartsAt:        startsAt,
			DurationMinutes: body.DurationMinutes,
		}

		if err := database.DB.Create(&cl).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ders oluşturulamadı")
		}

		cl.Trainer = &trainer
		return c.Status(fiber.StatusCreated).JSON(classToResponse(cl, 0))
	}
}

// GET /api/classes?from=2025-12-01&to=2025-12-31&branch_id=1
func ListClassesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Class{}).Preload("Trainer")

		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}
		if role == models.RoleBranchAdmin || role == models.RoleReceptionist || role == models.RoleMember {
			bPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
			if !ok || bPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
			}
			dbq = dbq.Where("branch_id = ?", *bPtr)
		} else if bidStr := c.Query("branch_id"); bidStr != "" {
			var bid uint
			if _, err := fmt.Sscan(bidStr, &bid); err != nil || bid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
			}
			dbq = dbq.Where("branch_id = ?", bid)
		}

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
			}
			dbq = dbq.Where("starts_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			dbq = dbq.Where("starts_at < ?", to.AddDate(0, 0, 1))
		}

		var classes []models.Class
		if err := dbq.Order("starts_at asc").Find(&classes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dersler listelenemedi")
		}

		res := make([]ClassResponse, 0, len(classes))
		for _, cl := range classes {
			res = append(res, classToResponse(cl, bookedCountOf(cl.ID)))
		}
		return c.JSON(res)
	}
}

func UpdateClassHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cl models.Class
		if err := database.DB.Preload("Trainer").First(&cl, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ders bulunamadı")
		}

		var body UpdateClassRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.TrainerID != nil {
			var trainer models.Trainer
			if err := database.DB.First(&trainer, "id = ?", *body.TrainerID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Antrenör bulunamadı")
			}
			cl.TrainerID = trainer.ID
			cl.Trainer = &trainer
		}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ders adı boş olamaz")
			}
			cl.Name = name
		}
		if body.Capacity != nil {
			if *body.Capacity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Kapasite pozitif olmalı")
			}
			// Kapasite mevcut rezervasyonların altına düşürülemez
			if int64(*body.Capacity) < bookedCountOf(cl.ID) {
				return fiber.NewError(fiber.StatusBadRequest, "Kapasite mevcut rezervasyon sayısının altına indirilemez")
			}
			cl.Capacity = *body.Capacity
		}
		if body.StartsAt != nil {
			startsAt, err := time.Parse(time.RFC3339, *body.StartsAt)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "starts_at formatı geçersiz, RFC3339 olmalı")
			}
			cl.StartsAt = startsAt
		}
		if body.DurationMinutes != nil {
			if *body.DurationMinutes <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Süre pozitif dakika olmalı")
			}
			cl.DurationMinutes = *body.DurationMinutes
		}

		if err := database.DB.Save(&cl).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ders güncellenemedi")
		}

		return c.JSON(classToResponse(cl, bookedCountOf(cl.ID)))
	}
}

func DeleteClassHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cl models.Class
		if err := database.DB.First(&cl, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ders bulunamadı")
		}

		// Rezervasyonları iptal edip dersi sil
		database.DB.Model(&models.Booking{}).
			Where("class_id = ? AND status = ?", cl.ID, models.BookingBooked).
			Update("status", models.BookingCancelled)

		if err := database.DB.Delete(&models.Class{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ders silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
