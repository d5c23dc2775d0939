package membership

import (
	"strings"

	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type PlanResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
	Features     string  `json:"features"`
	IsActive     bool    `json:"is_active"`
}

type CreatePlanRequest struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
	Features     string  `json:"features"`
}

type UpdatePlanRequest struct {
	Name         *string  `json:"name"`
	Price        *float64 `json:"price"`
	DurationDays *int     `json:"duration_days"`
	Features     *string  `json:"features"`
	IsActive     *bool    `json:"is_active"`
}

func planToResponse(p models.Plan) PlanResponse {
	return PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		DurationDays: p.DurationDays,
		Features:     p.Features,
		IsActive:     p.IsActive,
	}
}

// ----------------------------------------
// PLAN CRUD (super admin)
// ----------------------------------------

func CreatePlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePlanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Plan adı boş olamaz")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
		}
		if body.DurationDays <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Süre pozitif gün olmalı")
		}

		plan := models.Plan{
			Name:         body.Name,
			Price:        body.Price,
			DurationDays: body.DurationDays,
			Features:     body.Features,
			IsActive:     true,
		}

		if err := database.DB.Create(&plan).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Plan oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(planToResponse(plan))
	}
}

func ListPlansHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Plan{})

		// Varsayılan: sadece aktif planlar. ?all=true hepsini getirir (admin ekranı).
		if c.Query("all") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var plans []models.Plan
		if err := dbq.Order("price asc").Find(&plans).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Planlar listelenemedi")
		}

		res := make([]PlanResponse, 0, len(plans))
		for _, p := range plans {
			res = append(res, planToResponse(p))
		}
		return c.JSON(res)
	}
}

func GetPlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var plan models.Plan
		if err := database.DB.First(&plan, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Plan bulunamadı")
		}

		return c.JSON(planToResponse(plan))
	}
}

func UpdatePlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var plan models.Plan
		if err := database.DB.First(&plan, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Plan bulunamadı")
		}

		var body UpdatePlanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Plan adı boş olamaz")
			}
			plan.Name = name
		}
		if body.Price != nil {
			if *body.Price < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
			}
			plan.Price = *body.Price
		}
		if body.DurationDays != nil {
			if *body.DurationDays <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Süre pozitif gün olmalı")
			}
			plan.DurationDays = *body.DurationDays
		}
		if body.Features != nil {
			plan.Features = *body.Features
		}
		if body.IsActive != nil {
			plan.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&plan).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Plan güncellenemedi")
		}

		return c.JSON(planToResponse(plan))
	}
}

func DeletePlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		// Aktif üyeliği olan plan silinmez, pasife çekilir
		var count int64
		database.DB.Model(&models.Membership{}).
			Where("plan_id = ? AND status = ?", id, models.MembershipActive).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu planda aktif üyelik var, silmek yerine pasife çekin")
		}

		if err := database.DB.Delete(&models.Plan{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Plan silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
