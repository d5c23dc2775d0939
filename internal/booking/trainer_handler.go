package booking

import (
	"fmt"
	"strings"

	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TrainerResponse struct {
	ID        uint   `json:"id"`
	BranchID  uint   `json:"branch_id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	IsActive  bool   `json:"is_active"`
}

type CreateTrainerRequest struct {
	BranchID  *uint  `json:"branch_id"` // super_admin için zorunlu
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
}

type UpdateTrainerRequest struct {
	Name      *string `json:"name"`
	Specialty *string `json:"specialty"`
	Phone     *string `json:"phone"`
	IsActive  *bool   `json:"is_active"`
}

func trainerToResponse(tr models.Trainer) TrainerResponse {
	return TrainerResponse{
		ID:        tr.ID,
		BranchID:  tr.BranchID,
		Name:      tr.Name,
		Specialty: tr.Specialty,
		Phone:     tr.Phone,
		IsActive:  tr.IsActive,
	}
}

// Yardımcı: şube çöz (body'den veya JWT'den)
func resolveBranchID(c *fiber.Ctx, bodyBranchID *uint) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role == models.RoleBranchAdmin {
		bPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
		if !ok || bPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		return *bPtr, nil
	}

	// super_admin
	if bodyBranchID == nil || *bodyBranchID == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
	}
	return *bodyBranchID, nil
}

func CreateTrainerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTrainerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Antrenör adı boş olamaz")
		}

		branchID, err := resolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		tr := models.Trainer{
			BranchID:  branchID,
			Name:      body.Name,
			Specialty: strings.TrimSpace(body.Specialty),
			Phone:     strings.TrimSpace(body.Phone),
			IsActive:  true,
		}

		if err := database.DB.Create(&tr).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Antrenör oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(trainerToResponse(tr))
	}
}

func ListTrainersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Trainer{})

		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}
		if role == models.RoleBranchAdmin || role == models.RoleReceptionist {
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

		if c.Query("all") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var trainers []models.Trainer
		if err := dbq.Order("name asc").Find(&trainers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Antrenörler listelenemedi")
		}

		res := make([]TrainerResponse, 0, len(trainers))
		for _, tr := range trainers {
			res = append(res, trainerToResponse(tr))
		}
		return c.JSON(res)
	}
}

func UpdateTrainerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var tr models.Trainer
		if err := database.DB.First(&tr, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Antrenör bulunamadı")
		}

		var body UpdateTrainerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Antrenör adı boş olamaz")
			}
			tr.Name = name
		}
		if body.Specialty != nil {
			tr.Specialty = strings.TrimSpace(*body.Specialty)
		}
		if body.Phone != nil {
			tr.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.IsActive != nil {
			tr.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&tr).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Antrenör güncellenemedi")
		}

		return c.JSON(trainerToResponse(tr))
	}
}

func DeleteTrainerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		// Gelecek dersi olan antrenör silinmez
		var count int64
		database.DB.Model(&models.Class{}).
			Where("trainer_id = ? AND starts_at > NOW()", id).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu antrenörün planlanmış dersi var, önce dersleri taşıyın")
		}

		if err := database.DB.Delete(&models.Trainer{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Antrenör silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
