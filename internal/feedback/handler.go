package feedback

import (
	"fmt"
	"strings"

	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateFeedbackRequest struct {
	Rating  int    `json:"rating"` // 1-5
	Message string `json:"message"`
}

type FeedbackResponse struct {
	ID         uint   `json:"id"`
	MemberID   uint   `json:"member_id"`
	MemberName string `json:"member_name"`
	BranchID   uint   `json:"branch_id"`
	Rating     int    `json:"rating"`
	Message    string `json:"message"`
	Resolved   bool   `json:"resolved"`
	CreatedAt  string `json:"created_at"`
}

func feedbackToResponse(f models.Feedback) FeedbackResponse {
	memberName := ""
	if f.Member != nil {
		memberName = f.Member.FirstName + " " + f.Member.LastName
	}
	return FeedbackResponse{
		ID:         f.ID,
		MemberID:   f.MemberID,
		MemberName: memberName,
		BranchID:   f.BranchID,
		Rating:     f.Rating,
		Message:    f.Message,
		Resolved:   f.Resolved,
		CreatedAt:  f.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// -------------------------------------------------
// POST /api/feedback (üye oturumu)
// -------------------------------------------------
func CreateFeedbackHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID, err := auth.MemberID(c)
		if err != nil {
			return err
		}

		var body CreateFeedbackRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Rating < 1 || body.Rating > 5 {
			return fiber.NewError(fiber.StatusBadRequest, "Puan 1-5 arası olmalı")
		}

		var member models.Member
		if err := database.DB.First(&member, "id = ?", memberID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üye bulunamadı")
		}

		f := models.Feedback{
			MemberID: member.ID,
			BranchID: member.BranchID,
			Rating:   body.Rating,
			Message:  strings.TrimSpace(body.Message),
		}

		if err := database.DB.Create(&f).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geri bildirim kaydedilemedi")
		}

		f.Member = &member
		return c.Status(fiber.StatusCreated).JSON(feedbackToResponse(f))
	}
}

// -------------------------------------------------
// GET /api/feedback?resolved=false&branch_id=1 (admin)
// -------------------------------------------------
func ListFeedbackHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		dbq := database.DB.Model(&models.Feedback{}).Preload("Member")

		if role == models.RoleBranchAdmin {
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

		if resolvedStr := c.Query("resolved"); resolvedStr != "" {
			dbq = dbq.Where("resolved = ?", resolvedStr == "true")
		}

		var feedbacks []models.Feedback
		if err := dbq.Order("created_at desc").Find(&feedbacks).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geri bildirimler listelenemedi")
		}

		res := make([]FeedbackResponse, 0, len(feedbacks))
		for _, f := range feedbacks {
			res = append(res, feedbackToResponse(f))
		}
		return c.JSON(res)
	}
}

// -------------------------------------------------
// POST /api/feedback/:id/resolve (admin)
// -------------------------------------------------
func ResolveFeedbackHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var f models.Feedback
		if err := database.DB.Preload("Member").First(&f, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Geri bildirim bulunamadı")
		}

		if f.Resolved {
			return fiber.NewError(fiber.StatusBadRequest, "Geri bildirim zaten çözülmüş")
		}

		f.Resolved = true
		if err := database.DB.Save(&f).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geri bildirim güncellenemedi")
		}

		return c.JSON(feedbackToResponse(f))
	}
}
