package checkin

import (
	"time"

	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/config"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/membership"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type QRResponse struct {
	QRCode        string `json:"qr_code"` // Telefonda QR olarak çizilen opak token
	ExpiresAt     string `json:"expires_at"`
	CooldownUntil string `json:"cooldown_until"`

	Membership *fiber.Map `json:"membership,omitempty"`
}

// lastCheckInTime - Üyenin son giriş zamanı; hiç girmemişse nil.
func lastCheckInTime(memberID uint) *time.Time {
	var rec models.CheckInRecord
	if err := database.DB.Where("member_id = ?", memberID).
		Order("check_in_time desc").First(&rec).Error; err != nil {
		return nil
	}
	return &rec.CheckInTime
}

// currentMembershipOf - Üyenin güncel üyeliği (planıyla); yoksa nil.
func currentMembershipOf(memberID uint) *models.Membership {
	var memberships []models.Membership
	if err := database.DB.Preload("Plan").
		Where("member_id = ?", memberID).
		Find(&memberships).Error; err != nil {
		return nil
	}
	return membership.CurrentMembership(memberships)
}

// -------------------------------------------------
// GET /api/checkins/qr (üye oturumu)
// Üyenin güncel QR kodunu üretir ya da süresi dolmamış olanı döner.
// -------------------------------------------------
func MemberQRHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID, err := auth.MemberID(c)
		if err != nil {
			return err
		}

		var member models.Member
		if err := database.DB.First(&member, "id = ?", memberID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üye bulunamadı")
		}

		now := time.Now()

		// Süresi dolmamış kod varsa aynısını döndür, kod çöplüğü oluşturma
		var cred models.CheckInCredential
		err2 := database.DB.Where("member_id = ? AND expires_at > ?", memberID, now).
			Order("expires_at desc").First(&cred).Error
		if err2 != nil {
			cooldownUntil := now
			if last := lastCheckInTime(memberID); last != nil {
				cooldownUntil = last.Add(time.Duration(cfg.CheckinCooldownMinutes) * time.Minute)
			}
			cred = models.CheckInCredential{
				MemberID:      memberID,
				Token:         uuid.NewString(),
				ExpiresAt:     now.Add(time.Duration(cfg.QRTokenTTLMinutes) * time.Minute),
				CooldownUntil: cooldownUntil,
			}
			if err := database.DB.Create(&cred).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "QR kod oluşturulamadı")
			}
		}

		resp := QRResponse{
			QRCode:        cred.Token,
			ExpiresAt:     cred.ExpiresAt.Format(time.RFC3339),
			CooldownUntil: cred.CooldownUntil.Format(time.RFC3339),
		}

		if current := currentMembershipOf(memberID); current != nil {
			planName := ""
			if current.Plan != nil {
				planName = current.Plan.Name
			}
			resp.Membership = &fiber.Map{
				"plan_name":      planName,
				"status":         current.Status,
				"end_date":       current.EndDate.Format("2006-01-02"),
				"derived_status": membership.ComputeStatus(current, now, cfg.ExpiringSoonDays),
			}
		}

		return c.JSON(resp)
	}
}
