package checkin

import (
	"fmt"
	"strings"
	"time"

	"gymsync-backend/internal/audit"
	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/config"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/membership"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ValidateRequest struct {
	Token string `json:"token"`
}

type ApproveRequest struct {
	Token        string `json:"token"`
	SelfieURL    string `json:"selfie_url"`    // Opsiyonel, girişi etkilemez
	LockerNumber string `json:"locker_number"` // Opsiyonel
	Gender       string `json:"gender"`        // Opsiyonel, üye kaydı boşsa doldurulur
}

type CheckInResponse struct {
	ID          uint   `json:"id"`
	BranchID    uint   `json:"branch_id"`
	Status      string `json:"status"`
	CheckInTime string `json:"check_in_time"`
}

type ApproveResponse struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message,omitempty"`
	CheckInTime  string           `json:"check_in_time,omitempty"`
	CheckIn      *CheckInResponse `json:"check_in,omitempty"`
	ActiveBranch *uint            `json:"active_branch,omitempty"`
}

// Yardımcı: Kullanıcı bilgilerini al
func getUserInfo(c *fiber.Ctx) (uint, string, *uint, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", nil, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	var branchID *uint
	bVal := c.Locals(auth.CtxBranchIDKey)
	if bPtr, ok := bVal.(*uint); ok && bPtr != nil {
		branchID = bPtr
	}

	return userID, user.Name, branchID, nil
}

// resolveCredential - Token'dan QR kaydı + üye. Token bilinmiyorsa ikisi de nil.
func resolveCredential(token string) (*models.CheckInCredential, *models.Member) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	var cred models.CheckInCredential
	if err := database.DB.Where("token = ?", token).First(&cred).Error; err != nil {
		return nil, nil
	}

	var member models.Member
	if err := database.DB.First(&member, "id = ?", cred.MemberID).Error; err != nil {
		return &cred, nil
	}
	return &cred, &member
}

// -------------------------------------------------
// GET /api/checkins/preview?token=...
// Onay ekranı için üye + üyelik + son giriş önizlemesi. Yan etkisiz,
// istenildiği kadar tekrarlanabilir.
// -------------------------------------------------
func PreviewHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")

		cred, member := resolveCredential(token)
		if cred == nil {
			return fiber.NewError(fiber.StatusNotFound, "QR kod bulunamadı")
		}
		if member == nil {
			return fiber.NewError(fiber.StatusNotFound, "QR kodun üyesi bulunamadı")
		}

		now := time.Now()
		current := currentMembershipOf(member.ID)
		last := lastCheckInTime(member.ID)

		resp := fiber.Map{
			"member": fiber.Map{
				"id":         member.ID,
				"first_name": member.FirstName,
				"last_name":  member.LastName,
				"username":   member.Username,
				"photo_url":  member.PhotoURL,
				"branch_id":  member.BranchID,
				"gender":     member.Gender,
			},
			"membership":     nil,
			"derived_status": membership.ComputeStatus(current, now, cfg.ExpiringSoonDays),
			"last_check_in":  nil,
		}

		if current != nil {
			planName := ""
			if current.Plan != nil {
				planName = current.Plan.Name
			}
			resp["membership"] = fiber.Map{
				"plan_name":  planName,
				"status":     current.Status,
				"start_date": current.StartDate.Format("2006-01-02"),
				"end_date":   current.EndDate.Format("2006-01-02"),
			}
		}
		if last != nil {
			resp["last_check_in"] = last.Format("2006-01-02 15:04:05")
		}

		// Hızlı red için ön kontrol sonucunu da ekle
		cooldown := time.Duration(cfg.CheckinCooldownMinutes) * time.Minute
		decision := Evaluate(cred, membership.ComputeStatus(current, now, cfg.ExpiringSoonDays), last, now, cooldown)
		if !decision.Success {
			resp["message"] = decision.Message
		}

		return c.JSON(resp)
	}
}

// -------------------------------------------------
// POST /api/checkins/validate
// Onay öncesi kuru kontrol: 1-3 adımları, kayıt oluşturmaz.
// -------------------------------------------------
func ValidateHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ValidateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		cred, member := resolveCredential(body.Token)
		if cred == nil || member == nil {
			return c.JSON(deny("QR kod bulunamadı"))
		}

		now := time.Now()
		current := currentMembershipOf(member.ID)
		last := lastCheckInTime(member.ID)
		cooldown := time.Duration(cfg.CheckinCooldownMinutes) * time.Minute

		decision := Evaluate(cred, membership.ComputeStatus(current, now, cfg.ExpiringSoonDays), last, now, cooldown)
		return c.JSON(decision)
	}
}

// -------------------------------------------------
// POST /api/checkins/approve
// Admin onaylı giriş. Kontroller geçerse CheckInRecord oluşturur; aynı QR kod
// ile ikinci kayıt unique index'e takılır ve red olarak döner.
// -------------------------------------------------
func ApproveHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ApproveRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		cred, member := resolveCredential(body.Token)
		if cred == nil || member == nil {
			return c.JSON(ApproveResponse{Success: false, Message: "QR kod bulunamadı"})
		}

		now := time.Now()
		current := currentMembershipOf(member.ID)
		last := lastCheckInTime(member.ID)
		cooldown := time.Duration(cfg.CheckinCooldownMinutes) * time.Minute

		decision := Evaluate(cred, membership.ComputeStatus(current, now, cfg.ExpiringSoonDays), last, now, cooldown)
		if !decision.Success {
			return c.JSON(ApproveResponse{Success: false, Message: decision.Message})
		}

		userID, userName, adminBranchID, err := getUserInfo(c)
		if err != nil {
			return err
		}

		// Şube: onaylayan adminin şubesi; super_admin'in şubesi yoksa üyenin
		// ev şubesi
		branchID := member.BranchID
		if adminBranchID != nil {
			branchID = *adminBranchID
		}

		record := models.CheckInRecord{
			MemberID:     member.ID,
			CredentialID: cred.ID,
			BranchID:     branchID,
			CheckInTime:  now,
			Status:       models.CheckInActive,
			LockerNumber: strings.TrimSpace(body.LockerNumber),
			SelfieURL:    body.SelfieURL,
			AdmittedBy:   userID,
		}

		if err := database.DB.Create(&record).Error; err != nil {
			// Aynı credential ile yarışan ikinci approve buraya düşer
			if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "23505") {
				return c.JSON(ApproveResponse{Success: false, Message: "Bu QR kod zaten kullanılmış"})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Giriş kaydı oluşturulamadı")
		}

		// Üye kaydında cinsiyet boşsa resepsiyondan gelenle doldur
		if body.Gender != "" && member.Gender == "" {
			member.Gender = strings.TrimSpace(body.Gender)
			database.DB.Model(&models.Member{}).Where("id = ?", member.ID).
				Update("gender", member.Gender)
		}

		// Audit log yaz
		afterData := map[string]interface{}{
			"id":            record.ID,
			"member_id":     record.MemberID,
			"branch_id":     record.BranchID,
			"check_in_time": record.CheckInTime.Format("2006-01-02 15:04:05"),
			"status":        record.Status,
		}
		if logErr := audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "check_in_record",
			EntityID:    record.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Giriş onaylandı: %s %s", member.FirstName, member.LastName),
			Before:      nil,
			After:       afterData,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.JSON(ApproveResponse{
			Success:     true,
			CheckInTime: record.CheckInTime.Format("2006-01-02 15:04:05"),
			CheckIn: &CheckInResponse{
				ID:          record.ID,
				BranchID:    record.BranchID,
				Status:      string(record.Status),
				CheckInTime: record.CheckInTime.Format("2006-01-02 15:04:05"),
			},
			ActiveBranch: &branchID,
		})
	}
}

// -------------------------------------------------
// POST /api/checkins/:id/checkout
// -------------------------------------------------
func CheckoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var record models.CheckInRecord
		if err := database.DB.First(&record, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Giriş kaydı bulunamadı")
		}

		if record.Status == models.CheckInCompleted {
			return fiber.NewError(fiber.StatusBadRequest, "Bu giriş zaten kapatılmış")
		}

		now := time.Now()
		before := map[string]interface{}{
			"status":         record.Status,
			"check_out_time": nil,
		}

		record.Status = models.CheckInCompleted
		record.CheckOutTime = &now

		if err := database.DB.Save(&record).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çıkış kaydedilemedi")
		}

		userID, userName, _, uErr := getUserInfo(c)
		if uErr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				BranchID:    &record.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "check_in_record",
				EntityID:    record.ID,
				Action:      models.AuditActionUpdate,
				Description: "Çıkış kaydedildi",
				Before:      before,
				After: map[string]interface{}{
					"status":         record.Status,
					"check_out_time": now.Format("2006-01-02 15:04:05"),
				},
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{
			"id":             record.ID,
			"status":         record.Status,
			"check_out_time": now.Format("2006-01-02 15:04:05"),
		})
	}
}

// -------------------------------------------------
// GET /api/checkins?from=2025-12-01&to=2025-12-31&branch_id=1&member_id=5
// -------------------------------------------------
func ListCheckInsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		dbq := database.DB.Model(&models.CheckInRecord{}).Preload("Member")

		if role == models.RoleBranchAdmin || role == models.RoleReceptionist {
			branchIDPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
			if !ok || branchIDPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
			}
			dbq = dbq.Where("branch_id = ?", *branchIDPtr)
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
			dbq = dbq.Where("check_in_time >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			dbq = dbq.Where("check_in_time < ?", to.AddDate(0, 0, 1))
		}
		if midStr := c.Query("member_id"); midStr != "" {
			var mid uint
			if _, err := fmt.Sscan(midStr, &mid); err != nil || mid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "member_id geçersiz")
			}
			dbq = dbq.Where("member_id = ?", mid)
		}

		var records []models.CheckInRecord
		if err := dbq.Order("check_in_time desc, id desc").Find(&records).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Giriş kayıtları listelenemedi")
		}

		return c.JSON(recordsToResponse(records))
	}
}

// -------------------------------------------------
// GET /api/checkins/active - şu an içeride olanlar
// -------------------------------------------------
func ListActiveCheckInsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		dbq := database.DB.Model(&models.CheckInRecord{}).Preload("Member").
			Where("status = ?", models.CheckInActive)

		if role == models.RoleBranchAdmin || role == models.RoleReceptionist {
			branchIDPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
			if !ok || branchIDPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
			}
			dbq = dbq.Where("branch_id = ?", *branchIDPtr)
		} else if bidStr := c.Query("branch_id"); bidStr != "" {
			var bid uint
			if _, err := fmt.Sscan(bidStr, &bid); err != nil || bid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
			}
			dbq = dbq.Where("branch_id = ?", bid)
		}

		var records []models.CheckInRecord
		if err := dbq.Order("check_in_time asc").Find(&records).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Giriş kayıtları listelenemedi")
		}

		return c.JSON(recordsToResponse(records))
	}
}

func recordsToResponse(records []models.CheckInRecord) []fiber.Map {
	resp := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		item := fiber.Map{
			"id":            r.ID,
			"member_id":     r.MemberID,
			"branch_id":     r.BranchID,
			"check_in_time": r.CheckInTime.Format("2006-01-02 15:04:05"),
			"status":        r.Status,
			"locker_number": r.LockerNumber,
		}
		if r.CheckOutTime != nil {
			item["check_out_time"] = r.CheckOutTime.Format("2006-01-02 15:04:05")
		}
		if r.Member != nil {
			item["member"] = fiber.Map{
				"id":         r.Member.ID,
				"first_name": r.Member.FirstName,
				"last_name":  r.Member.LastName,
				"username":   r.Member.Username,
			}
		}
		resp = append(resp, item)
	}
	return resp
}
