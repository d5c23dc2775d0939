package membership

import (
	"fmt"
	"time"

	"gymsync-backend/internal/audit"
	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/config"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AssignMembershipRequest struct {
	MemberID  uint                 `json:"member_id"`
	PlanID    uint                 `json:"plan_id"`
	StartDate *string              `json:"start_date"` // "2025-12-09", boşsa bugün
	Method    models.PaymentMethod `json:"method"`     // "cash" | "card" | "transfer"
	// Plan fiyatından farklı tahsilat (kampanya vs.) için opsiyonel
	Amount *float64 `json:"amount"`
	Note   string   `json:"note"`
}

type MembershipResponse struct {
	ID            uint          `json:"id"`
	MemberID      uint          `json:"member_id"`
	PlanID        uint          `json:"plan_id"`
	PlanName      string        `json:"plan_name"`
	Status        string        `json:"status"`
	DerivedStatus DerivedStatus `json:"derived_status"`
	StartDate     string        `json:"start_date"`
	EndDate       string        `json:"end_date"`
}

type MonthlyRevenueItem struct {
	Method models.PaymentMethod `json:"method"`
	Total  float64              `json:"total"`
}

type MonthlyRevenueResponse struct {
	BranchID   uint                 `json:"branch_id"`
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	Items      []MonthlyRevenueItem `json:"items"`
	GrandTotal float64              `json:"grand_total"`
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

func membershipToResponse(m models.Membership, cfg *config.Config) MembershipResponse {
	planName := ""
	if m.Plan != nil {
		planName = m.Plan.Name
	}
	return MembershipResponse{
		ID:            m.ID,
		MemberID:      m.MemberID,
		PlanID:        m.PlanID,
		PlanName:      planName,
		Status:        string(m.Status),
		DerivedStatus: ComputeStatus(&m, time.Now(), cfg.ExpiringSoonDays),
		StartDate:     m.StartDate.Format("2006-01-02"),
		EndDate:       m.EndDate.Format("2006-01-02"),
	}
}

// -------------------------------------------------
// POST /api/memberships
// Üyeye plan atar, ödemeyi kaydeder. Var olan aktif üyelik iptal edilmeden
// yenisi açılmaz.
// -------------------------------------------------
func AssignMembershipHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AssignMembershipRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.MemberID == 0 || body.PlanID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "member_id ve plan_id zorunlu")
		}
		switch body.Method {
		case models.PaymentCash, models.PaymentCard, models.PaymentTransfer:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "method 'cash', 'card' veya 'transfer' olmalı")
		}

		var member models.Member
		if err := database.DB.First(&member, "id = ?", body.MemberID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üye bulunamadı")
		}

		var plan models.Plan
		if err := database.DB.First(&plan, "id = ?", body.PlanID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Plan bulunamadı")
		}
		if !plan.IsActive {
			return fiber.NewError(fiber.StatusBadRequest, "Bu plan satışa kapalı")
		}

		// Devam eden üyelik kontrolü (bitmemiş ve iptal edilmemiş)
		var existing int64
		database.DB.Model(&models.Membership{}).
			Where("member_id = ? AND status IN ? AND end_date > ?",
				member.ID,
				[]models.MembershipStatus{models.MembershipActive, models.MembershipPending},
				time.Now()).
			Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Üyenin devam eden bir üyeliği var, önce iptal edin veya yenileyin")
		}

		var start time.Time
		if body.StartDate == nil || *body.StartDate == "" {
			now := time.Now()
			start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			d, err := time.Parse("2006-01-02", *body.StartDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
			}
			start = d
		}

		amount := plan.Price
		if body.Amount != nil {
			if *body.Amount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Tutar negatif olamaz")
			}
			amount = *body.Amount
		}

		m := models.Membership{
			MemberID:  member.ID,
			PlanID:    plan.ID,
			Status:    models.MembershipActive,
			StartDate: start,
			EndDate:   start.AddDate(0, 0, plan.DurationDays),
		}

		// Üyelik + ödeme tek transaction'da
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			payment := models.Payment{
				MemberID:     member.ID,
				MembershipID: m.ID,
				BranchID:     member.BranchID,
				Amount:       amount,
				Method:       body.Method,
				PaidAt:       time.Now(),
				Note:         body.Note,
			}
			return tx.Create(&payment).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üyelik oluşturulamadı")
		}

		// Audit log yaz
		userID, userName, _, uErr := getUserInfo(c)
		if uErr == nil {
			afterData := map[string]interface{}{
				"id":         m.ID,
				"member_id":  m.MemberID,
				"plan_id":    m.PlanID,
				"status":     m.Status,
				"start_date": m.StartDate.Format("2006-01-02"),
				"end_date":   m.EndDate.Format("2006-01-02"),
				"amount":     amount,
			}
			branchIDForLog := &member.BranchID
			if logErr := audit.WriteLog(audit.LogOptions{
				BranchID:    branchIDForLog,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "membership",
				EntityID:    m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Üyelik açıldı: %s - %.2f TL", plan.Name, amount),
				Before:      nil,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		m.Plan = &plan
		return c.Status(fiber.StatusCreated).JSON(membershipToResponse(m, cfg))
	}
}

// -------------------------------------------------
// POST /api/memberships/:id/renew
// Mevcut üyeliğin bitiminden (geçmişse bugünden) itibaren aynı planla uzatır.
// -------------------------------------------------
func RenewMembershipHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var m models.Membership
		if err := database.DB.Preload("Plan").First(&m, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üyelik bulunamadı")
		}
		if m.Plan == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üyeliğin planı yüklenemedi")
		}

		var body struct {
			Method models.PaymentMethod `json:"method"`
			Amount *float64             `json:"amount"`
			Note   string               `json:"note"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		switch body.Method {
		case models.PaymentCash, models.PaymentCard, models.PaymentTransfer:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "method 'cash', 'card' veya 'transfer' olmalı")
		}

		var member models.Member
		if err := database.DB.First(&member, "id = ?", m.MemberID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üye bulunamadı")
		}

		// Yeni dönem eskinin bitiminden başlar; üyelik çoktan bitmişse bugünden
		start := m.EndDate
		now := time.Now()
		if start.Before(now) {
			start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		}

		amount := m.Plan.Price
		if body.Amount != nil && *body.Amount >= 0 {
			amount = *body.Amount
		}

		before := map[string]interface{}{
			"status":   m.Status,
			"end_date": m.EndDate.Format("2006-01-02"),
		}

		m.Status = models.MembershipActive
		m.StartDate = start
		m.EndDate = start.AddDate(0, 0, m.Plan.DurationDays)

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&m).Error; err != nil {
				return err
			}
			payment := models.Payment{
				MemberID:     m.MemberID,
				MembershipID: m.ID,
				BranchID:     member.BranchID,
				Amount:       amount,
				Method:       body.Method,
				PaidAt:       time.Now(),
				Note:         body.Note,
			}
			return tx.Create(&payment).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üyelik yenilenemedi")
		}

		userID, userName, _, uErr := getUserInfo(c)
		if uErr == nil {
			after := map[string]interface{}{
				"status":   m.Status,
				"end_date": m.EndDate.Format("2006-01-02"),
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				BranchID:    &member.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "membership",
				EntityID:    m.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Üyelik yenilendi: %s - %.2f TL", m.Plan.Name, amount),
				Before:      before,
				After:       after,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(membershipToResponse(m, cfg))
	}
}

// -------------------------------------------------
// POST /api/memberships/:id/cancel
// -------------------------------------------------
func CancelMembershipHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var m models.Membership
		if err := database.DB.Preload("Plan").First(&m, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üyelik bulunamadı")
		}

		if m.Status == models.MembershipCancelled {
			return fiber.NewError(fiber.StatusBadRequest, "Üyelik zaten iptal edilmiş")
		}

		before := map[string]interface{}{"status": m.Status}

		m.Status = models.MembershipCancelled
		if err := database.DB.Save(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üyelik iptal edilemedi")
		}

		userID, userName, _, uErr := getUserInfo(c)
		if uErr == nil {
			var member models.Member
			var branchID *uint
			if err := database.DB.First(&member, "id = ?", m.MemberID).Error; err == nil {
				branchID = &member.BranchID
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				BranchID:    branchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "membership",
				EntityID:    m.ID,
				Action:      models.AuditActionUpdate,
				Description: "Üyelik iptal edildi",
				Before:      before,
				After:       map[string]interface{}{"status": m.Status},
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(membershipToResponse(m, cfg))
	}
}

// -------------------------------------------------
// GET /api/members/:id/membership
// Üyenin güncel üyeliği + türetilmiş durum
// -------------------------------------------------
func GetMemberMembershipHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID := c.Params("id")

		var memberships []models.Membership
		if err := database.DB.Preload("Plan").
			Where("member_id = ?", memberID).
			Find(&memberships).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üyelik sorgulanamadı")
		}

		current := CurrentMembership(memberships)
		if current == nil {
			return c.JSON(fiber.Map{
				"membership":     nil,
				"derived_status": StatusNoMembership,
			})
		}

		return c.JSON(fiber.Map{
			"membership":     membershipToResponse(*current, cfg),
			"derived_status": ComputeStatus(current, time.Now(), cfg.ExpiringSoonDays),
		})
	}
}

// -------------------------------------------------
// GET /api/payments?from=&to=&member_id=&branch_id=
// -------------------------------------------------
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		dbq := database.DB.Model(&models.Payment{})

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
			dbq = dbq.Where("paid_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			dbq = dbq.Where("paid_at <= ?", to.AddDate(0, 0, 1))
		}
		if midStr := c.Query("member_id"); midStr != "" {
			var mid uint
			if _, err := fmt.Sscan(midStr, &mid); err != nil || mid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "member_id geçersiz")
			}
			dbq = dbq.Where("member_id = ?", mid)
		}

		var payments []models.Payment
		if err := dbq.Order("paid_at desc, id desc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ödemeler listelenemedi")
		}

		type paymentResponse struct {
			ID           uint                 `json:"id"`
			MemberID     uint                 `json:"member_id"`
			MembershipID uint                 `json:"membership_id"`
			BranchID     uint                 `json:"branch_id"`
			Amount       float64              `json:"amount"`
			Method       models.PaymentMethod `json:"method"`
			PaidAt       string               `json:"paid_at"`
			Note         string               `json:"note"`
		}

		resp := make([]paymentResponse, 0, len(payments))
		for _, p := range payments {
			resp = append(resp, paymentResponse{
				ID:           p.ID,
				MemberID:     p.MemberID,
				MembershipID: p.MembershipID,
				BranchID:     p.BranchID,
				Amount:       p.Amount,
				Method:       p.Method,
				PaidAt:       p.PaidAt.Format("2006-01-02 15:04:05"),
				Note:         p.Note,
			})
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/payments/summary/monthly?year=2025&month=12&branch_id=1
// branch_admin için branch_id query gerekmez (JWT'den)
// -------------------------------------------------
func MonthlyRevenueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		var branchID uint
		if role == models.RoleBranchAdmin {
			branchIDPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
			if !ok || branchIDPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
			}
			branchID = *branchIDPtr
		} else {
			// super_admin: branch_id queryden gelir
			bidStr := c.Query("branch_id")
			if bidStr == "" {
				return fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
			}
			var parsed uint
			_, err := fmt.Sscan(bidStr, &parsed)
			if err != nil || parsed == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
			}
			branchID = parsed
		}

		yearStr := c.Query("year")
		monthStr := c.Query("month")
		if yearStr == "" || monthStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
		}

		var year, month int
		if _, err := fmt.Sscan(yearStr, &year); err != nil || year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
		}
		if _, err := fmt.Sscan(monthStr, &month); err != nil || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "month geçersiz")
		}

		loc := time.Now().Location()
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, 0)

		type row struct {
			Method string  `gorm:"column:method"`
			Total  float64 `gorm:"column:total"`
		}
		var rows []row

		if err := database.DB.Model(&models.Payment{}).
			Select("method, SUM(amount) as total").
			Where("branch_id = ? AND paid_at >= ? AND paid_at < ?", branchID, start, end).
			Group("method").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		resp := MonthlyRevenueResponse{
			BranchID:   branchID,
			Year:       year,
			Month:      month,
			Items:      make([]MonthlyRevenueItem, 0, len(rows)),
			GrandTotal: 0,
		}

		for _, r := range rows {
			item := MonthlyRevenueItem{
				Method: models.PaymentMethod(r.Method),
				Total:  r.Total,
			}
			resp.Items = append(resp.Items, item)
			resp.GrandTotal += r.Total
		}

		return c.JSON(resp)
	}
}
