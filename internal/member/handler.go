package member

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
	"golang.org/x/crypto/bcrypt"
)

type MemberResponse struct {
	ID        uint   `json:"id"`
	BranchID  uint   `json:"branch_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	PhotoURL  string `json:"photo_url"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`

	// Türetilmiş alanlar - her listelemede taze hesaplanır
	DerivedStatus membership.DerivedStatus `json:"derived_status"`
	EndDate       *string                  `json:"end_date"`
	DaysInactive  *int                     `json:"days_inactive"` // nil = hiç giriş yok
	LastCheckIn   *string                  `json:"last_check_in"`
}

type CreateMemberRequest struct {
	BranchID  *uint  `json:"branch_id"` // super_admin için zorunlu
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	PhotoURL  string `json:"photo_url"`
	Notes     string `json:"notes"`
	Password  string `json:"password"`
}

type UpdateMemberRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Gender    *string `json:"gender"`
	PhotoURL  *string `json:"photo_url"`
	Notes     *string `json:"notes"`
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

// Yardımcı: şube kapsamını çöz. branch_admin/resepsiyonist kendi şubesini görür,
// super_admin query'den seçebilir (boşsa hepsi).
func resolveBranchScope(c *fiber.Ctx) (*uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return nil, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role == models.RoleBranchAdmin || role == models.RoleReceptionist {
		bPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
		if !ok || bPtr == nil {
			return nil, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		return bPtr, nil
	}

	if bidStr := c.Query("branch_id"); bidStr != "" {
		var bid uint
		if _, err := fmt.Sscan(bidStr, &bid); err != nil || bid == 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
		}
		return &bid, nil
	}
	return nil, nil
}

// loadViews - Üyeleri güncel üyelik + son giriş bilgisiyle MemberView'a çevirir.
func loadViews(branchID *uint) ([]models.Member, []MemberView, error) {
	dbq := database.DB.Model(&models.Member{}).Preload("Memberships").Preload("Memberships.Plan")
	if branchID != nil {
		dbq = dbq.Where("branch_id = ?", *branchID)
	}

	var members []models.Member
	if err := dbq.Order("id asc").Find(&members).Error; err != nil {
		return nil, nil, err
	}

	// Son girişler tek sorguda
	type lastRow struct {
		MemberID uint      `gorm:"column:member_id"`
		Last     time.Time `gorm:"column:last"`
	}
	var lastRows []lastRow
	if err := database.DB.Model(&models.CheckInRecord{}).
		Select("member_id, MAX(check_in_time) as last").
		Group("member_id").
		Scan(&lastRows).Error; err != nil {
		return nil, nil, err
	}
	lastByMember := make(map[uint]time.Time, len(lastRows))
	for _, r := range lastRows {
		lastByMember[r.MemberID] = r.Last
	}

	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		v := MemberView{
			ID:        m.ID,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Email:     m.Email,
			Username:  m.Username,
			Phone:     m.Phone,
		}
		if current := membership.CurrentMembership(m.Memberships); current != nil {
			v.MembershipStatus = string(current.Status)
			end := current.EndDate
			v.EndDate = &end
		}
		if last, ok := lastByMember[m.ID]; ok {
			lastCopy := last
			v.LastCheckIn = &lastCopy
		}
		views = append(views, v)
	}

	return members, views, nil
}

func buildResponses(members []models.Member, views []MemberView, cfg *config.Config, now time.Time) []MemberResponse {
	byID := make(map[uint]models.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	resp := make([]MemberResponse, 0, len(views))
	for _, v := range views {
		m := byID[v.ID]
		current := membership.CurrentMembership(m.Memberships)

		r := MemberResponse{
			ID:            m.ID,
			BranchID:      m.BranchID,
			FirstName:     m.FirstName,
			LastName:      m.LastName,
			Email:         m.Email,
			Username:      m.Username,
			Phone:         m.Phone,
			Gender:        m.Gender,
			PhotoURL:      m.PhotoURL,
			Notes:         m.Notes,
			CreatedAt:     m.CreatedAt.Format("2006-01-02 15:04:05"),
			DerivedStatus: membership.ComputeStatus(current, now, cfg.ExpiringSoonDays),
			DaysInactive:  DaysInactive(v.LastCheckIn, now),
		}
		if v.EndDate != nil {
			s := v.EndDate.Format("2006-01-02")
			r.EndDate = &s
		}
		if v.LastCheckIn != nil {
			s := v.LastCheckIn.Format("2006-01-02 15:04:05")
			r.LastCheckIn = &s
		}
		resp = append(resp, r)
	}
	return resp
}

// -------------------------------------------------
// GET /api/members?category=expiring&search=ali&branch_id=1
// -------------------------------------------------
func ListMembersHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := resolveBranchScope(c)
		if err != nil {
			return err
		}

		members, views, err := loadViews(branchID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üyeler listelenemedi")
		}

		now := time.Now()
		f := Filter{
			Category: c.Query("category", "all"),
			Search:   c.Query("search"),
		}
		filtered := FilterMembers(views, f, now, cfg.ExpiringSoonDays, cfg.InactiveAfterDays)

		return c.JSON(buildResponses(members, filtered, cfg, now))
	}
}

// -------------------------------------------------
// GET /api/members/:id
// -------------------------------------------------
func GetMemberHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var m models.Member
		if err := database.DB.Preload("Memberships").Preload("Memberships.Plan").
			First(&m, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üye bulunamadı")
		}

		var last models.CheckInRecord
		var lastCheckIn *time.Time
		if err := database.DB.Where("member_id = ?", m.ID).
			Order("check_in_time desc").First(&last).Error; err == nil {
			lastCheckIn = &last.CheckInTime
		}

		now := time.Now()
		current := membership.CurrentMembership(m.Memberships)

		r := MemberResponse{
			ID:            m.ID,
			BranchID:      m.BranchID,
			FirstName:     m.FirstName,
			LastName:      m.LastName,
			Email:         m.Email,
			Username:      m.Username,
			Phone:         m.Phone,
			Gender:        m.Gender,
			PhotoURL:      m.PhotoURL,
			Notes:         m.Notes,
			CreatedAt:     m.CreatedAt.Format("2006-01-02 15:04:05"),
			DerivedStatus: membership.ComputeStatus(current, now, cfg.ExpiringSoonDays),
			DaysInactive:  DaysInactive(lastCheckIn, now),
		}
		if current != nil {
			s := current.EndDate.Format("2006-01-02")
			r.EndDate = &s
		}
		if lastCheckIn != nil {
			s := lastCheckIn.Format("2006-01-02 15:04:05")
			r.LastCheckIn = &s
		}

		return c.JSON(r)
	}
}

// -------------------------------------------------
// POST /api/members
// Resepsiyonda üye kaydı (üye self-register için auth.MemberRegisterHandler'a bak)
// -------------------------------------------------
func CreateMemberHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMemberRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		body.FirstName = strings.TrimSpace(body.FirstName)
		body.LastName = strings.TrimSpace(body.LastName)

		if body.FirstName == "" || body.LastName == "" || body.Email == "" || body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Ad, soyad, email, kullanıcı adı ve şifre zorunlu")
		}

		// Şube: branch_admin kendi şubesine kaydeder, super_admin body'den seçer
		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}
		var branchID uint
		if role == models.RoleBranchAdmin || role == models.RoleReceptionist {
			bPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
			if !ok || bPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
			}
			branchID = *bPtr
		} else {
			if body.BranchID == nil || *body.BranchID == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
			}
			branchID = *body.BranchID
		}

		var exist models.Member
		if err := database.DB.Where("email = ? OR username = ?", body.Email, body.Username).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu email veya kullanıcı adı zaten kayıtlı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		m := models.Member{
			BranchID:     branchID,
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			Email:        body.Email,
			Username:     body.Username,
			Phone:        strings.TrimSpace(body.Phone),
			Gender:       strings.TrimSpace(body.Gender),
			PhotoURL:     body.PhotoURL,
			Notes:        body.Notes,
			PasswordHash: string(hash),
		}

		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üye oluşturulamadı")
		}

		// Audit log yaz
		userID, userName, _, uErr := getUserInfo(c)
		if uErr == nil {
			afterData := map[string]interface{}{
				"id":         m.ID,
				"branch_id":  m.BranchID,
				"first_name": m.FirstName,
				"last_name":  m.LastName,
				"email":      m.Email,
				"username":   m.Username,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				BranchID:    &m.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "member",
				EntityID:    m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Üye kaydedildi: %s %s", m.FirstName, m.LastName),
				Before:      nil,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		now := time.Now()
		return c.Status(fiber.StatusCreated).JSON(MemberResponse{
			ID:            m.ID,
			BranchID:      m.BranchID,
			FirstName:     m.FirstName,
			LastName:      m.LastName,
			Email:         m.Email,
			Username:      m.Username,
			Phone:         m.Phone,
			Gender:        m.Gender,
			PhotoURL:      m.PhotoURL,
			Notes:         m.Notes,
			CreatedAt:     m.CreatedAt.Format("2006-01-02 15:04:05"),
			DerivedStatus: membership.ComputeStatus(nil, now, cfg.ExpiringSoonDays),
			DaysInactive:  nil,
		})
	}
}

// -------------------------------------------------
// PUT /api/members/:id
// -------------------------------------------------
func UpdateMemberHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var m models.Member
		if err := database.DB.First(&m, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üye bulunamadı")
		}

		var body UpdateMemberRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		before := map[string]interface{}{
			"first_name": m.FirstName,
			"last_name":  m.LastName,
			"email":      m.Email,
			"phone":      m.Phone,
			"notes":      m.Notes,
		}

		if body.FirstName != nil {
			name := strings.TrimSpace(*body.FirstName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ad boş olamaz")
			}
			m.FirstName = name
		}
		if body.LastName != nil {
			name := strings.TrimSpace(*body.LastName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Soyad boş olamaz")
			}
			m.LastName = name
		}
		if body.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*body.Email))
			if email == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Email boş olamaz")
			}
			var exist models.Member
			if err := database.DB.Where("email = ? AND id != ?", email, m.ID).First(&exist).Error; err == nil {
				return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
			}
			m.Email = email
		}
		if body.Phone != nil {
			m.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Gender != nil {
			m.Gender = strings.TrimSpace(*body.Gender)
		}
		if body.PhotoURL != nil {
			m.PhotoURL = *body.PhotoURL
		}
		if body.Notes != nil {
			m.Notes = *body.Notes
		}

		if err := database.DB.Save(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üye güncellenemedi")
		}

		userID, userName, _, uErr := getUserInfo(c)
		if uErr == nil {
			after := map[string]interface{}{
				"first_name": m.FirstName,
				"last_name":  m.LastName,
				"email":      m.Email,
				"phone":      m.Phone,
				"notes":      m.Notes,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				BranchID:    &m.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "member",
				EntityID:    m.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Üye güncellendi: %s %s", m.FirstName, m.LastName),
				Before:      before,
				After:       after,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return GetMemberHandler(cfg)(c)
	}
}

// -------------------------------------------------
// DELETE /api/members/:id
// -------------------------------------------------
func DeleteMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var m models.Member
		if err := database.DB.First(&m, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üye bulunamadı")
		}

		beforeData := map[string]interface{}{
			"id":         m.ID,
			"branch_id":  m.BranchID,
			"first_name": m.FirstName,
			"last_name":  m.LastName,
			"email":      m.Email,
			"username":   m.Username,
		}

		if err := database.DB.Delete(&models.Member{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üye silinemedi")
		}

		userID, userName, _, uErr := getUserInfo(c)
		if uErr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				BranchID:    &m.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "member",
				EntityID:    m.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Üye silindi: %s %s", m.FirstName, m.LastName),
				Before:      beforeData,
				After:       beforeData, // Undo için silinen hali after'da da tut
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
