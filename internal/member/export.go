package member

import (
	"fmt"
	"strings"
	"time"

	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/config"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

// -------------------------------------------------
// GET /api/members/export?category=inactive&search=&branch_id=1
// Filtrelenmiş üye listesini xlsx olarak indirir.
// -------------------------------------------------
func ExportMembersHandler(cfg *config.Config) fiber.Handler {
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
		responses := buildResponses(members, filtered, cfg, now)

		xf := excelize.NewFile()
		defer xf.Close()

		sheet := xf.GetSheetName(0)

		headers := []string{"ID", "Ad", "Soyad", "Email", "Kullanıcı Adı", "Telefon", "Durum", "Bitiş Tarihi", "Son Giriş", "Pasif Gün"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			xf.SetCellValue(sheet, cell, h)
		}

		for rowIdx, r := range responses {
			endDate := ""
			if r.EndDate != nil {
				endDate = *r.EndDate
			}
			lastCheckIn := ""
			if r.LastCheckIn != nil {
				lastCheckIn = *r.LastCheckIn
			}
			daysInactive := "Hiç"
			if r.DaysInactive != nil {
				daysInactive = fmt.Sprintf("%d", *r.DaysInactive)
			}

			values := []interface{}{
				r.ID, r.FirstName, r.LastName, r.Email, r.Username, r.Phone,
				string(r.DerivedStatus), endDate, lastCheckIn, daysInactive,
			}
			for colIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				xf.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := xf.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("uyeler-%s.xlsx", now.Format("2006-01-02"))
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(buf.Bytes())
	}
}

// -------------------------------------------------
// POST /api/members/import (multipart, "file" alanı)
// Toplu üye aktarımı. Kolonlar: Ad | Soyad | Email | Kullanıcı Adı | Telefon
// Şifreler geçici üretilir, üye ilk girişte değiştirir.
// -------------------------------------------------
func ImportMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}
		var branchID uint
		if role == models.RoleBranchAdmin {
			bPtr, ok := c.Locals(auth.CtxBranchIDKey).(*uint)
			if !ok || bPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
			}
			branchID = *bPtr
		} else {
			bidStr := c.Query("branch_id")
			if bidStr == "" {
				return fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
			}
			if _, err := fmt.Sscan(bidStr, &branchID); err != nil || branchID == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
			}
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenmedi ('file' alanı)")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya açılamadı")
		}
		defer file.Close()

		// Excelize ile dosyayı oku
		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}

		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası boş")
		}

		// İlk satır başlık mı?
		startIdx := 0
		if len(rows[0]) > 0 {
			firstCell := strings.ToUpper(strings.TrimSpace(rows[0][0]))
			if strings.Contains(firstCell, "AD") || strings.Contains(firstCell, "NAME") || firstCell == "ID" {
				startIdx = 1
			}
		}

		created := 0
		skipped := make([]string, 0)

		for i := startIdx; i < len(rows); i++ {
			row := rows[i]
			if len(row) < 4 {
				skipped = append(skipped, fmt.Sprintf("satır %d: eksik kolon", i+1))
				continue
			}

			firstName := strings.TrimSpace(row[0])
			lastName := strings.TrimSpace(row[1])
			email := strings.TrimSpace(strings.ToLower(row[2]))
			username := strings.TrimSpace(strings.ToLower(row[3]))
			phone := ""
			if len(row) > 4 {
				phone = strings.TrimSpace(row[4])
			}

			if firstName == "" || lastName == "" || email == "" || username == "" {
				skipped = append(skipped, fmt.Sprintf("satır %d: zorunlu alan boş", i+1))
				continue
			}

			var exist models.Member
			if err := database.DB.Where("email = ? OR username = ?", email, username).First(&exist).Error; err == nil {
				skipped = append(skipped, fmt.Sprintf("satır %d: %s zaten kayıtlı", i+1, email))
				continue
			}

			tempPassword := fmt.Sprintf("%s-%d", username, time.Now().UnixNano()%100000)
			hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("satır %d: şifre üretilemedi", i+1))
				continue
			}

			m := models.Member{
				BranchID:     branchID,
				FirstName:    firstName,
				LastName:     lastName,
				Email:        email,
				Username:     username,
				Phone:        phone,
				PasswordHash: string(hash),
			}
			if err := database.DB.Create(&m).Error; err != nil {
				skipped = append(skipped, fmt.Sprintf("satır %d: kaydedilemedi", i+1))
				continue
			}
			created++
		}

		return c.JSON(fiber.Map{
			"created": created,
			"skipped": skipped,
		})
	}
}
