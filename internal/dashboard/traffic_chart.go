package dashboard

import (
	"fmt"
	"time"

	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TrafficChartPoint struct {
	Label         string `json:"label"` // tarih / hafta başlangıcı / ay başlangıcı
	CheckIns      int64  `json:"check_ins"`
	UniqueMembers int64  `json:"unique_members"`
}

type TrafficChartResponse struct {
	BranchID uint                `json:"branch_id"`
	Period   string              `json:"period"` // daily | weekly | monthly
	From     string              `json:"from"`
	To       string              `json:"to"`
	Points   []TrafficChartPoint `json:"points"`
	Total    int64               `json:"total"`
}

// context'ten branch id çıkar (branch_admin için JWT, super_admin için query param)
// super_admin için ?branch_id=1 zorunlu
func getBranchIDFromContext(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role == models.RoleBranchAdmin || role == models.RoleReceptionist {
		branchIDVal := c.Locals(auth.CtxBranchIDKey)
		branchIDPtr, ok := branchIDVal.(*uint)
		if !ok || branchIDPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		return *branchIDPtr, nil
	}

	// super_admin
	bidStr := c.Query("branch_id")
	if bidStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
	}
	var bid uint
	if _, err := fmt.Sscan(bidStr, &bid); err != nil || bid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
	}
	return bid, nil
}

// GET /api/dashboard/traffic-chart?period=daily&count=7&branch_id=1
func TrafficChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := getBranchIDFromContext(c)
		if err != nil {
			return err
		}

		period := c.Query("period", "daily") // daily | weekly | monthly
		countStr := c.Query("count", "")

		var count int
		if countStr == "" {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				period = "daily"
				count = 7
			}
		} else {
			if _, err := fmt.Sscan(countStr, &count); err != nil || count <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "count geçersiz")
			}
		}

		now := time.Now()
		loc := now.Location()
		// bugünün 00:00'ı
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		var start time.Time

		switch period {
		case "weekly":
			// count hafta geriye
			days := 7 * (count - 1)
			start = end.AddDate(0, 0, -days)
		case "monthly":
			// ilgili ayların başından itibaren
			end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
			start = end.AddDate(0, -(count - 1), 0)
		default:
			// daily
			period = "daily"
			start = end.AddDate(0, 0, -(count - 1))
		}

		// aggregation sonucu satır yapısı
		type row struct {
			Bucket        time.Time `gorm:"column:bucket"`
			CheckIns      int64     `gorm:"column:check_ins"`
			UniqueMembers int64     `gorm:"column:unique_members"`
		}
		var rows []row

		var sql string
		switch period {
		case "weekly":
			sql = `
				SELECT date_trunc('week', check_in_time)::date AS bucket,
					   COUNT(*) AS check_ins,
					   COUNT(DISTINCT member_id) AS unique_members
				FROM check_in_records
				WHERE branch_id = ? AND check_in_time >= ? AND check_in_time < ?
				GROUP BY bucket
				ORDER BY bucket ASC;
			`
		case "monthly":
			sql = `
				SELECT date_trunc('month', check_in_time)::date AS bucket,
					   COUNT(*) AS check_ins,
					   COUNT(DISTINCT member_id) AS unique_members
				FROM check_in_records
				WHERE branch_id = ? AND check_in_time >= ? AND check_in_time < ?
				GROUP BY bucket
				ORDER BY bucket ASC;
			`
		default: // daily
			sql = `
				SELECT check_in_time::date AS bucket,
					   COUNT(*) AS check_ins,
					   COUNT(DISTINCT member_id) AS unique_members
				FROM check_in_records
				WHERE branch_id = ? AND check_in_time >= ? AND check_in_time < ?
				GROUP BY bucket
				ORDER BY bucket ASC;
			`
		}

		// üst sınır: bir sonraki bucket başlangıcı
		var upper time.Time
		switch period {
		case "weekly":
			upper = end.AddDate(0, 0, 7)
		case "monthly":
			upper = end.AddDate(0, 1, 0)
		default:
			upper = end.AddDate(0, 0, 1)
		}

		if err := database.DB.Raw(sql, branchID, start, upper).Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Veri toplanırken hata oluştu")
		}

		points := make([]TrafficChartPoint, 0, len(rows))
		var total int64
		for _, r := range rows {
			points = append(points, TrafficChartPoint{
				Label:         r.Bucket.Format("2006-01-02"),
				CheckIns:      r.CheckIns,
				UniqueMembers: r.UniqueMembers,
			})
			total += r.CheckIns
		}

		resp := TrafficChartResponse{
			BranchID: branchID,
			Period:   period,
			From:     start.Format("2006-01-02"),
			To:       end.Format("2006-01-02"),
			Points:   points,
			Total:    total,
		}

		return c.JSON(resp)
	}
}
