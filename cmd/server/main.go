package main

import (
	"log"
	"strings"

	"gymsync-backend/internal/admin"
	"gymsync-backend/internal/audit"
	"gymsync-backend/internal/auth"
	"gymsync-backend/internal/booking"
	"gymsync-backend/internal/checkin"
	"gymsync-backend/internal/config"
	"gymsync-backend/internal/dashboard"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/feedback"
	"gymsync-backend/internal/member"
	"gymsync-backend/internal/membership"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/auth/member-register", auth.MemberRegisterHandler(cfg))
	api.Post("/auth/member-login", auth.MemberLoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Herkese açık (auth gerektiren) listeler
	protected.Get("/plans", membership.ListPlansHandler())
	protected.Get("/plans/:id", membership.GetPlanHandler())
	protected.Get("/classes", booking.ListClassesHandler())
	protected.Get("/trainers", booking.ListTrainersHandler())
	protected.Post("/bookings/:id/cancel", booking.CancelBookingHandler())

	// Üye self-servis
	memberRoutes := protected.Group("")
	memberRoutes.Use(auth.RequireMember())

	memberRoutes.Get("/checkins/qr", checkin.MemberQRHandler(cfg))
	memberRoutes.Post("/bookings/class", booking.BookClassHandler())
	memberRoutes.Post("/bookings/personal", booking.BookPersonalHandler())
	memberRoutes.Get("/bookings/my", booking.MyBookingsHandler())
	memberRoutes.Post("/feedback", feedback.CreateFeedbackHandler())

	// Personel (resepsiyonist dahil): giriş turnikesi + üye listesi
	staff := protected.Group("")
	staff.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin, models.RoleReceptionist))

	// ------ Check-in turnikesi ------
	staff.Get("/checkins/preview", checkin.PreviewHandler(cfg))
	staff.Post("/checkins/validate", checkin.ValidateHandler(cfg))
	staff.Post("/checkins/approve", checkin.ApproveHandler(cfg))
	staff.Post("/checkins/:id/checkout", checkin.CheckoutHandler())
	staff.Get("/checkins", checkin.ListCheckInsHandler())
	staff.Get("/checkins/active", checkin.ListActiveCheckInsHandler())

	// ------ Üye yönetimi ------
	staff.Get("/members", member.ListMembersHandler(cfg))
	staff.Get("/members/export", member.ExportMembersHandler(cfg))
	staff.Get("/members/:id", member.GetMemberHandler(cfg))
	staff.Post("/members", member.CreateMemberHandler(cfg))
	staff.Put("/members/:id", member.UpdateMemberHandler(cfg))
	staff.Get("/members/:id/membership", membership.GetMemberMembershipHandler(cfg))

	// Şube/süper admin: üyelik, ödeme, ders, antrenör, geri bildirim, raporlama
	manager := protected.Group("")
	manager.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin))

	manager.Delete("/members/:id", member.DeleteMemberHandler())
	manager.Post("/members/import", member.ImportMembersHandler())

	// ------ Üyelik & ödeme ------
	manager.Post("/memberships", membership.AssignMembershipHandler(cfg))
	manager.Post("/memberships/:id/renew", membership.RenewMembershipHandler(cfg))
	manager.Post("/memberships/:id/cancel", membership.CancelMembershipHandler(cfg))
	manager.Get("/payments", membership.ListPaymentsHandler())
	manager.Get("/payments/summary/monthly", membership.MonthlyRevenueHandler())

	// ------ Antrenör & ders ------
	manager.Post("/trainers", booking.CreateTrainerHandler())
	manager.Put("/trainers/:id", booking.UpdateTrainerHandler())
	manager.Delete("/trainers/:id", booking.DeleteTrainerHandler())
	manager.Post("/classes", booking.CreateClassHandler())
	manager.Put("/classes/:id", booking.UpdateClassHandler())
	manager.Delete("/classes/:id", booking.DeleteClassHandler())
	manager.Get("/bookings", booking.ListBookingsHandler())

	// ------ Geri bildirim ------
	manager.Get("/feedback", feedback.ListFeedbackHandler())
	manager.Post("/feedback/:id/resolve", feedback.ResolveFeedbackHandler())

	// ------ Dashboard ------
	manager.Get("/dashboard/traffic-chart", dashboard.TrafficChartHandler())

	// ------ Audit logs ------
	manager.Get("/audit-logs", audit.ListAuditLogsHandler())
	manager.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// Şube yönetimi
	adminRoutes.Post("/branches", admin.CreateBranchHandler())
	adminRoutes.Get("/branches", admin.ListBranchesHandler())
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler())
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler())
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler())
	adminRoutes.Post("/branches/:id/staff", admin.CreateBranchStaffHandler())
	adminRoutes.Get("/branches/:id/staff", admin.ListBranchStaffHandler())

	// Plan yönetimi (planlar şubeler arası ortak)
	adminRoutes.Post("/plans", membership.CreatePlanHandler())
	adminRoutes.Put("/plans/:id", membership.UpdatePlanHandler())
	adminRoutes.Delete("/plans/:id", membership.DeletePlanHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
