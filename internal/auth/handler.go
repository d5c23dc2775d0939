package auth

import (
	"strings"

	"gymsync-backend/internal/config"
	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterSuperAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MemberRegisterRequest struct {
	BranchID  uint   `json:"branch_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Password  string `json:"password"`
}

type MemberLoginRequest struct {
	// Email veya username ile giriş
	Login    string `json:"login"`
	Password string `json:"password"`
}

func RegisterSuperAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterSuperAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}

		// Zaten super admin varsa ikinciyi engelle
		var count int64
		database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleSuperAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Zaten bir super admin var")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleSuperAdmin,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":        user.ID,
				"name":      user.Name,
				"email":     user.Email,
				"role":      user.Role,
				"branch_id": user.BranchID,
			},
		})
	}
}

// POST /api/auth/member-register
// Üye kendi kaydını oluşturur. Üyelik planı sonradan resepsiyonda atanır.
func MemberRegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MemberRegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		body.FirstName = strings.TrimSpace(body.FirstName)
		body.LastName = strings.TrimSpace(body.LastName)

		if body.FirstName == "" || body.LastName == "" || body.Email == "" || body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Ad, soyad, email, kullanıcı adı ve şifre zorunlu")
		}
		if body.BranchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
		}

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", body.BranchID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
		}

		var exist models.Member
		if err := database.DB.Where("email = ? OR username = ?", body.Email, body.Username).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu email veya kullanıcı adı zaten kayıtlı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		member := models.Member{
			BranchID:     body.BranchID,
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			Email:        body.Email,
			Username:     body.Username,
			Phone:        strings.TrimSpace(body.Phone),
			Gender:       strings.TrimSpace(body.Gender),
			PasswordHash: string(hash),
		}

		if err := database.DB.Create(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üye oluşturulamadı")
		}

		token, err := GenerateMemberToken(cfg.JWTSecret, &member)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"member": fiber.Map{
				"id":         member.ID,
				"first_name": member.FirstName,
				"last_name":  member.LastName,
				"email":      member.Email,
				"username":   member.Username,
				"branch_id":  member.BranchID,
			},
		})
	}
}

// POST /api/auth/member-login
func MemberLoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MemberLoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Login = strings.TrimSpace(strings.ToLower(body.Login))

		var member models.Member
		if err := database.DB.Where("email = ? OR username = ?", body.Login, body.Login).First(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı adı veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı adı veya şifre hatalı")
		}

		token, err := GenerateMemberToken(cfg.JWTSecret, &member)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"member": fiber.Map{
				"id":         member.ID,
				"first_name": member.FirstName,
				"last_name":  member.LastName,
				"email":      member.Email,
				"username":   member.Username,
				"branch_id":  member.BranchID,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDVal := c.Locals(CtxUserIDKey)
		roleVal := c.Locals(CtxUserRoleKey)
		branchIDVal := c.Locals(CtxBranchIDKey)

		role, _ := roleVal.(models.UserRole)

		// Üye oturumu ise members tablosundan çek
		if role == models.RoleMember {
			if memberID, ok := userIDVal.(uint); ok {
				var member models.Member
				if err := database.DB.First(&member, memberID).Error; err == nil {
					return c.JSON(fiber.Map{
						"member_id":  member.ID,
						"first_name": member.FirstName,
						"last_name":  member.LastName,
						"email":      member.Email,
						"username":   member.Username,
						"phone":      member.Phone,
						"role":       models.RoleMember,
						"branch_id":  member.BranchID,
					})
				}
			}
		}

		// Admin oturumu
		var user models.User
		if userID, ok := userIDVal.(uint); ok {
			if err := database.DB.First(&user, userID).Error; err == nil {
				response := fiber.Map{
					"user_id":   user.ID,
					"name":      user.Name,
					"email":     user.Email,
					"role":      user.Role,
					"branch_id": user.BranchID,
				}

				if user.BranchID != nil {
					var branch models.Branch
					if err := database.DB.First(&branch, *user.BranchID).Error; err == nil {
						response["branch"] = fiber.Map{
							"id":      branch.ID,
							"name":    branch.Name,
							"address": branch.Address,
							"phone":   branch.Phone,
						}
					}
				}

				return c.JSON(response)
			}
		}

		// Fallback: Eğer veritabanından çekilemezse locals'dan döndür
		return c.JSON(fiber.Map{
			"user_id":   userIDVal,
			"role":      roleVal,
			"branch_id": branchIDVal,
		})
	}
}
