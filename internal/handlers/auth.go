package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/findmypet/internal/config"
	"github.com/example/findmypet/internal/middleware"
	"github.com/example/findmypet/internal/models"
	"github.com/example/findmypet/internal/services"
	"github.com/example/findmypet/internal/utils"
)

// AuthHandler bundles dependencies for registration and OTP login.
type AuthHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer services.Mailer
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, mailer services.Mailer) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, mailer: mailer}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Whatsapp string `json:"whatsapp"`
}

// Register creates a new, unverified user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Username == "" || req.Email == "" || req.Mobile == "" || req.Whatsapp == "" {
		return fiber.NewError(fiber.StatusBadRequest, "all fields are required")
	}

	if !utils.IsValidMobile(req.Mobile) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid mobile number")
	}
	if !utils.IsValidMobile(req.Whatsapp) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid WhatsApp number")
	}

	for field, value := range map[string]string{
		"email":    req.Email,
		"mobile":   req.Mobile,
		"whatsapp": req.Whatsapp,
	} {
		var existing models.User
		err := h.db.Where(field+" = ?", value).First(&existing).Error
		if err == nil {
			return fiber.NewError(fiber.StatusConflict, field+" already exists")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	user := models.User{
		Username:   req.Username,
		Email:      req.Email,
		Mobile:     req.Mobile,
		Whatsapp:   req.Whatsapp,
		IsVerified: false,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
	})
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

// CheckEmail reports whether an account exists for the given email.
func (h *AuthHandler) CheckEmail(c *fiber.Ctx) error {
	var req checkEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	err := h.db.Where("email = ?", req.Email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return c.JSON(fiber.Map{"exists": err == nil})
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login issues a one-time code to the user's email. The code is stored
// bcrypt-hashed with a 10-minute expiry.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate OTP")
	}

	hash, err := utils.HashOTP(code)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store OTP")
	}

	expires := time.Now().Add(10 * time.Minute)
	if err := h.db.Model(&user).Updates(map[string]any{
		"otp_hash":    hash,
		"otp_expires": &expires,
	}).Error; err != nil {
		return err
	}

	if err := h.mailer.Send(user.Email, "FindMyPet OTP", "Your OTP is: "+code, ""); err != nil {
		log.Printf("[Auth] OTP email failed for %s: %v", user.Email, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send OTP")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent to email",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP checks the submitted code against the stored hash and its
// expiry. On success the account is marked verified, the OTP fields are
// cleared, and a session token is returned.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if user.OTPHash == "" || user.OTPExpires == nil || user.OTPExpires.Before(time.Now()) ||
		!utils.CheckOTP(user.OTPHash, req.OTP) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid or expired OTP")
	}

	if err := h.db.Model(&user).Updates(map[string]any{
		"is_verified": true,
		"otp_hash":    "",
		"otp_expires": nil,
	}).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP verified successfully",
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"mobile":   user.Mobile,
			"whatsapp": user.Whatsapp,
		},
		"token": token,
	})
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Mobile   string `json:"mobile"`
	Whatsapp string `json:"whatsapp"`
}

// UpdateProfile updates the authenticated user's contact fields.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	updates := map[string]any{}
	if req.Username != "" {
		updates["username"] = req.Username
	}
	if req.Mobile != "" {
		if !utils.IsValidMobile(req.Mobile) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid mobile number")
		}
		updates["mobile"] = req.Mobile
	}
	if req.Whatsapp != "" {
		if !utils.IsValidMobile(req.Whatsapp) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid WhatsApp number")
		}
		updates["whatsapp"] = req.Whatsapp
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"mobile":   user.Mobile,
			"whatsapp": user.Whatsapp,
		},
	})
}

func generateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
