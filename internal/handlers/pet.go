package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/findmypet/internal/middleware"
	"github.com/example/findmypet/internal/models"
	"github.com/example/findmypet/internal/services"
)

// PetHandler manages pet registration and listing.
type PetHandler struct {
	db        *gorm.DB
	imageHost *services.ImageHostService
}

// NewPetHandler constructs a PetHandler.
func NewPetHandler(db *gorm.DB, imageHost *services.ImageHostService) *PetHandler {
	return &PetHandler{db: db, imageHost: imageHost}
}

// CreatePet registers a pet for the authenticated, verified owner.
// Accepts multipart form fields (name, age) plus an optional photo file
// uploaded to the external image host.
func (h *PetHandler) CreatePet(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found or not verified")
		}
		return err
	}
	if !user.IsVerified {
		return fiber.NewError(fiber.StatusNotFound, "user not found or not verified")
	}

	name := c.FormValue("name")
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	age := 0
	if ageStr := c.FormValue("age"); ageStr != "" {
		parsed, err := strconv.Atoi(ageStr)
		if err != nil || parsed < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid age")
		}
		age = parsed
	}

	photoURL := ""
	if fileHeader, err := c.FormFile("photo"); err == nil && h.imageHost.Enabled() {
		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid photo upload")
		}
		defer file.Close()

		url, err := h.imageHost.Upload(c.Context(), fileHeader.Filename, file)
		if err != nil {
			log.Printf("[Pet] photo upload failed: %v", err)
		} else {
			photoURL = url
		}
	}

	// Owner contact snapshot is taken now; it is not kept in sync with
	// later profile updates.
	pet := models.Pet{
		UserID:        user.ID,
		Name:          name,
		Age:           age,
		Photo:         photoURL,
		OwnerName:     user.Username,
		OwnerEmail:    user.Email,
		OwnerMobile:   user.Mobile,
		OwnerWhatsapp: user.Whatsapp,
	}

	if err := h.db.Create(&pet).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"pet":     pet,
	})
}

// MyPets lists the authenticated owner's pets, newest first.
func (h *PetHandler) MyPets(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found or not verified")
		}
		return err
	}
	if !user.IsVerified {
		return fiber.NewError(fiber.StatusNotFound, "user not found or not verified")
	}

	var pets []models.Pet
	if err := h.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&pets).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"owner": fiber.Map{
			"name":     user.Username,
			"email":    user.Email,
			"mobile":   user.Mobile,
			"whatsapp": user.Whatsapp,
		},
		"pets": pets,
	})
}
