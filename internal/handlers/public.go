package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/findmypet/internal/models"
)

// PublicHandler serves the unauthenticated scan endpoint behind the QR
// codes on tags and belts.
type PublicHandler struct {
	db *gorm.DB
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(db *gorm.DB) *PublicHandler {
	return &PublicHandler{db: db}
}

// ScanPet returns the owner contact snapshot for a pet, but only when
// the pet has at least one paid order. Unpaid QR codes stay inactive.
func (h *PublicHandler) ScanPet(c *fiber.Ctx) error {
	petID, err := uuid.Parse(c.Params("petId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid pet id")
	}

	var pet models.Pet
	if err := h.db.
		Select("id", "name", "age", "photo", "owner_name", "owner_email", "owner_mobile", "owner_whatsapp").
		First(&pet, "id = ?", petID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "pet not found")
		}
		return err
	}

	var paidOrders int64
	if err := h.db.Model(&models.Order{}).
		Where("pet_id = ? AND status = ?", petID, models.OrderStatusPaid).
		Count(&paidOrders).Error; err != nil {
		return err
	}

	if paidOrders == 0 {
		return fiber.NewError(fiber.StatusForbidden, "QR code not activated")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"pet": fiber.Map{
			"id":             pet.ID,
			"name":           pet.Name,
			"age":            pet.Age,
			"photo":          pet.Photo,
			"owner_name":     pet.OwnerName,
			"owner_email":    pet.OwnerEmail,
			"owner_mobile":   pet.OwnerMobile,
			"owner_whatsapp": pet.OwnerWhatsapp,
		},
	})
}
