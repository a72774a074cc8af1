package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/findmypet/internal/middleware"
	"github.com/example/findmypet/internal/models"
	"github.com/example/findmypet/internal/services"
)

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	PetID             string                    `json:"pet_id"`
	Type              string                    `json:"type"`
	ShippingAddress   *models.ShippingAddress   `json:"shipping_address"`
	BeltCustomization *models.BeltCustomization `json:"belt_customization"`
}

// CreateOrder stages a gateway order and persists it in CREATED status.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid pet id")
	}

	order, gatewayOrder, err := h.orders.CreateOrder(c.Context(), services.CreateOrderCommand{
		UserID:            userID,
		PetID:             petID,
		Type:              req.Type,
		ShippingAddress:   req.ShippingAddress,
		BeltCustomization: req.BeltCustomization,
	})
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"gateway_order": gatewayOrder,
		"order":         order,
	})
}

// MyOrders lists the caller's orders with their pets joined in.
func (h *OrderHandler) MyOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orders, owner, err := h.orders.ListOrders(c.Context(), userID)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"owner": fiber.Map{
			"name":     owner.Username,
			"email":    owner.Email,
			"mobile":   owner.Mobile,
			"whatsapp": owner.Whatsapp,
		},
		"orders": orders,
	})
}

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
	OrderID          string `json:"order_id"`
}

// VerifyPayment authenticates a payment confirmation and reports the
// fulfillment task outcomes.
func (h *OrderHandler) VerifyPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	result, err := h.orders.VerifyPayment(c.Context(), services.VerifyPaymentCommand{
		CallerID:         userID,
		OrderID:          orderID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Payment verified successfully",
		"already_paid": result.AlreadyPaid,
		"fulfillment": fiber.Map{
			"qr":           result.QRTask,
			"notification": result.NotifyTask,
		},
	})
}

func mapOrderError(err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return fiber.NewError(fiber.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidSignature):
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment signature")
	case errors.Is(err, services.ErrGateway):
		return fiber.NewError(fiber.StatusBadGateway, "order creation failed")
	default:
		return err
	}
}
