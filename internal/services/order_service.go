package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/findmypet/internal/models"
)

// Fixed price table in whole rupees. Amounts are always derived from
// the order type on the server.
var orderPrices = map[string]int64{
	models.OrderTypeQROnly: 50,
	models.OrderTypeQRBelt: 299,
}

// OrderPrice returns the fixed price for an order type.
func OrderPrice(orderType string) (int64, bool) {
	price, ok := orderPrices[orderType]
	return price, ok
}

// Service-level error taxonomy. Unknown IDs, unverified users and
// cross-owner access all surface as ErrNotFound so existence of other
// users' records never leaks.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrGateway          = errors.New("payment gateway order failed")
)

// ValidationError names the first violated precondition of a command.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// TaskStatus reports the outcome of a best-effort fulfillment task.
type TaskStatus string

const (
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskSkipped   TaskStatus = "skipped"
)

// OrderService owns the order lifecycle: staging an order with the
// payment gateway, verifying payment confirmations, and running the
// post-payment fulfillment side effects.
type OrderService struct {
	db        *gorm.DB
	gateway   PaymentGateway
	mailer    Mailer
	messenger Messenger
	secret    string
	clientURL string
}

// NewOrderService constructs an OrderService. secret is the gateway key
// secret used for signature verification; clientURL is the public base
// URL encoded into pet QR codes.
func NewOrderService(db *gorm.DB, gateway PaymentGateway, mailer Mailer, messenger Messenger, secret, clientURL string) *OrderService {
	return &OrderService{
		db:        db,
		gateway:   gateway,
		mailer:    mailer,
		messenger: messenger,
		secret:    secret,
		clientURL: clientURL,
	}
}

// CreateOrderCommand carries validated inputs for order creation.
type CreateOrderCommand struct {
	UserID            uuid.UUID
	PetID             uuid.UUID
	Type              string
	ShippingAddress   *models.ShippingAddress
	BeltCustomization *models.BeltCustomization
}

// CreateOrder validates the command, stages an order with the gateway
// for the server-determined price, and persists a CREATED order.
// Nothing is persisted if the gateway call fails, so the whole create is
// safe to retry.
func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*models.Order, *GatewayOrder, error) {
	if cmd.UserID == uuid.Nil {
		return nil, nil, invalid("user id is required")
	}
	if cmd.PetID == uuid.Nil {
		return nil, nil, invalid("pet id is required")
	}

	price, ok := OrderPrice(cmd.Type)
	if !ok {
		return nil, nil, invalid("invalid order type %q", cmd.Type)
	}

	if cmd.Type == models.OrderTypeQRBelt {
		if err := validateBeltOrder(cmd.ShippingAddress, cmd.BeltCustomization); err != nil {
			return nil, nil, err
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", cmd.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if !user.IsVerified {
		return nil, nil, ErrNotFound
	}

	var pet models.Pet
	if err := s.db.WithContext(ctx).First(&pet, "id = ? AND user_id = ?", cmd.PetID, cmd.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixNano())
	gatewayOrder, err := s.gateway.StageOrder(ctx, price*100, "INR", receipt)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	order := models.Order{
		UserID:         cmd.UserID,
		PetID:          cmd.PetID,
		Type:           cmd.Type,
		Amount:         price,
		Status:         models.OrderStatusCreated,
		GatewayOrderID: gatewayOrder.ID,
	}
	if cmd.ShippingAddress != nil {
		order.ShippingAddress = *cmd.ShippingAddress
	}
	if cmd.BeltCustomization != nil {
		order.BeltCustomization = *cmd.BeltCustomization
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, nil, err
	}

	return &order, gatewayOrder, nil
}

func validateBeltOrder(addr *models.ShippingAddress, custom *models.BeltCustomization) error {
	if addr == nil {
		return invalid("shipping address is required for belt orders")
	}
	if addr.Street == "" || addr.City == "" || addr.State == "" || addr.Zip == "" {
		return invalid("shipping address is incomplete")
	}
	if custom == nil {
		return invalid("belt customization is required for belt orders")
	}
	if custom.Color == "" || custom.Style == "" {
		return invalid("belt customization is incomplete")
	}
	return nil
}

// VerifyPaymentCommand carries a client-submitted payment confirmation.
type VerifyPaymentCommand struct {
	CallerID         uuid.UUID
	OrderID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// VerifyResult reports the verify outcome plus the status of each
// best-effort fulfillment task.
type VerifyResult struct {
	Order       *models.Order
	AlreadyPaid bool
	QRTask      TaskStatus
	NotifyTask  TaskStatus
}

// ComputeSignature returns the hex HMAC-SHA256 of
// "<gatewayOrderID>|<gatewayPaymentID>" under the given secret.
func ComputeSignature(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment authenticates a payment confirmation and performs the
// single CREATED -> PAID transition. The signature check happens before
// any mutation; a mismatch leaves the order untouched. The transition
// itself is a conditional update so concurrent duplicate confirmations
// cannot both fulfill. Re-verifying an already paid order re-confirms
// harmlessly with fulfillment skipped.
func (s *OrderService) VerifyPayment(ctx context.Context, cmd VerifyPaymentCommand) (*VerifyResult, error) {
	if cmd.GatewayOrderID == "" || cmd.GatewayPaymentID == "" || cmd.Signature == "" {
		return nil, invalid("gateway order id, payment id and signature are required")
	}

	expected := ComputeSignature(cmd.GatewayOrderID, cmd.GatewayPaymentID, s.secret)
	if !hmac.Equal([]byte(expected), []byte(cmd.Signature)) {
		return nil, ErrInvalidSignature
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", cmd.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if cmd.CallerID != uuid.Nil && order.UserID != cmd.CallerID {
		return nil, ErrNotFound
	}

	// The confirmation must reference this order's own gateway order, or
	// a signature from a cheaper order could mark this one paid.
	if order.GatewayOrderID != cmd.GatewayOrderID {
		return nil, ErrNotFound
	}

	if order.Status == models.OrderStatusPaid {
		return &VerifyResult{
			Order:       &order,
			AlreadyPaid: true,
			QRTask:      TaskSkipped,
			NotifyTask:  TaskSkipped,
		}, nil
	}

	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusCreated).
		Updates(map[string]any{
			"status":             models.OrderStatusPaid,
			"gateway_payment_id": cmd.GatewayPaymentID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race against a concurrent verify; treat as already paid.
		if err := s.db.WithContext(ctx).First(&order, "id = ?", order.ID).Error; err != nil {
			return nil, err
		}
		if order.Status != models.OrderStatusPaid {
			return nil, ErrNotFound
		}
		return &VerifyResult{
			Order:       &order,
			AlreadyPaid: true,
			QRTask:      TaskSkipped,
			NotifyTask:  TaskSkipped,
		}, nil
	}

	order.Status = models.OrderStatusPaid
	order.GatewayPaymentID = cmd.GatewayPaymentID

	result := &VerifyResult{Order: &order}
	result.QRTask = s.fulfillQR(ctx, order.PetID)
	result.NotifyTask = s.fulfillNotification(ctx, &order)

	return result, nil
}

// fulfillQR generates the pet's scan QR and persists it. The encoded
// URL depends only on the pet ID, so overwriting an existing code is
// idempotent.
func (s *OrderService) fulfillQR(ctx context.Context, petID uuid.UUID) TaskStatus {
	dataURI, err := GenerateQRDataURI(ScanURL(s.clientURL, petID))
	if err != nil {
		log.Printf("[Order] QR generation failed for pet %s: %v", petID, err)
		return TaskFailed
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("id = ?", petID).
		Update("qr_code", dataURI).Error; err != nil {
		log.Printf("[Order] QR persist failed for pet %s: %v", petID, err)
		return TaskFailed
	}

	return TaskSucceeded
}

// fulfillNotification mails the order confirmation and pings the owner
// on WhatsApp. Failures are logged, never surfaced.
func (s *OrderService) fulfillNotification(ctx context.Context, order *models.Order) TaskStatus {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", order.UserID).Error; err != nil {
		log.Printf("[Order] notification user lookup failed for order %s: %v", order.ID, err)
		return TaskFailed
	}

	text := OrderConfirmationText(user.Username, order)
	html := OrderConfirmationEmail(user.Username, order)

	status := TaskSucceeded
	if err := s.mailer.Send(user.Email, "Order Confirmation - FindMyPet", text, html); err != nil {
		log.Printf("[Order] confirmation email failed for order %s: %v", order.ID, err)
		status = TaskFailed
	}

	if s.messenger != nil && user.Whatsapp != "" {
		if err := s.messenger.Send(user.Whatsapp, text); err != nil {
			log.Printf("[Order] whatsapp message failed for order %s: %v", order.ID, err)
		}
	}

	return status
}

// ListOrders returns the verified user's orders, newest first, with the
// target pet joined in.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, *models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if !user.IsVerified {
		return nil, nil, ErrNotFound
	}

	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Preload("Pet").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	return orders, &user, nil
}

// BackfillMissingQR regenerates QR codes for pets that have a PAID
// order but no QR, recovering the crash window between the status write
// and the QR write. Returns how many pets were repaired.
func (s *OrderService) BackfillMissingQR(ctx context.Context) (int, error) {
	var petIDs []uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Distinct("orders.pet_id").
		Joins("JOIN pets ON pets.id = orders.pet_id").
		Where("orders.status = ? AND (pets.qr_code = '' OR pets.qr_code IS NULL)", models.OrderStatusPaid).
		Pluck("orders.pet_id", &petIDs).Error; err != nil {
		return 0, err
	}

	repaired := 0
	for _, petID := range petIDs {
		if s.fulfillQR(ctx, petID) == TaskSucceeded {
			repaired++
		}
	}

	return repaired, nil
}
