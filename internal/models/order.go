package models

import (
	"github.com/google/uuid"
)

// Order types: digital QR tag only, or QR tag plus a physical belt.
const (
	OrderTypeQROnly = "QR_ONLY"
	OrderTypeQRBelt = "QR_BELT"
)

// Order statuses. SHIPPED exists for fulfillment tooling and manual
// updates; no API operation sets it.
const (
	OrderStatusCreated = "CREATED"
	OrderStatusPaid    = "PAID"
	OrderStatusShipped = "SHIPPED"
)

// ShippingAddress is required for belt orders only.
type ShippingAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// BeltCustomization is required for belt orders only.
type BeltCustomization struct {
	Color string `json:"color"`
	Style string `json:"style"`
}

// Order is one purchase attempt for a pet. Amount is whole rupees and
// always comes from the server-side price table, never the client.
type Order struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User   *User     `json:"user,omitempty"`
	PetID  uuid.UUID `gorm:"type:uuid;index" json:"pet_id"`
	Pet    *Pet      `json:"pet,omitempty"`

	Type   string `json:"type"`
	Amount int64  `json:"amount"`
	Status string `gorm:"index" json:"status"`

	GatewayOrderID   string `gorm:"index" json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`

	ShippingAddress   ShippingAddress   `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	BeltCustomization BeltCustomization `gorm:"embedded;embeddedPrefix:belt_" json:"belt_customization"`
}

// IsBelt reports whether the order requires physical fulfillment.
func (o *Order) IsBelt() bool {
	return o.Type == OrderTypeQRBelt
}
