package models

import (
	"github.com/google/uuid"
)

// Pet belongs to exactly one user. Owner contact fields are a snapshot
// taken at creation time so the public scan page works even if the user
// record changes later. QRCode stays empty until an order for the pet
// is paid.
type Pet struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User   *User     `json:"user,omitempty"`

	Name  string `json:"name"`
	Age   int    `json:"age"`
	Photo string `json:"photo"`

	OwnerName     string `json:"owner_name"`
	OwnerEmail    string `json:"owner_email"`
	OwnerMobile   string `json:"owner_mobile"`
	OwnerWhatsapp string `json:"owner_whatsapp"`

	QRCode string `gorm:"type:text" json:"qr_code"`
}
